package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
	"github.com/dmitrijs2005/taskdesk/internal/client/config"
	"github.com/dmitrijs2005/taskdesk/internal/client/models"
	"github.com/dmitrijs2005/taskdesk/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the taskdesk root command. Without a subcommand it
// starts the interactive REPL.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskdesk",
		Short: "Task management client",
		Long: `taskdesk is a command-line client for a task management API.

Run without arguments for an interactive session, or use the subcommands
for one-shot operations. Configuration is read from defaults, an optional
config file (--config), the environment (TASKDESK_*, .env) and flags,
in that order.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				a.Root(ctx)
				return nil
			})
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newTasksCommand(),
		newAdminCommand(),
	)
	return root
}

// withApp loads configuration, builds and starts an App for cmd, and runs fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *App) error) error {
	cfg, err := config.Load(config.SourcesFromFlags(cmd.Flags()))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := NewApp(ctx, cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn(ctx, "close app", "error", err)
		}
	}()

	if err := a.Start(ctx); err != nil {
		return err
	}
	if err := fn(ctx, a); err != nil {
		return errors.New(userMessage(err))
	}
	return nil
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, bare((*App).Login))
		},
	}
}

func newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, bare((*App).Register))
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, bare((*App).Logout))
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, bare((*App).Whoami))
		},
	}
}

func newTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}

	var listOpts struct {
		Page   int
		Search string
		Status string
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := models.ParseStatusFilter(listOpts.Status)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *App) error {
				route := routeForFilter(filter)
				if err := a.guard(route); err != nil {
					return err
				}
				a.taskRoute = route
				if listOpts.Search != "" {
					if _, err := a.tasks.SetSearch(ctx, listOpts.Search); err != nil {
						return err
					}
				}
				if listOpts.Page > 1 {
					if _, err := a.tasks.SetPage(ctx, listOpts.Page); err != nil {
						return err
					}
				}
				a.showTasks()
				return nil
			})
		},
	}
	list.Flags().IntVar(&listOpts.Page, "page", 1, "page number")
	list.Flags().StringVar(&listOpts.Search, "search", "", "search term")
	list.Flags().StringVar(&listOpts.Status, "status", string(models.FilterAll), "all, active or completed")

	var due string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Add(ctx, joinArgs(args), due)
			})
		},
	}
	add.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")

	byID := func(use, short string, fn func(*App, context.Context, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(ctx context.Context, a *App) error {
					return fn(a, ctx, args[0])
				})
			},
		}
	}

	cmd.AddCommand(
		list,
		add,
		byID("toggle", "Toggle task completion", (*App).Toggle),
		byID("edit", "Edit a task interactively", (*App).Edit),
		byID("delete", "Delete a task", (*App).Delete),
	)
	return cmd
}

func newAdminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "admin [subcommand]",
		Short: "Admin panel (admin role only)",
		Long:  "Usage: " + adminUsage,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *App) error {
				return a.Admin(ctx, args)
			})
		},
	}
}

func routeForFilter(f models.StatusFilter) string {
	switch f {
	case models.FilterActive:
		return access.RouteActive
	case models.FilterCompleted:
		return access.RouteCompleted
	default:
		return access.RouteHome
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

// bare adapts a no-argument App command to withApp.
func bare(fn func(*App, context.Context) error) func(context.Context, *App) error {
	return func(ctx context.Context, a *App) error {
		return fn(a, ctx)
	}
}
