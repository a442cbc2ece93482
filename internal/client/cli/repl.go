package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/taskdesk/internal/client/access"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	menu() []access.MenuItem
	Report(err error)

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Menu(ctx context.Context) error

	Open(ctx context.Context, route string) error
	List(ctx context.Context) error
	Search(ctx context.Context, term string) error
	GoToPage(ctx context.Context, n int) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Add(ctx context.Context, title, due string) error
	Toggle(ctx context.Context, ref string) error
	Edit(ctx context.Context, ref string) error
	Delete(ctx context.Context, ref string) error

	Admin(ctx context.Context, args []string) error
}

// Root runs the interactive REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to taskdesk (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.readerOrStdin())
}

func (a *App) readerOrStdin() *bufio.Reader {
	if a.reader != nil {
		return a.reader
	}
	a.reader = bufio.NewReader(os.Stdin)
	return a.reader
}

// runREPL starts a simple read–eval–print loop for the taskdesk CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                 show available commands
//	  - register             create an account
//	  - login                authenticate
//	  - exit | quit          leave the program
//
//	Logged in:
//	  - (l)ist               refetch and list the current view
//	  - all|active|completed switch task view
//	  - search [term]        search from page 1 (no term clears)
//	  - page <n>|next|prev   paginate
//	  - add [title]          add a task
//	  - toggle|edit|delete <n|id>
//	  - admin ...            admin panel (admin role only)
//	  - whoami, menu, logout
//
// Handler errors are passed to a.Report, which prints them; the loop keeps going.
// Interactive prompts share reader with the loop, so no input is read ahead.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("td %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]
		first := func() string {
			if len(args) == 0 {
				return ""
			}
			return args[0]
		}

		err = nil
		switch cmd {
		case "help":
			printHelp(a)

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.Whoami(ctx)

		case "menu":
			err = a.Menu(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "all":
			err = a.Open(ctx, access.RouteHome)

		case "active":
			err = a.Open(ctx, access.RouteActive)

		case "completed":
			err = a.Open(ctx, access.RouteCompleted)

		case "search":
			err = a.Search(ctx, strings.Join(args, " "))

		case "page":
			n, convErr := strconv.Atoi(first())
			if convErr != nil {
				err = usageError("page <n>")
				break
			}
			err = a.GoToPage(ctx, n)

		case "next":
			err = a.Next(ctx)

		case "prev":
			err = a.Prev(ctx)

		case "add":
			err = a.Add(ctx, strings.Join(args, " "), "")

		case "toggle":
			err = a.Toggle(ctx, first())

		case "edit":
			err = a.Edit(ctx, first())

		case "delete", "rm":
			err = a.Delete(ctx, first())

		case "admin":
			err = a.Admin(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			a.Report(err)
		}
	}
}

func printHelp(a execIface) {
	if !a.isLoggedIn() {
		printlnFn("Available commands: register, login, exit")
		return
	}
	cmds := "(l)ist, all, active, completed, search, page, next, prev, add, toggle, edit, delete, whoami, menu, logout, exit"
	for _, it := range a.menu() {
		if it.Route == access.RouteAdmin {
			cmds += ", admin"
		}
	}
	printlnFn("Available commands: " + cmds)
}
