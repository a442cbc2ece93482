// Package cli provides the interactive taskdesk command-line client.
//
// It wires configuration, local state storage, the request gateway, the
// session store and the task services, and exposes them both as an
// interactive REPL and as one-shot cobra subcommands.
//
// Every command is bound to a route (/, /active, /completed, /admin, /login,
// /register) and runs only if the access controller allows that route for
// the current session. A session lost mid-run (any 401) is announced and
// the next protected command asks the user to log in again.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See NewRootCommand, App and runREPL for details.
package cli
