package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	SelectRepo(ctx context.Context, arg string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context, path string) error
}

// runREPL starts a simple read-eval-print loop for the DIPCP client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands
//
//	help             — show available commands
//	login            — authenticate with a token
//	repo [owner/name] — select the working repository (prompts when omitted)
//	sync             — run a sync pass for the selected repository
//	status           — rate-limit state and last sync summary
//	l | list         — list cached and local files
//	delete <path>    — delete a file locally, leaving a tombstone
//	logout           — forget the saved credentials
//	exit | quit      — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("dipcp %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: repo, sync, status, (l)ist, delete, logout, exit")
			} else {
				printlnFn("Available commands: login, repo, status, (l)ist, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "repo":
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			_ = a.SelectRepo(ctx, arg)

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <path>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
