package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The App type
// satisfies it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Explore(ctx context.Context) error
	Show(ctx context.Context, id string) error
	NewProposal(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Favorite(ctx context.Context, id string) error
	Search(ctx context.Context, query string) error
	Filter(ctx context.Context) error
}

// runREPL reads lines from scanner, parses the first token as the command
// and dispatches to a. The loop exits on EOF or "exit"/"quit". Handler
// errors are not fatal; handlers report their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tm%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		arg := func() string {
			if len(args) == 0 {
				return ""
			}
			return args[0]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, explore, show <id>, new, edit <id>, dup <id>, delete <id>, fav <id>, search <text>, filter, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "explore":
			_ = a.Explore(ctx)

		case "show":
			if arg() == "" {
				printlnFn("Usage: show <id>")
				continue
			}
			_ = a.Show(ctx, arg())

		case "new":
			_ = a.NewProposal(ctx)

		case "edit":
			if arg() == "" {
				printlnFn("Usage: edit <id>")
				continue
			}
			_ = a.Edit(ctx, arg())

		case "dup":
			if arg() == "" {
				printlnFn("Usage: dup <id>")
				continue
			}
			_ = a.Duplicate(ctx, arg())

		case "delete":
			if arg() == "" {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, arg())

		case "fav":
			if arg() == "" {
				printlnFn("Usage: fav <id>")
				continue
			}
			_ = a.Favorite(ctx, arg())

		case "search":
			_ = a.Search(ctx, strings.Join(args, " "))

		case "filter":
			_ = a.Filter(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
