package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printfFn are test seams for user-facing output. In tests,
// replace them with stubs.
var printlnFn = fmt.Println
var printfFn = fmt.Printf

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Verify(ctx context.Context, token string) error
	Social(ctx context.Context) error
	Callback(ctx context.Context, rawURL string) error
	List(ctx context.Context) error
	OpenConversation(ctx context.Context, id string) error
	NewChat(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	Logout(ctx context.Context) error
	Say(ctx context.Context, text string) error
}

// runREPL starts a read-eval-print loop for the HOMIN+ CLI.
//
// Lines starting with "/" are commands; anything else is sent to the
// assistant as a chat message. The loop exits on scanner EOF or on /exit.
//
// Commands
//
//	Not signed in:
//	  - /help              - show available commands
//	  - /login             - sign in with email and password
//	  - /register          - create an account
//	  - /verify <token>    - confirm an account with an emailed token
//	  - /social            - sign in via a social provider
//	  - /callback <url>    - paste a callback URL by hand
//	  - /exit | /quit      - leave the program
//
//	Signed in, additionally:
//	  - /list              - list conversations
//	  - /open <id>         - open a conversation and load its history
//	  - /new               - start a new conversation
//	  - /delete <id>       - delete a conversation (asks for confirmation)
//	  - /logout            - sign out
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printfFn("homin %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			_ = a.Say(ctx, line)
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "/help":
			if a.isLoggedIn() {
				printlnFn("Commands: /list, /open <id>, /new, /delete <id>, /logout, /exit - anything else is sent to the assistant")
			} else {
				printlnFn("Commands: /login, /register, /verify <token>, /social, /callback <url>, /exit")
			}

		case "/login":
			_ = a.Login(ctx)

		case "/register":
			_ = a.Register(ctx)

		case "/verify":
			if len(args) == 0 {
				printlnFn("Usage: /verify <token>")
				continue
			}
			_ = a.Verify(ctx, args[0])

		case "/social":
			_ = a.Social(ctx)

		case "/callback":
			if len(args) == 0 {
				printlnFn("Usage: /callback <url>")
				continue
			}
			_ = a.Callback(ctx, args[0])

		case "/list":
			_ = a.List(ctx)

		case "/open":
			if len(args) == 0 {
				printlnFn("Usage: /open <id>")
				continue
			}
			_ = a.OpenConversation(ctx, args[0])

		case "/new":
			_ = a.NewChat(ctx)

		case "/delete":
			if len(args) == 0 {
				printlnFn("Usage: /delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "/logout":
			_ = a.Logout(ctx)

		case "/exit", "/quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
