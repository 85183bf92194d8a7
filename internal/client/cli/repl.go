package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/mapfriends/internal/client/autherr"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Google(ctx context.Context) error
	Apple(ctx context.Context) error
	Reset(ctx context.Context) error
	Terms(ctx context.Context) error
	Profile(ctx context.Context) error
	Skip(ctx context.Context) error
	Visibility(ctx context.Context, args []string) error
	Onboard(ctx context.Context) error
	Handle(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Version(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a.
//
// Errors returned by handlers are printed with their localized message; the
// loop keeps running.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mf> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: terms, profile, skip, visibility <open|locked>, onboard, handle <name>, status, version, logout, exit")
			} else {
				printlnFn("Available commands: login, register, google, apple, reset, status, version, exit")
			}

		case "login":
			report(a.Login(ctx))
		case "register":
			report(a.Register(ctx))
		case "google":
			report(a.Google(ctx))
		case "apple":
			report(a.Apple(ctx))
		case "reset":
			report(a.Reset(ctx))
		case "terms":
			report(a.Terms(ctx))
		case "profile":
			report(a.Profile(ctx))
		case "skip":
			report(a.Skip(ctx))
		case "visibility":
			report(a.Visibility(ctx, args))
		case "onboard":
			report(a.Onboard(ctx))
		case "handle":
			report(a.Handle(ctx, args))
		case "status":
			report(a.Status(ctx))
		case "version":
			report(a.Version(ctx))
		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

// report prints err for the user. Auth errors show their localized message.
func report(err error) {
	if err == nil {
		return
	}
	var ae *autherr.AuthError
	if errors.As(err, &ae) {
		printlnFn("Error:", ae.Message)
		return
	}
	printlnFn("Error:", err.Error())
}
