// Command taskctl is a terminal client for the task manager API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/task-manager/client"
	"github.com/example/task-manager/ui"
)

const defaultServer = "http://localhost:5000"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "taskctl: %s\n", client.ErrorMessage(err))
		os.Exit(1)
	}
}

type options struct {
	server   string
	email    string
	password string
	username string
	register bool
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	fs := flag.NewFlagSet("taskctl", flag.ContinueOnError)
	fs.SetOutput(out)

	server := os.Getenv("TASKMANAGER_URL")
	if server == "" {
		server = defaultServer
	}

	opts := &options{}
	fs.StringVar(&opts.server, "server", server, "Task manager API base URL (env TASKMANAGER_URL)")
	fs.StringVar(&opts.email, "email", "", "Account email")
	fs.StringVar(&opts.password, "password", os.Getenv("TASKMANAGER_PASSWORD"), "Account password (env TASKMANAGER_PASSWORD)")
	fs.StringVar(&opts.username, "username", "", "Display name used with -register")
	fs.BoolVar(&opts.register, "register", false, "Create the account before signing in")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.email == "" || opts.password == "" {
		return nil, errors.New("-email and -password are required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	session := client.New(opts.server)
	if opts.register {
		if err := session.Register(ctx, opts.email, opts.password, opts.username); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	}
	if err := session.Login(ctx, opts.email, opts.password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	return ui.Run(ctx, session)
}
