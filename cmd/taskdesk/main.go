package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-task-client/internal/config"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
)

const usage = `usage: taskdesk <command> [flags]

commands:
  login          -email <email> [-password <password>]
  logout
  whoami
  tasks          [-status pendiente|en_progreso|completada] [-mine]
  stats          [-json]
  notifications  [-read-all]
  users          [-role admin_general|admin|empleado]
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		switch {
		case errors.Is(err, apierrors.ErrAuthExpired), errors.Is(err, apierrors.ErrNoSession):
			fmt.Fprintln(os.Stderr, "Not logged in or session expired. Run: taskdesk login -email <email>")
		case errors.Is(err, errUsage):
			fmt.Fprint(os.Stderr, usage)
		default:
			log.Error().Err(err).Msg("Command failed")
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		return errUsage
	}

	c := config.New()
	setupLogging(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.close(); err != nil {
			log.Warn().Err(err).Msg("Closing session store")
		}
	}()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		displayAppname(c.GetAppName())
		return loginCmd(ctx, svc, rest)
	case "logout":
		return logoutCmd(ctx, svc)
	case "whoami":
		return whoamiCmd(ctx, svc)
	case "tasks":
		return tasksCmd(ctx, svc, rest)
	case "stats":
		return statsCmd(ctx, svc, rest)
	case "notifications":
		return notificationsCmd(ctx, svc, rest)
	case "users":
		return usersCmd(ctx, svc, rest)
	}
	return errUsage
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
