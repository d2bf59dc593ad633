package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

const passwordEnv = "TASKDESK_PASSWORD"

var stdout io.Writer = os.Stdout

func loginCmd(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, or set "+passwordEnv)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" {
		return errUsage
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv(passwordEnv)
	}
	if pw == "" {
		var err error
		if pw, err = promptLine("Password: "); err != nil {
			return err
		}
	}

	s, err := svc.auth.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Logged in as %s (%s)\n", s.Username, s.Role)
	return nil
}

func logoutCmd(ctx context.Context, svc *services) error {
	if err := svc.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Logged out")
	return nil
}

func whoamiCmd(ctx context.Context, svc *services) error {
	s, err := svc.auth.HasRole(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s <%s>\nrole: %s\n", s.Username, s.Email, s.Role)
	if exp, ok := s.AccessExpiry(); ok {
		fmt.Fprintf(stdout, "access token expires: %s\n", exp.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func tasksCmd(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ContinueOnError)
	status := fs.String("status", "", "only tasks with this status")
	mine := fs.Bool("mine", false, "only tasks currently assigned to me")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *status != "" && !tasks.Status(*status).Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}

	list, err := svc.tasks.List(ctx)
	if err != nil {
		return err
	}
	var me string
	if *mine {
		s, err := svc.auth.CurrentSession(ctx)
		if err != nil {
			return err
		}
		me = s.Username
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\tASSIGNEE")
	for _, t := range list {
		if *status != "" && t.Status != tasks.Status(*status) {
			continue
		}
		assignee := "-"
		if a := t.Assignee(); a != nil {
			assignee = a.Username
		}
		if me != "" && assignee != me {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Status, t.Priority, t.DueDate, assignee)
	}
	return w.Flush()
}

func statsCmd(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the full dashboard as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	d, err := svc.stats.Dashboard(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	s := d.Summary
	fmt.Fprintf(stdout, "Total %d  Active %d  Overdue %d  Upcoming %d  Completed %d\n",
		s.Total, s.Active, s.Overdue, s.Upcoming, s.Completed)
	fmt.Fprintf(stdout, "Unread notifications: %d\n", len(d.Unread))

	if len(d.Upcoming) > 0 {
		fmt.Fprintln(stdout, "\nDue soon:")
		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		for _, u := range d.Upcoming {
			fmt.Fprintf(w, "  %d\t%s\t%s\tin %d day(s)\n", u.ID, u.Title, u.Priority, u.DaysLeft)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(d.Monthly) > 0 {
		fmt.Fprintln(stdout, "\nBy month (alta/media/baja):")
		for _, m := range d.Monthly {
			fmt.Fprintf(stdout, "  %s  %d/%d/%d\n", m.Month.Format("2006-01"), m.High, m.Medium, m.Low)
		}
	}
	return nil
}

func notificationsCmd(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	readAll := fs.Bool("read-all", false, "mark every unread notification as read")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	if *readAll {
		n, err := svc.notifications.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Marked %d notification(s) as read\n", n)
		return nil
	}

	list, err := svc.notifications.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, n := range list {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Type, n.Message)
	}
	return w.Flush()
}

func usersCmd(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	role := fs.String("role", "", "only users with this role")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *role != "" && !sessions.Role(*role).Valid() {
		return fmt.Errorf("unknown role %q", *role)
	}

	list, err := svc.users.List(ctx)
	if err != nil {
		return err
	}
	if *role != "" {
		list = users.WithRole(list, sessions.Role(*role))
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tACTIVE")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.Email, u.EffectiveRole(), u.IsActive)
	}
	return w.Flush()
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
