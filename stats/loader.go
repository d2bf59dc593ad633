package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-task-client/internal/config"
	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/tasks"
)

// Dashboard is everything the dashboard view shows, computed from a single
// fetch of the task list.
type Dashboard struct {
	Summary  Summary                      `json:"summary"`
	Status   StatusBreakdown              `json:"status"`
	Monthly  []MonthCount                 `json:"monthly"`
	Upcoming []UpcomingTask               `json:"upcoming"`
	Unread   []notifications.Notification `json:"unread"`
	AsOf     time.Time                    `json:"as_of"`
}

type Loader struct {
	tasks         *tasks.Service
	notifications *notifications.Service
	window        time.Duration
	nowTime       func() time.Time
}

type LoaderOption func(*Loader)

// WithNowTime overrides the clock, for tests
func WithNowTime(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.nowTime = now
	}
}

func NewLoader(t *tasks.Service, n *notifications.Service, cfg config.APIConfig, opts ...LoaderOption) *Loader {
	l := &Loader{
		tasks:         t,
		notifications: n,
		window:        cfg.GetUpcomingWindow(),
		nowTime:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dashboard fetches tasks and unread notifications concurrently and derives
// every dashboard figure from them.
func (l *Loader) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		list   []tasks.Task
		unread []notifications.Notification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = l.tasks.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = l.notifications.Unread(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("[stats Dashboard] %w", err)
	}

	now := l.nowTime()
	return &Dashboard{
		Summary:  Summarize(list, now, l.window),
		Status:   BreakdownByStatus(list, now),
		Monthly:  MonthlyPriority(list),
		Upcoming: UpcomingDue(list, now, l.window),
		Unread:   unread,
		AsOf:     now,
	}, nil
}
