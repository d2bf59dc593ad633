package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/apiclient"
	"github.com/jrsteele09/go-task-client/internal/fakeapi"
	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/memstore"
	"github.com/jrsteele09/go-task-client/stats"
	"github.com/jrsteele09/go-task-client/tasks"
)

// 2024-05-20 is a Monday
var now = time.Date(2024, 5, 20, 15, 0, 0, 0, time.Local)

func dueIn(days int) tasks.Date {
	return tasks.NewDate(now.AddDate(0, 0, days))
}

func task(id int, status tasks.Status, priority tasks.Priority, due tasks.Date) tasks.Task {
	return tasks.Task{ID: id, Title: "t", Status: status, Priority: priority, DueDate: due}
}

func sampleTasks() []tasks.Task {
	return []tasks.Task{
		task(1, tasks.StatusPending, tasks.PriorityHigh, dueIn(0)),      // due today: active, upcoming
		task(2, tasks.StatusInProgress, tasks.PriorityMedium, dueIn(7)), // edge of window
		task(3, tasks.StatusPending, tasks.PriorityLow, dueIn(8)),       // active, beyond window
		task(4, tasks.StatusPending, tasks.PriorityHigh, dueIn(-1)),     // overdue
		task(5, tasks.StatusCompleted, tasks.PriorityLow, dueIn(-10)),   // completed late
		task(6, tasks.StatusCompleted, tasks.PriorityMedium, dueIn(3)),  // completed early
		task(7, tasks.StatusPending, tasks.PriorityMedium, tasks.Date{}),
	}
}

func TestSummarize(t *testing.T) {
	got := stats.Summarize(sampleTasks(), now, stats.DefaultWindow)
	require.Equal(t, stats.Summary{
		Total:     7,
		Active:    4,
		Overdue:   1,
		Upcoming:  2,
		Completed: 2,
	}, got)

	require.Equal(t, stats.Summary{}, stats.Summarize(nil, now, stats.DefaultWindow))

	narrow := stats.Summarize(sampleTasks(), now, 24*time.Hour)
	require.Equal(t, 1, narrow.Upcoming)
}

func TestBreakdownByStatusIsDisjoint(t *testing.T) {
	list := sampleTasks()
	got := stats.BreakdownByStatus(list, now)
	require.Equal(t, stats.StatusBreakdown{Completed: 2, Active: 4, Overdue: 1}, got)
	require.Equal(t, len(list), got.Completed+got.Active+got.Overdue)
}

func TestMonthlyPriority(t *testing.T) {
	march, _ := tasks.ParseDate("2024-03-05")
	june, _ := tasks.ParseDate("2024-06-30")
	juneEarly, _ := tasks.ParseDate("2024-06-01")
	list := []tasks.Task{
		task(1, tasks.StatusPending, tasks.PriorityHigh, june),
		task(2, tasks.StatusPending, tasks.PriorityLow, march),
		task(3, tasks.StatusPending, tasks.PriorityHigh, juneEarly),
		task(4, tasks.StatusPending, tasks.PriorityMedium, june),
		task(5, tasks.StatusPending, tasks.PriorityMedium, tasks.Date{}),
		task(6, tasks.StatusPending, "urgent", dueIn(200)),
	}

	got := stats.MonthlyPriority(list)
	require.Len(t, got, 2, "months without a known priority are dropped")

	require.Equal(t, time.March, got[0].Month.Month())
	require.Equal(t, 1, got[0].Low)
	require.Equal(t, 1, got[0].Total())

	require.Equal(t, time.June, got[1].Month.Month())
	require.Equal(t, 1, got[1].Month.Day())
	require.Equal(t, 2, got[1].High)
	require.Equal(t, 1, got[1].Medium)
	require.Zero(t, got[1].Low)
}

func TestUpcomingDue(t *testing.T) {
	got := stats.UpcomingDue(sampleTasks(), now, stats.DefaultWindow)

	ids := make([]int, len(got))
	left := make([]int, len(got))
	for i, u := range got {
		ids[i] = u.ID
		left[i] = u.DaysLeft
	}
	require.Equal(t, []int{1, 6, 2}, ids)
	require.Equal(t, []int{0, 3, 7}, left)
}

func TestLoaderDashboard(t *testing.T) {
	api := fakeapi.New()
	cfg := fakeapi.ClientConfig(api.Start(t))
	admin := api.AddUser("gabi", "gabi@example.com", "password123", sessions.RoleAdminGeneral)
	for _, tk := range sampleTasks() {
		tk.ID = 0
		api.AddTask(tk)
	}
	api.AddNotification(admin.ID, 1, notifications.TypeDueSoon, "Vence hoy")

	store := memstore.NewWithSession(sessions.Session{
		AccessToken:  api.AccessTokenFor(admin.ID),
		RefreshToken: api.RefreshTokenFor(admin.ID),
		Role:         sessions.RoleAdminGeneral,
	})
	client, err := apiclient.New(cfg, store, apiclient.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	loader := stats.NewLoader(tasks.NewService(client), notifications.NewService(client), cfg,
		stats.WithNowTime(func() time.Time { return now }))

	d, err := loader.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, d.Summary.Total)
	require.Equal(t, 1, d.Status.Overdue)
	require.Len(t, d.Upcoming, 3)
	require.Len(t, d.Unread, 1)
	require.NotEmpty(t, d.Monthly)
	require.Equal(t, now, d.AsOf)

	// A rejected token during the fan-out costs one shared refresh
	api.RevokeAllAccess()
	_, err = loader.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, api.RefreshCalls())
}
