// Package stats derives the dashboard figures from a list of tasks. All
// comparisons are by calendar day in the local time zone.
package stats

import (
	"sort"
	"time"

	"github.com/jrsteele09/go-task-client/tasks"
)

// DefaultWindow is how far ahead a due date counts as upcoming
const DefaultWindow = 7 * 24 * time.Hour

type Summary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`    // Open and not yet due
	Overdue   int `json:"overdue"`   // Not completed and past due
	Upcoming  int `json:"upcoming"`  // Active and due within the window
	Completed int `json:"completed"` // Status completada
}

// Summarize counts tasks for the dashboard cards. Tasks without a due date
// count towards Total and, when open, Active.
func Summarize(list []tasks.Task, now time.Time, window time.Duration) Summary {
	windowDays := days(window)
	var s Summary
	for _, t := range list {
		s.Total++
		if t.Status == tasks.StatusCompleted {
			s.Completed++
			continue
		}
		if t.DueDate.IsZero() {
			if t.Status.Open() {
				s.Active++
			}
			continue
		}
		left := t.DueDate.DaysUntil(now)
		if left < 0 {
			s.Overdue++
			continue
		}
		if t.Status.Open() {
			s.Active++
			if left <= windowDays {
				s.Upcoming++
			}
		}
	}
	return s
}

// StatusBreakdown splits tasks into three disjoint groups
type StatusBreakdown struct {
	Completed int `json:"completed"`
	Active    int `json:"active"`
	Overdue   int `json:"overdue"`
}

func BreakdownByStatus(list []tasks.Task, now time.Time) StatusBreakdown {
	var b StatusBreakdown
	for _, t := range list {
		switch {
		case t.Status == tasks.StatusCompleted:
			b.Completed++
		case !t.DueDate.IsZero() && t.DueDate.DaysUntil(now) < 0:
			b.Overdue++
		default:
			b.Active++
		}
	}
	return b
}

// MonthCount is the number of tasks of each priority due in one month.
type MonthCount struct {
	Month  time.Time `json:"month"` // First day of the month
	High   int       `json:"alta"`
	Medium int       `json:"media"`
	Low    int       `json:"baja"`
}

func (m MonthCount) Total() int {
	return m.High + m.Medium + m.Low
}

// MonthlyPriority groups tasks by the month of their due date. Only months
// with at least one task of a known priority are returned, oldest first.
func MonthlyPriority(list []tasks.Task) []MonthCount {
	byMonth := make(map[time.Time]*MonthCount)
	for _, t := range list {
		if t.DueDate.IsZero() {
			continue
		}
		month := time.Date(t.DueDate.Year(), t.DueDate.Month(), 1, 0, 0, 0, 0, t.DueDate.Location())
		mc, ok := byMonth[month]
		if !ok {
			mc = &MonthCount{Month: month}
			byMonth[month] = mc
		}
		switch t.Priority {
		case tasks.PriorityHigh:
			mc.High++
		case tasks.PriorityMedium:
			mc.Medium++
		case tasks.PriorityLow:
			mc.Low++
		}
	}

	out := make([]MonthCount, 0, len(byMonth))
	for _, mc := range byMonth {
		if mc.Total() > 0 {
			out = append(out, *mc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// UpcomingTask is a task with the whole days left until it is due.
type UpcomingTask struct {
	tasks.Task
	DaysLeft int `json:"due_in_days"`
}

// UpcomingDue lists tasks due today or within the window, soonest first.
// Completed tasks are included; ties keep the order of list.
func UpcomingDue(list []tasks.Task, now time.Time, window time.Duration) []UpcomingTask {
	windowDays := days(window)
	var out []UpcomingTask
	for _, t := range list {
		if t.DueDate.IsZero() {
			continue
		}
		left := t.DueDate.DaysUntil(now)
		if left >= 0 && left <= windowDays {
			out = append(out, UpcomingTask{Task: t, DaysLeft: left})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

func days(d time.Duration) int {
	if d <= 0 {
		d = DefaultWindow
	}
	return int(d / (24 * time.Hour))
}
