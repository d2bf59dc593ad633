package fakeapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/tasks"
)

// AddNotification stores an unread notification for userID.
func (s *Server) AddNotification(userID, taskID int, typ notifications.Type, message string) notifications.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.notify(userID, taskID, typ, message)
}

// Notifications returns userID's notifications, newest first.
func (s *Server) Notifications(userID int) []notifications.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notificationsOf(userID)
}

// Callers hold s.mu.
func (s *Server) notify(userID, taskID int, typ notifications.Type, message string) *notifications.Notification {
	n := &notifications.Notification{
		ID:        s.newID(),
		User:      userID,
		Task:      taskID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	s.notifications[n.ID] = n
	return n
}

// notifyInvolved notifies every user attached to the task except actor.
// Callers hold s.mu.
func (s *Server) notifyInvolved(actor *account, t *tasks.Task, typ notifications.Type, message string) {
	seen := map[int]bool{actor.user.ID: true}
	for _, ref := range []*tasks.UserRef{t.CreatedBy, t.AssignedTo, t.DelegatedTo} {
		if ref == nil || seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		s.notify(ref.ID, t.ID, typ, message)
	}
}

// Callers hold s.mu.
func (s *Server) notificationsOf(userID int) []notifications.Notification {
	list := make([]notifications.Notification, 0)
	for _, n := range s.notifications {
		if n.User == userID {
			list = append(list, *n)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.notificationsOf(caller(r).user.ID))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.User != caller(r).user.ID {
		notFound(w)
		return
	}
	n.IsRead = true
	writeJSON(w, http.StatusOK, map[string]string{"status": "marcada como leída"})
}
