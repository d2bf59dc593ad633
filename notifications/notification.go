package notifications

import "time"

// Type says which event produced the notification
type Type string

const (
	TypeNewTask    Type = "nueva"       // A task was assigned to the user
	TypeDelegation Type = "delegacion"  // A task was delegated to or by the user
	TypeStatus     Type = "estado"      // A task the user is involved in changed status
	TypeComment    Type = "comentario"  // Someone commented on the user's task
	TypeDueSoon    Type = "vencimiento" // A task is close to its due date
	TypeAttachment Type = "archivo"     // A file was attached to the user's task
	TypeError      Type = "error"       // The API failed to email someone on the user's behalf
)

type Notification struct {
	ID        int       `json:"id"`
	User      int       `json:"user"`
	Task      int       `json:"task"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Unread filters out notifications already marked as read, keeping order
func Unread(list []Notification) []Notification {
	unread := make([]Notification, 0, len(list))
	for _, n := range list {
		if !n.IsRead {
			unread = append(unread, n)
		}
	}
	return unread
}
