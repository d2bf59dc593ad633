package tasks

import (
	"time"

	"github.com/jrsteele09/go-task-client/sessions"
)

// Status is the progress state of a task
type Status string

const (
	StatusPending    Status = "pendiente"
	StatusInProgress Status = "en_progreso"
	StatusCompleted  Status = "completada"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Open reports whether work on the task is still outstanding
func (s Status) Open() bool {
	return s == StatusPending || s == StatusInProgress
}

type Priority string

const (
	PriorityLow    Priority = "baja"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
)

// Priorities lists every priority from highest to lowest
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// UserRef is the summary of a user embedded in tasks, comments and attachments
type UserRef struct {
	ID       int           `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email,omitempty"`
	Role     sessions.Role `json:"role,omitempty"`
}

// Task as returned by the API. Attachments are only populated by Get.
type Task struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	StartDate   Date         `json:"start_date"`
	DueDate     Date         `json:"due_date"`
	CreatedBy   *UserRef     `json:"created_by,omitempty"`   // Author of the task
	AssignedTo  *UserRef     `json:"assigned_to,omitempty"`  // Responsible admin
	DelegatedTo *UserRef     `json:"delegated_to,omitempty"` // Employee doing the work, when delegated
	DelegatedBy *UserRef     `json:"delegated_by,omitempty"` // Only set when the caller is the delegate
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Assignee returns the user currently doing the task: the delegate when
// there is one, otherwise the assigned admin.
func (t Task) Assignee() *UserRef {
	if t.DelegatedTo != nil {
		return t.DelegatedTo
	}
	return t.AssignedTo
}

// Input is the body for creating or fully replacing a task.
type Input struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        Status   `json:"status,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	StartDate     Date     `json:"start_date"`
	DueDate       Date     `json:"due_date"`
	AssignedToID  *int     `json:"assigned_to_id,omitempty"`  // Defaults to the caller on create
	DelegatedToID *int     `json:"delegated_to_id,omitempty"` // Ignored on create
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Status        *Status   `json:"status,omitempty"`
	Priority      *Priority `json:"priority,omitempty"`
	StartDate     *Date     `json:"start_date,omitempty"`
	DueDate       *Date     `json:"due_date,omitempty"`
	DelegatedToID *int      `json:"delegated_to_id,omitempty"`
}

type Attachment struct {
	ID         int       `json:"id"`
	Task       int       `json:"task"`
	File       string    `json:"file"` // URL of the stored file, absolute or relative to the API origin
	UploadedBy *UserRef  `json:"uploaded_by,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Comment struct {
	ID        int       `json:"id"`
	Task      int       `json:"task"`
	Message   string    `json:"message"`
	User      *UserRef  `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
