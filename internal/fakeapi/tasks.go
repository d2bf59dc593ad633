package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/tasks"
)

type storedAttachment struct {
	meta    tasks.Attachment
	name    string
	content []byte
}

// AddTask stores t as given, assigning an ID and timestamps when missing.
func (s *Server) AddTask(t tasks.Task) tasks.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.newID()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	stored := t
	s.tasks[t.ID] = &stored
	return t
}

// Task returns the stored state of a task.
func (s *Server) Task(id int) (tasks.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return tasks.Task{}, false
	}
	return *t, true
}

// UserRef returns the embedded form of a registered user.
func (s *Server) UserRef(id int) *tasks.UserRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.users[id]; ok {
		return a.ref()
	}
	return nil
}

// canSee applies the API's visibility rules. Callers hold s.mu.
func canSee(a *account, t *tasks.Task) bool {
	switch a.user.Role {
	case sessions.RoleAdminGeneral:
		return true
	case sessions.RoleAdmin:
		return refIs(t.CreatedBy, a.user.ID) || refIs(t.AssignedTo, a.user.ID)
	default:
		return refIs(t.DelegatedTo, a.user.ID)
	}
}

func refIs(ref *tasks.UserRef, id int) bool {
	return ref != nil && ref.ID == id
}

// visibleTask looks up the path's task and writes 404 when the caller
// cannot see it. Callers hold s.mu.
func (s *Server) visibleTask(w http.ResponseWriter, r *http.Request, id int) (*tasks.Task, bool) {
	t, ok := s.tasks[id]
	if !ok || !canSee(caller(r), t) {
		notFound(w)
		return nil, false
	}
	return t, true
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]tasks.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if canSee(me, t) {
			summary := *t
			summary.Attachments = nil
			list = append(list, summary)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, id)
	if !ok {
		return
	}
	out := *t
	out.Attachments = s.attachmentsOf(id)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if !me.isAdmin() {
		forbidden(w)
		return
	}
	var in tasks.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"Este campo es requerido."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assignee := me
	if in.AssignedToID != nil {
		a, ok := s.users[*in.AssignedToID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"assigned_to_id": {"Usuario inválido."}})
			return
		}
		assignee = a
	}
	now := time.Now().UTC()
	t := &tasks.Task{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		CreatedBy:   me.ref(),
		AssignedTo:  assignee.ref(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = tasks.StatusPending
	}
	if t.Priority == "" {
		t.Priority = tasks.PriorityMedium
	}
	s.tasks[t.ID] = t
	s.notifyInvolved(me, t, notifications.TypeNewTask, fmt.Sprintf("Nueva tarea: %s", t.Title))
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleReplaceTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.Input
	if !decodeJSON(w, r, &in) {
		return
	}
	p := tasks.Patch{
		Title:         &in.Title,
		Description:   &in.Description,
		StartDate:     &in.StartDate,
		DueDate:       &in.DueDate,
		DelegatedToID: in.DelegatedToID,
	}
	if in.Status != "" {
		p.Status = &in.Status
	}
	if in.Priority != "" {
		p.Priority = &in.Priority
	}
	s.updateTask(w, r, p)
}

func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request) {
	var p tasks.Patch
	if !decodeJSON(w, r, &p) {
		return
	}
	s.updateTask(w, r, p)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, p tasks.Patch) {
	me := caller(r)
	if !me.isAdmin() {
		forbidden(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, id)
	if !ok {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.DelegatedToID != nil {
		a, ok := s.users[*p.DelegatedToID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"delegated_to_id": {"Usuario inválido."}})
			return
		}
		t.DelegatedTo = a.ref()
		t.DelegatedBy = me.ref()
	}
	t.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if !caller(r).isAdmin() {
		forbidden(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visibleTask(w, r, id); !ok {
		return
	}
	delete(s.tasks, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status tasks.Status `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if !body.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Estado inválido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, id)
	if !ok {
		return
	}
	t.Status = body.Status
	t.UpdatedAt = time.Now().UTC()
	s.notifyInvolved(caller(r), t, notifications.TypeStatus, fmt.Sprintf("La tarea %q cambió a %s", t.Title, t.Status))
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDelegateTask(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if !me.isAdmin() {
		forbidden(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		AssignedTo int `json:"assigned_to"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, id)
	if !ok {
		return
	}
	target, ok := s.users[body.AssignedTo]
	if !ok || target.user.Role != sessions.RoleEmployee {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Solo se puede delegar a empleados"})
		return
	}
	t.DelegatedTo = target.ref()
	t.DelegatedBy = me.ref()
	t.UpdatedAt = time.Now().UTC()
	s.notifyInvolved(me, t, notifications.TypeDelegation, fmt.Sprintf("Tarea delegada: %s", t.Title))
	writeDetail(w, http.StatusOK, "Tarea delegada correctamente")
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var in tasks.Comment
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"message": {"Este campo es requerido."}})
		return
	}

	me := caller(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, in.Task)
	if !ok {
		return
	}
	c := &tasks.Comment{
		ID:        s.newID(),
		Task:      t.ID,
		Message:   in.Message,
		User:      me.ref(),
		CreatedAt: time.Now().UTC(),
	}
	s.comments[c.ID] = c
	s.notifyInvolved(me, t, notifications.TypeComment, fmt.Sprintf("Nuevo comentario en %q", t.Title))
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(tasks.MaxAttachmentSize + 1<<20); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	taskID, err := strconv.Atoi(r.FormValue("task"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"task": {"Tarea inválida."}})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"file": {"No se envió ningún archivo."}})
		return
	}
	defer file.Close()
	if err := tasks.ValidateAttachmentName(header.Filename); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"file": {"Tipo de archivo no permitido."}})
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(content) > tasks.MaxAttachmentSize {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"file": {"El archivo supera los 10 MB."}})
		return
	}

	me := caller(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.visibleTask(w, r, taskID)
	if !ok {
		return
	}
	id := s.newID()
	name := fmt.Sprintf("%d_%s", id, filepath.Base(header.Filename))
	a := &storedAttachment{
		meta: tasks.Attachment{
			ID:         id,
			Task:       t.ID,
			File:       MediaPath + name,
			UploadedBy: me.ref(),
			UploadedAt: time.Now().UTC(),
		},
		name:    name,
		content: content,
	}
	s.attachments[id] = a
	s.notifyInvolved(me, t, notifications.TypeAttachment, fmt.Sprintf("Nuevo archivo en %q", t.Title))
	writeJSON(w, http.StatusCreated, a.meta)
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		notFound(w)
		return
	}
	if _, ok := s.visibleTask(w, r, a.meta.Task); !ok {
		return
	}
	delete(s.attachments, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownloadAttachment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attachments {
		if a.name != name {
			continue
		}
		if _, ok := s.visibleTask(w, r, a.meta.Task); !ok {
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(a.content)
		return
	}
	notFound(w)
}

// attachmentsOf lists a task's attachments by ID. Callers hold s.mu.
func (s *Server) attachmentsOf(taskID int) []tasks.Attachment {
	var out []tasks.Attachment
	for _, a := range s.attachments {
		if a.meta.Task == taskID {
			out = append(out, a.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
