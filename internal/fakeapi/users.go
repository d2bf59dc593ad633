package fakeapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/go-task-client/internal/utils"
	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/tasks"
	"github.com/jrsteele09/go-task-client/users"
)

type account struct {
	user         users.User
	passwordHash string
}

func (a *account) isAdmin() bool {
	return a.user.Role == sessions.RoleAdmin || a.user.Role == sessions.RoleAdminGeneral
}

func (a *account) ref() *tasks.UserRef {
	return &tasks.UserRef{ID: a.user.ID, Username: a.user.Username, Email: a.user.Email, Role: a.user.Role}
}

// view is the user as the API reports it: role echoed as role_display and
// write-only fields removed.
func (a *account) view() users.User {
	u := a.user
	u.RoleDisplay = u.Role
	u.Role = ""
	u.Password = ""
	u.AssignedToID = nil
	return u
}

// AddUser registers an active user and returns it with its assigned ID.
func (s *Server) AddUser(username, email, password string, role sessions.Role) users.User {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := &account{
		user: users.User{
			ID:       s.newID(),
			Username: username,
			Email:    email,
			Role:     role,
			IsActive: true,
		},
		passwordHash: hash,
	}
	s.users[a.user.ID] = a
	return a.user
}

// AssignEmployee makes employeeID report to adminID.
func (s *Server) AssignEmployee(employeeID, adminID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[employeeID].user.AssignedTo = &adminID
}

// accountByEmail finds a user case-insensitively. Callers hold s.mu.
func (s *Server) accountByEmail(email string) *account {
	for _, a := range s.users {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if !me.isAdmin() {
		forbidden(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]users.User, 0, len(s.users))
	for _, a := range s.users {
		visible := me.user.Role == sessions.RoleAdminGeneral ||
			a.user.ID == me.user.ID ||
			utils.Value(a.user.AssignedTo) == me.user.ID
		if visible {
			list = append(list, a.view())
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if caller(r).user.Role != sessions.RoleAdminGeneral {
		forbidden(w)
		return
	}
	var in users.User
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"username, email y password son obligatorios"}})
		return
	}
	if in.Role == "" {
		in.Role = sessions.RoleEmployee
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountByEmail(in.Email) != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Ya existe un usuario con este email."}})
		return
	}
	a := &account{
		user: users.User{
			ID:         s.newID(),
			Username:   in.Username,
			Email:      in.Email,
			Role:       in.Role,
			IsActive:   true,
			AssignedTo: in.AssignedToID,
		},
		passwordHash: hash,
	}
	s.users[a.user.ID] = a
	writeJSON(w, http.StatusCreated, a.view())
}

type userPatch struct {
	Username     *string        `json:"username"`
	Email        *string        `json:"email"`
	Role         *sessions.Role `json:"role"`
	IsActive     *bool          `json:"is_active"`
	Password     *string        `json:"password"`
	AssignedToID *int           `json:"assigned_to_id"`
}

func (s *Server) handleReplaceUser(w http.ResponseWriter, r *http.Request) {
	var in users.User
	if !decodeJSON(w, r, &in) {
		return
	}
	p := userPatch{Username: &in.Username, Email: &in.Email, IsActive: &in.IsActive, AssignedToID: in.AssignedToID}
	if in.Role != "" {
		p.Role = &in.Role
	}
	if in.Password != "" {
		p.Password = &in.Password
	}
	s.updateUser(w, r, p)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var p userPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	s.updateUser(w, r, p)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request, p userPatch) {
	if caller(r).user.Role != sessions.RoleAdminGeneral {
		forbidden(w)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var hash string
	if p.Password != nil {
		var err error
		if hash, err = hashPassword(*p.Password); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		notFound(w)
		return
	}
	if p.Username != nil {
		a.user.Username = *p.Username
	}
	if p.Email != nil {
		a.user.Email = *p.Email
	}
	if p.Role != nil {
		a.user.Role = *p.Role
	}
	if p.IsActive != nil {
		a.user.IsActive = *p.IsActive
	}
	if p.AssignedToID != nil {
		a.user.AssignedTo = p.AssignedToID
	}
	if hash != "" {
		a.passwordHash = hash
	}
	writeJSON(w, http.StatusOK, a.view())
}
