// Package fakeapi is an in-memory implementation of the task API used by the
// client tests. It issues real HS256 tokens, rotates nothing, and exposes
// hooks to break or slow down the refresh endpoint.
package fakeapi

import (
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-task-client/notifications"
	"github.com/jrsteele09/go-task-client/tasks"
)

const (
	BasePath  = "/api/"
	MediaPath = "/media/attachments/"

	defaultAccessTTL = 5 * time.Minute
)

// RecordedRequest is what the fake saw of one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type Server struct {
	mu sync.Mutex

	signingKey []byte
	accessTTL  time.Duration

	users         map[int]*account
	access        map[string]int // live access token -> user id
	refresh       map[string]int // refresh token -> user id
	tasks         map[int]*tasks.Task
	comments      map[int]*tasks.Comment
	attachments   map[int]*storedAttachment
	notifications map[int]*notifications.Notification
	nextID        int

	requests []RecordedRequest

	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
	rejectAccess atomic.Bool
	refreshDelay atomic.Int64
}

type Option func(*Server)

// WithAccessTTL sets the lifetime of issued access tokens. A negative value
// issues tokens that are already expired.
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

func New(opts ...Option) *Server {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	s := &Server{
		signingKey:    key,
		accessTTL:     defaultAccessTTL,
		users:         make(map[int]*account),
		access:        make(map[string]int),
		refresh:       make(map[string]int),
		tasks:         make(map[int]*tasks.Task),
		comments:      make(map[int]*tasks.Comment),
		attachments:   make(map[int]*storedAttachment),
		notifications: make(map[int]*notifications.Notification),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves the fake on a local listener for the duration of the test and
// returns its origin, e.g. "http://127.0.0.1:41234".
func (s *Server) Start(t testing.TB) string {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST "+BasePath+"token/email/", s.handleLogin)
	mux.HandleFunc("POST "+BasePath+"token/refresh/", s.handleRefresh)

	mux.HandleFunc("GET "+BasePath+"tasks/", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST "+BasePath+"tasks/", s.requireAuth(s.handleCreateTask))
	mux.HandleFunc("GET "+BasePath+"tasks/{id}/", s.requireAuth(s.handleGetTask))
	mux.HandleFunc("PUT "+BasePath+"tasks/{id}/", s.requireAuth(s.handleReplaceTask))
	mux.HandleFunc("PATCH "+BasePath+"tasks/{id}/", s.requireAuth(s.handlePatchTask))
	mux.HandleFunc("DELETE "+BasePath+"tasks/{id}/", s.requireAuth(s.handleDeleteTask))
	mux.HandleFunc("PATCH "+BasePath+"tasks/{id}/status/", s.requireAuth(s.handleTaskStatus))
	mux.HandleFunc("POST "+BasePath+"tasks/{id}/delegate/", s.requireAuth(s.handleDelegateTask))

	mux.HandleFunc("POST "+BasePath+"comments/", s.requireAuth(s.handleCreateComment))
	mux.HandleFunc("POST "+BasePath+"attachments/", s.requireAuth(s.handleUploadAttachment))
	mux.HandleFunc("DELETE "+BasePath+"attachments/{id}/", s.requireAuth(s.handleDeleteAttachment))
	mux.HandleFunc("GET "+MediaPath+"{name}", s.requireAuth(s.handleDownloadAttachment))

	mux.HandleFunc("GET "+BasePath+"users/", s.requireAuth(s.handleListUsers))
	mux.HandleFunc("POST "+BasePath+"users/", s.requireAuth(s.handleCreateUser))
	mux.HandleFunc("PUT "+BasePath+"users/{id}/", s.requireAuth(s.handleReplaceUser))
	mux.HandleFunc("PATCH "+BasePath+"users/{id}/", s.requireAuth(s.handlePatchUser))

	mux.HandleFunc("GET "+BasePath+"notifications/", s.requireAuth(s.handleListNotifications))
	mux.HandleFunc("POST "+BasePath+"notifications/{id}/mark-read/", s.requireAuth(s.handleMarkRead))

	return s.recordRequests(mux)
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo filters Requests by method and path.
func (s *Server) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// RefreshCalls counts requests that reached the refresh endpoint.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// FailRefresh makes the refresh endpoint reject every refresh token.
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// SetRefreshDelay holds each refresh for d before answering.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.refreshDelay.Store(int64(d))
}

// RejectAccess makes every authenticated endpoint answer 401 regardless of
// the token presented, while login and refresh keep working.
func (s *Server) RejectAccess(reject bool) {
	s.rejectAccess.Store(reject)
}

// RevokeAccess invalidates one access token, as if it had expired.
func (s *Server) RevokeAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, token)
}

// RevokeAllAccess invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) RevokeAllAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.access)
}

func (s *Server) newID() int {
	s.nextID++
	return s.nextID
}
