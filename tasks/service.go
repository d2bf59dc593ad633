package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jrsteele09/go-task-client/apiclient"
	apierrors "github.com/jrsteele09/go-task-client/internal/errors"
)

const (
	// MaxAttachmentSize is the largest file the API accepts
	MaxAttachmentSize = 10 << 20

	tasksPath       = "tasks/"
	commentsPath    = "comments/"
	attachmentsPath = "attachments/"
)

// AllowedAttachmentExtensions are the file types the API accepts
var AllowedAttachmentExtensions = []string{
	".pdf", ".txt",
	".doc", ".docx",
	".xls", ".xlsx",
	".ppt", ".pptx",
	".jpg", ".jpeg", ".png",
}

// Service wraps the task, comment and attachment endpoints.
type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// List returns the tasks visible to the current user
func (s *Service) List(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := s.api.Get(ctx, tasksPath, &tasks); err != nil {
		return nil, fmt.Errorf("[tasks List] %w", err)
	}
	return tasks, nil
}

// Get returns one task including its attachments
func (s *Service) Get(ctx context.Context, id int) (*Task, error) {
	var t Task
	if err := s.api.Get(ctx, taskPath(id), &t); err != nil {
		return nil, fmt.Errorf("[tasks Get] %d: %w", id, err)
	}
	return &t, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Task, error) {
	if err := validateInput(in); err != nil {
		return nil, fmt.Errorf("[tasks Create] %w", err)
	}
	var t Task
	if err := s.api.Post(ctx, tasksPath, in, &t); err != nil {
		return nil, fmt.Errorf("[tasks Create] %w", err)
	}
	return &t, nil
}

// Update replaces every editable field of the task
func (s *Service) Update(ctx context.Context, id int, in Input) (*Task, error) {
	if err := validateInput(in); err != nil {
		return nil, fmt.Errorf("[tasks Update] %w", err)
	}
	var t Task
	if err := s.api.Put(ctx, taskPath(id), in, &t); err != nil {
		return nil, fmt.Errorf("[tasks Update] %d: %w", id, err)
	}
	return &t, nil
}

func (s *Service) Patch(ctx context.Context, id int, p Patch) (*Task, error) {
	if p.Status != nil && !p.Status.Valid() {
		return nil, fmt.Errorf("[tasks Patch] %w: status %q", apierrors.ErrInvalidRequest, *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return nil, fmt.Errorf("[tasks Patch] %w: priority %q", apierrors.ErrInvalidRequest, *p.Priority)
	}
	var t Task
	if err := s.api.Patch(ctx, taskPath(id), p, &t); err != nil {
		return nil, fmt.Errorf("[tasks Patch] %d: %w", id, err)
	}
	return &t, nil
}

type statusUpdate struct {
	Status Status `json:"status"`
}

// UpdateStatus uses the dedicated status endpoint, which employees may call
// on tasks delegated to them.
func (s *Service) UpdateStatus(ctx context.Context, id int, status Status) (Status, error) {
	if !status.Valid() {
		return "", fmt.Errorf("[tasks UpdateStatus] %w: status %q", apierrors.ErrInvalidRequest, status)
	}
	var out statusUpdate
	if err := s.api.Patch(ctx, taskPath(id)+"status/", statusUpdate{Status: status}, &out); err != nil {
		return "", fmt.Errorf("[tasks UpdateStatus] %d: %w", id, err)
	}
	return out.Status, nil
}

// Delegate hands the task to another user
func (s *Service) Delegate(ctx context.Context, id, userID int) error {
	body := map[string]int{"assigned_to": userID}
	if err := s.api.Post(ctx, taskPath(id)+"delegate/", body, nil); err != nil {
		return fmt.Errorf("[tasks Delegate] %d: %w", id, err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, taskPath(id)); err != nil {
		return fmt.Errorf("[tasks Delete] %d: %w", id, err)
	}
	return nil
}

func (s *Service) AddComment(ctx context.Context, taskID int, message string) (*Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("[tasks AddComment] %w: empty message", apierrors.ErrInvalidRequest)
	}
	body := struct {
		Task    int    `json:"task"`
		Message string `json:"message"`
	}{Task: taskID, Message: message}
	var c Comment
	if err := s.api.Post(ctx, commentsPath, body, &c); err != nil {
		return nil, fmt.Errorf("[tasks AddComment] %w", err)
	}
	return &c, nil
}

// UploadAttachment sends content as a multipart "file" field. Extension and
// size are checked locally against the API limits before anything is sent.
func (s *Service) UploadAttachment(ctx context.Context, taskID int, filename string, content io.Reader) (*Attachment, error) {
	if err := ValidateAttachmentName(filename); err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] read %s: %w", filename, err)
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w: %s exceeds %d bytes", apierrors.ErrInvalidRequest, filename, MaxAttachmentSize)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("task", fmt.Sprint(taskID)); err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}

	resp, err := s.api.Do(ctx, &apiclient.Request{
		Method: http.MethodPost,
		Path:   attachmentsPath,
		Header: http.Header{"Content-Type": {w.FormDataContentType()}},
		Body:   buf.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}

	var a Attachment
	if err := resp.Decode(&a); err != nil {
		return nil, fmt.Errorf("[tasks UploadAttachment] %w", err)
	}
	return &a, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, id int) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("%s%d/", attachmentsPath, id)); err != nil {
		return fmt.Errorf("[tasks DeleteAttachment] %d: %w", id, err)
	}
	return nil
}

// DownloadAttachment copies the attachment's file into w. Relative file URLs
// are resolved against the API base URL.
func (s *Service) DownloadAttachment(ctx context.Context, a Attachment, w io.Writer) (int64, error) {
	target, err := s.attachmentURL(a)
	if err != nil {
		return 0, fmt.Errorf("[tasks DownloadAttachment] %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("[tasks DownloadAttachment] %w", err)
	}
	resp, err := s.api.HTTPClient(ctx).Do(req)
	if err != nil {
		return 0, fmt.Errorf("[tasks DownloadAttachment] %w: %w", apierrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("[tasks DownloadAttachment] %w", &apierrors.HTTPError{StatusCode: resp.StatusCode, Body: body})
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("[tasks DownloadAttachment] %w: %w", apierrors.ErrNetwork, err)
	}
	return n, nil
}

func (s *Service) attachmentURL(a Attachment) (string, error) {
	if a.File == "" {
		return "", fmt.Errorf("%w: attachment %d has no file", apierrors.ErrInvalidRequest, a.ID)
	}
	ref, err := url.Parse(a.File)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apierrors.ErrInvalidRequest, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(s.api.BaseURL())
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// ValidateAttachmentName checks the extension against AllowedAttachmentExtensions
func ValidateAttachmentName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(AllowedAttachmentExtensions, ext) {
		return fmt.Errorf("%w: file type %q not allowed", apierrors.ErrInvalidRequest, ext)
	}
	return nil
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", apierrors.ErrInvalidRequest)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: status %q", apierrors.ErrInvalidRequest, in.Status)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", apierrors.ErrInvalidRequest, in.Priority)
	}
	if in.StartDate.IsZero() || in.DueDate.IsZero() {
		return fmt.Errorf("%w: start and due dates are required", apierrors.ErrInvalidRequest)
	}
	if in.DueDate.Before(in.StartDate.Time) {
		return fmt.Errorf("%w: due date before start date", apierrors.ErrInvalidRequest)
	}
	return nil
}

func taskPath(id int) string {
	return fmt.Sprintf("%s%d/", tasksPath, id)
}
