package notifications

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jrsteele09/go-task-client/apiclient"
)

const (
	notificationsPath = "notifications/"

	// markAllConcurrency bounds the parallel mark-read calls of MarkAllRead
	markAllConcurrency = 8
)

type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

// List returns the current user's notifications, newest first
func (s *Service) List(ctx context.Context) ([]Notification, error) {
	var list []Notification
	if err := s.api.Get(ctx, notificationsPath, &list); err != nil {
		return nil, fmt.Errorf("[notifications List] %w", err)
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s%d/mark-read/", notificationsPath, id)
	if err := s.api.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("[notifications MarkRead] %d: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread notification as read, issuing the calls in
// parallel. It returns the number marked; on error some may already be marked.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	list, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	unread := Unread(list)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(markAllConcurrency)
	for _, n := range unread {
		g.Go(func() error {
			return s.MarkRead(gctx, n.ID)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("[notifications MarkAllRead] %w", err)
	}
	return len(unread), nil
}

// Unread lists the notifications not yet marked as read
func (s *Service) Unread(ctx context.Context) ([]Notification, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Unread(list), nil
}
