package users

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-task-client/apiclient"
)

const usersPath = "users/"

// Service wraps the user administration endpoints.
type Service struct {
	api *apiclient.Client
}

func NewService(api *apiclient.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	var list []User
	if err := s.api.Get(ctx, usersPath, &list); err != nil {
		return nil, fmt.Errorf("[users List] %w", err)
	}
	return list, nil
}

// Create registers a new user. The API defaults the role to employee.
func (s *Service) Create(ctx context.Context, u User) (*User, error) {
	if err := validateForCreate(u); err != nil {
		return nil, fmt.Errorf("[users Create] %w", err)
	}
	var created User
	if err := s.api.Post(ctx, usersPath, u, &created); err != nil {
		return nil, fmt.Errorf("[users Create] %w", err)
	}
	return &created, nil
}

// Update replaces the user's fields. An empty Password keeps the current one.
func (s *Service) Update(ctx context.Context, id int, u User) (*User, error) {
	if err := validateForUpdate(u); err != nil {
		return nil, fmt.Errorf("[users Update] %w", err)
	}
	u.ID = 0
	var updated User
	if err := s.api.Put(ctx, fmt.Sprintf("%s%d/", usersPath, id), u, &updated); err != nil {
		return nil, fmt.Errorf("[users Update] %d: %w", id, err)
	}
	return &updated, nil
}

// SetActive toggles whether the user may log in
func (s *Service) SetActive(ctx context.Context, id int, active bool) (*User, error) {
	var updated User
	body := map[string]bool{"is_active": active}
	if err := s.api.Patch(ctx, fmt.Sprintf("%s%d/", usersPath, id), body, &updated); err != nil {
		return nil, fmt.Errorf("[users SetActive] %d: %w", id, err)
	}
	return &updated, nil
}
