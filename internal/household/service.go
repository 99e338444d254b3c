// Package household creates and joins households. A household exists while
// at least one user belongs to it; moving its last member elsewhere frees
// the name.
package household

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/model"
	"github.com/dukerupert/roomies/internal/store"
)

const (
	ActionCreate = "create"
	ActionJoin   = "join"
)

type Service struct {
	users      *store.UserStore
	households *store.HouseholdStore
}

func NewService(users *store.UserStore, households *store.HouseholdStore) *Service {
	return &Service{users: users, households: households}
}

// Create registers a new household named name with userID as its first
// member.
func (s *Service) Create(ctx context.Context, name string, userID int64) error {
	exists, err := s.households.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check household: %w", err)
	}
	if exists {
		return apperr.Conflict("Household with this name already exists")
	}

	_, err = s.households.Create(ctx, name, userID)
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Conflict("Household with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("create household: %w", err)
	}
	return nil
}

// Join moves userID into an existing household.
func (s *Service) Join(ctx context.Context, name string, userID int64) error {
	exists, err := s.households.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("check household: %w", err)
	}
	if !exists {
		return apperr.NotFound("Household with this name does not exist")
	}
	if err := s.users.SetHousehold(ctx, userID, name); err != nil {
		return fmt.Errorf("join household: %w", err)
	}
	return nil
}

// Apply runs the create or join action submitted from the no-household
// form and returns the user's household as stored afterwards.
func (s *Service) Apply(ctx context.Context, action, name string, userID int64) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("Must provide household name")
	}

	var err error
	switch action {
	case ActionCreate:
		err = s.Create(ctx, name, userID)
	case ActionJoin:
		err = s.Join(ctx, name, userID)
	default:
		return "", apperr.Validation("Invalid action selected")
	}
	if err != nil {
		return "", err
	}

	household, err := s.users.Household(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("reload household: %w", err)
	}
	return household, nil
}

// Members lists the users of a household ordered by username.
func (s *Service) Members(ctx context.Context, name string) ([]model.User, error) {
	members, err := s.households.ListMembers(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
