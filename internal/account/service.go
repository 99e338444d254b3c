// Package account registers users and checks their credentials.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/model"
	"github.com/dukerupert/roomies/internal/store"
)

const msgBadCredentials = "invalid username and/or password"

type Service struct {
	users      *store.UserStore
	households *store.HouseholdStore
	cost       int
}

func NewService(users *store.UserStore, households *store.HouseholdStore) *Service {
	return &Service{users: users, households: households, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy of s hashing at the given bcrypt cost. Tests use
// bcrypt.MinCost to stay fast.
func (s *Service) WithCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

// Register creates a user and returns its id. Checks run in a fixed order:
// username present, username free, password and confirmation present, equal.
func (s *Service) Register(ctx context.Context, username, password, confirmation string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, apperr.Validation("Please provide username")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return 0, apperr.Conflict("Username already exists")
	}

	if password == "" || confirmation == "" {
		return 0, apperr.Validation("Please provide password & confirmation")
	}
	if password != confirmation {
		return 0, apperr.Validation("Password does not equal confirmation")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return 0, apperr.Validation("Password is too long")
	}
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, username, string(hash))
	if errors.Is(err, store.ErrDuplicate) {
		return 0, apperr.Conflict("Username already exists")
	}
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return u.ID, nil
}

// Verify returns the id of the user whose password matches. Unknown users
// and wrong passwords get the same AUTH error.
func (s *Service) Verify(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, apperr.Auth("must provide username")
	}
	if password == "" {
		return 0, apperr.Auth("must provide password")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return 0, apperr.Auth(msgBadCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return 0, apperr.Auth(msgBadCredentials)
	}
	return u.ID, nil
}

// SetHousehold points the user at an existing household, replacing any
// previous one.
func (s *Service) SetHousehold(ctx context.Context, userID int64, name string) error {
	if err := s.users.SetHousehold(ctx, userID, name); err != nil {
		return fmt.Errorf("set household: %w", err)
	}
	return nil
}

func (s *Service) HouseholdExists(ctx context.Context, name string) (bool, error) {
	return s.households.Exists(ctx, name)
}

// Household returns the user's household as currently stored.
func (s *Service) Household(ctx context.Context, userID int64) (string, error) {
	return s.users.Household(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return u, nil
}
