package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/roomies/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var household sql.NullString
	err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &household, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Household = household.String
	return &u, nil
}

const userCols = `id, username, hash, household, created_at`

// Create inserts a user. It returns ErrDuplicate when the username is taken.
func (s *UserStore) Create(ctx context.Context, username, hash string) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, hash) VALUES (?, ?)`,
		username, hash,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert user %q: %w", username, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// SetHousehold overwrites the user's household. The household must already
// exist. The household the user leaves is removed if nobody is left in it.
func (s *UserStore) SetHousehold(ctx context.Context, id int64, household string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	prev, err := currentHousehold(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET household = ? WHERE id = ?`, household, id); err != nil {
		return fmt.Errorf("set household: %w", err)
	}
	if prev != household {
		if err := pruneEmpty(ctx, tx, prev); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Household returns the user's current household, or "" when unset.
func (s *UserStore) Household(ctx context.Context, id int64) (string, error) {
	var household sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT household FROM users WHERE id = ?`, id).Scan(&household)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get household: %w", err)
	}
	return household.String, nil
}
