package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/roomies/internal/model"
)

// HouseholdStore keeps the set of household names. A household exists while
// some user references it; a row left without members is removed together
// with its shopping list.
type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.Name, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `name, created_at`

// Create registers the household name and makes userID its first member in
// a single transaction. It returns ErrDuplicate if the name is taken.
func (s *HouseholdStore) Create(ctx context.Context, name string, userID int64) (*model.Household, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	prev, err := currentHousehold(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	// A memberless row under this name is stale and must not block the insert.
	if err := pruneEmpty(ctx, tx, name); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO households (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("insert household %q: %w", name, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET household = ? WHERE id = ?`, name, userID); err != nil {
		return nil, fmt.Errorf("set creator household: %w", err)
	}
	if prev != name {
		if err := pruneEmpty(ctx, tx, prev); err != nil {
			return nil, err
		}
	}

	row := tx.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE name = ?`, name)
	h, err := scanHousehold(row)
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByName(ctx context.Context, name string) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE name = ?`, name)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// Exists reports whether any user belongs to the household.
func (s *HouseholdStore) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE household = ?)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("household exists: %w", err)
	}
	return exists, nil
}

// ListMembers returns the users of a household ordered by username.
func (s *HouseholdStore) ListMembers(ctx context.Context, name string) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE household = ? ORDER BY username ASC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *u)
	}
	return members, rows.Err()
}

func currentHousehold(ctx context.Context, tx *sql.Tx, userID int64) (string, error) {
	var household sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT household FROM users WHERE id = ?`, userID).Scan(&household)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("get current household: %w", err)
	}
	return household.String, nil
}

// pruneEmpty deletes the household row once no user references it. Cached
// session copies are cleared first; shopping items go by cascade.
func pruneEmpty(ctx context.Context, tx *sql.Tx, name string) error {
	if name == "" {
		return nil
	}
	var members bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE household = ?)`, name,
	).Scan(&members)
	if err != nil {
		return fmt.Errorf("count members: %w", err)
	}
	if members {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET household = NULL WHERE household = ?`, name); err != nil {
		return fmt.Errorf("clear session household: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM households WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete empty household: %w", err)
	}
	return nil
}
