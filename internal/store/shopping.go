package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/roomies/internal/model"
)

// ShoppingStore holds each household's shopping list. Every query is scoped
// by household so one household can never read or touch another's items.
type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var checkedBy, addedBy sql.NullInt64
	var checkedAt sql.NullTime
	var checked int

	err := scanner.Scan(
		&item.ID, &item.Household, &item.Name, &item.Quantity, &item.Category,
		&checked, &checkedBy, &checkedAt, &addedBy, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Checked = checked != 0
	if checkedBy.Valid {
		item.CheckedBy = &checkedBy.Int64
	}
	if checkedAt.Valid {
		item.CheckedAt = &checkedAt.Time
	}
	if addedBy.Valid {
		item.AddedBy = &addedBy.Int64
	}
	return &item, nil
}

const itemCols = `id, household, name, quantity, category, checked, checked_by, checked_at, added_by, created_at`

func (s *ShoppingStore) GetItem(ctx context.Context, household string, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM shopping_items WHERE id = ? AND household = ?`,
		id, household,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) CreateItem(ctx context.Context, household, name, quantity, category string, addedBy int64) (*model.ShoppingItem, error) {
	var aBy sql.NullInt64
	if addedBy != 0 {
		aBy = sql.NullInt64{Int64: addedBy, Valid: true}
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (household, name, quantity, category, added_by) VALUES (?, ?, ?, ?, ?)`,
		household, name, quantity, category, aBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(ctx, household, id)
}

// ListItems returns unchecked items first, grouped by category.
func (s *ShoppingStore) ListItems(ctx context.Context, household string) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemCols+` FROM shopping_items WHERE household = ? ORDER BY checked ASC, category ASC, created_at ASC, id ASC`,
		household,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ToggleChecked flips the checked state of an item. It returns nil if the
// item does not belong to the household.
func (s *ShoppingStore) ToggleChecked(ctx context.Context, household string, id, checkedBy int64) (*model.ShoppingItem, error) {
	item, err := s.GetItem(ctx, household, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	if item.Checked {
		_, err = s.db.ExecContext(ctx,
			`UPDATE shopping_items SET checked = 0, checked_by = NULL, checked_at = NULL WHERE id = ?`,
			id,
		)
	} else {
		var cBy sql.NullInt64
		if checkedBy != 0 {
			cBy = sql.NullInt64{Int64: checkedBy, Valid: true}
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE shopping_items SET checked = 1, checked_by = ?, checked_at = ? WHERE id = ?`,
			cBy, time.Now().UTC(), id,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle checked: %w", err)
	}
	return s.GetItem(ctx, household, id)
}

func (s *ShoppingStore) ClearChecked(ctx context.Context, household string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE household = ? AND checked = 1`,
		household,
	)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *ShoppingStore) CountUnchecked(ctx context.Context, household string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_items WHERE household = ? AND checked = 0`,
		household,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unchecked: %w", err)
	}
	return count, nil
}
