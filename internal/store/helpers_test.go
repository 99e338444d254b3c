package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/roomies/internal/database"
	"github.com/dukerupert/roomies/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreateUser(t *testing.T, us *UserStore, username string) *model.User {
	t.Helper()
	u, err := us.Create(context.Background(), username, "hash-"+username)
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u
}
