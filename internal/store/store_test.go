package store

import (
	"database/sql"
	"testing"

	"github.com/rowanfield/bramble/internal/database"
	"github.com/rowanfield/bramble/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedHousehold creates a user and a household with that user as admin.
func seedHousehold(t *testing.T, db *sql.DB) (householdID, userID int64) {
	t.Helper()
	u, err := NewUserStore(db).Create("owner@example.com", "Owner", "")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	hs := NewHouseholdStore(db)
	hh, err := hs.Create("Test Household")
	if err != nil {
		t.Fatalf("seed household: %v", err)
	}
	if _, err := hs.AddMember(hh.ID, u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return hh.ID, u.ID
}
