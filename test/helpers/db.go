// Package helpers provides shared test fixtures.
package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/reconfigmanus/mes-go/internal/infrastructure/database"
)

// NewTestDB opens an in-memory SQLite database scoped to the test
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	return db
}
