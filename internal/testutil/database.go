package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/ndewijer/wealth-tracker/internal/database"
)

// SetupTestDB creates a SQLite database in a temporary directory with all
// migrations applied. The database is closed when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "wealth_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	return db
}
