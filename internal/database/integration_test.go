package database

import (
	"context"
	"os"
	"testing"
)

func setupTestDB(t *testing.T, dbPath string) *DB {
	t.Helper()

	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t, "test_integration.db")

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// Test that tables were created by migrations
	tables := []string{"users", "sessions", "groups", "group_members", "invites", "expenses", "expense_splits"}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t, "test_transactions.db")

	ctx := context.Background()

	// Test successful transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"test@example.com", "hashedpass", "Test User")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	// Test rollback
	tx2, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}

	_, err = tx2.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"test2@example.com", "hashedpass", "Second User")
	if err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}

	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestConditionalUsageClaim exercises the guarded UPDATE that enforces the
// invite usage cap at the database level.
func TestConditionalUsageClaim(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t, "test_usage_claim.db")

	userID, err := db.ExecReturningID(
		"INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"owner@example.com", "hashedpass", "Owner")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	groupID, err := db.ExecReturningID(
		"INSERT INTO groups (name, created_by) VALUES (?, ?)", "Trip", userID)
	if err != nil {
		t.Fatalf("Failed to insert group: %v", err)
	}

	_, err = db.Exec(
		"INSERT INTO invites (token, group_id, created_by, created_at, expires_at, max_uses, used_count) VALUES (?, ?, ?, datetime('now'), datetime('now', '+7 days'), ?, ?)",
		"claimtoken", groupID, userID, 2, 0)
	if err != nil {
		t.Fatalf("Failed to insert invite: %v", err)
	}

	claim := "UPDATE invites SET used_count = used_count + 1 WHERE token = ? AND used_count < max_uses"

	// Claims succeed until the cap is reached
	for i := 0; i < 2; i++ {
		result, err := db.Exec(claim, "claimtoken")
		if err != nil {
			t.Fatalf("Claim %d failed: %v", i+1, err)
		}
		affected, _ := result.RowsAffected()
		if affected != 1 {
			t.Fatalf("Claim %d affected %d rows, want 1", i+1, affected)
		}
	}

	// A third claim must not go through
	result, err := db.Exec(claim, "claimtoken")
	if err != nil {
		t.Fatalf("Third claim errored: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected != 0 {
		t.Errorf("Third claim affected %d rows, want 0", affected)
	}

	var usedCount int
	if err := db.QueryRow("SELECT used_count FROM invites WHERE token = ?", "claimtoken").Scan(&usedCount); err != nil {
		t.Fatalf("Failed to read used_count: %v", err)
	}
	if usedCount != 2 {
		t.Errorf("used_count = %d, want 2", usedCount)
	}
}

// TestConcurrentAccess tests concurrent database access
func TestConcurrentAccess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t, "test_concurrent.db")

	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"concurrent@example.com", "hashedpass", "Concurrent User")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			var name string
			err := db.QueryRowContext(ctx, "SELECT name FROM users WHERE email = ?", "concurrent@example.com").Scan(&name)
			if err != nil {
				t.Errorf("Concurrent read failed: %v", err)
			}
			if name != "Concurrent User" {
				t.Errorf("Expected name 'Concurrent User', got '%s'", name)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
