package repository

import (
	"errors"
	"os"
	"testing"
	"time"

	"equishare/internal/database"
	"equishare/internal/models"
)

func setupInviteTest(t *testing.T, dbPath string) (*InviteRepository, int64, int64) {
	t.Helper()

	db, err := database.Initialize(dbPath)
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

	userID, err := db.ExecReturningID(
		"INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"alice@example.com", "hashedpass", "Alice")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	groupID, err := db.ExecReturningID(
		"INSERT INTO groups (name, created_by) VALUES (?, ?)", "Ski Trip", userID)
	if err != nil {
		t.Fatalf("Failed to insert group: %v", err)
	}

	return NewInviteRepository(db), userID, groupID
}

func TestInviteCreateAndGetByToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, userID, groupID := setupInviteTest(t, "test_invite_create.db")

	now := time.Now().UTC()
	created, err := repo.Create(&models.Invite{
		Token:     "tok-create",
		GroupID:   groupID,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		MaxUses:   5,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() did not assign an ID")
	}
	if created.UsedCount != 0 {
		t.Errorf("UsedCount = %d, want 0", created.UsedCount)
	}

	fetched, err := repo.GetByToken("tok-create")
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if fetched == nil {
		t.Fatal("GetByToken() returned nil for existing invite")
	}
	if fetched.InviterName != "Alice" {
		t.Errorf("InviterName = %q, want %q", fetched.InviterName, "Alice")
	}
	if fetched.GroupName != "Ski Trip" {
		t.Errorf("GroupName = %q, want %q", fetched.GroupName, "Ski Trip")
	}
	if fetched.MaxUses != 5 {
		t.Errorf("MaxUses = %d, want 5", fetched.MaxUses)
	}

	missing, err := repo.GetByToken("no-such-token")
	if err != nil {
		t.Fatalf("GetByToken() for missing token error = %v", err)
	}
	if missing != nil {
		t.Error("GetByToken() for missing token should return nil")
	}
}

func TestInviteCreateDuplicateToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, userID, groupID := setupInviteTest(t, "test_invite_dup.db")

	now := time.Now().UTC()
	invite := &models.Invite{
		Token:     "tok-dup",
		GroupID:   groupID,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		MaxUses:   5,
	}

	if _, err := repo.Create(invite); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := repo.Create(invite)
	if !errors.Is(err, ErrDuplicateToken) {
		t.Errorf("second Create() error = %v, want %v", err, ErrDuplicateToken)
	}
}

func TestInviteIncrementUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, userID, groupID := setupInviteTest(t, "test_invite_increment.db")

	now := time.Now().UTC()
	_, err := repo.Create(&models.Invite{
		Token:     "tok-inc",
		GroupID:   groupID,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		MaxUses:   2,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	claimed, err := repo.IncrementUsage("tok-inc", now)
	if err != nil {
		t.Fatalf("first IncrementUsage() error = %v", err)
	}
	if claimed.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", claimed.UsedCount)
	}

	claimed, err = repo.IncrementUsage("tok-inc", now)
	if err != nil {
		t.Fatalf("second IncrementUsage() error = %v", err)
	}
	if claimed.UsedCount != 2 {
		t.Errorf("UsedCount = %d, want 2", claimed.UsedCount)
	}

	_, err = repo.IncrementUsage("tok-inc", now)
	if !errors.Is(err, ErrInviteExhausted) {
		t.Errorf("third IncrementUsage() error = %v, want %v", err, ErrInviteExhausted)
	}
}

func TestInviteIncrementUsageExpired(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, userID, groupID := setupInviteTest(t, "test_invite_expired.db")

	now := time.Now().UTC()
	_, err := repo.Create(&models.Invite{
		Token:     "tok-exp",
		GroupID:   groupID,
		CreatedBy: userID,
		CreatedAt: now.Add(-8 * 24 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
		MaxUses:   5,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = repo.IncrementUsage("tok-exp", now)
	if !errors.Is(err, ErrInviteExpired) {
		t.Errorf("IncrementUsage() error = %v, want %v", err, ErrInviteExpired)
	}
}

func TestInviteIncrementUsageUnknownToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, _, _ := setupInviteTest(t, "test_invite_unknown.db")

	_, err := repo.IncrementUsage("no-such-token", time.Now().UTC())
	if !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("IncrementUsage() error = %v, want %v", err, ErrInviteNotFound)
	}
}

func TestInviteDecrementUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo, userID, groupID := setupInviteTest(t, "test_invite_decrement.db")

	now := time.Now().UTC()
	_, err := repo.Create(&models.Invite{
		Token:     "tok-dec",
		GroupID:   groupID,
		CreatedBy: userID,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		MaxUses:   3,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := repo.IncrementUsage("tok-dec", now); err != nil {
		t.Fatalf("IncrementUsage() error = %v", err)
	}

	if err := repo.DecrementUsage("tok-dec"); err != nil {
		t.Fatalf("DecrementUsage() error = %v", err)
	}

	invite, err := repo.GetByToken("tok-dec")
	if err != nil {
		t.Fatalf("GetByToken() error = %v", err)
	}
	if invite.UsedCount != 0 {
		t.Errorf("UsedCount = %d after decrement, want 0", invite.UsedCount)
	}

	// A zero count never goes negative
	if err := repo.DecrementUsage("tok-dec"); !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("DecrementUsage() at zero error = %v, want %v", err, ErrInviteNotFound)
	}
}
