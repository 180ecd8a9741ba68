package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"equishare/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Users        []UserBackup        `json:"users"`
	Groups       []GroupBackup       `json:"groups"`
	Invites      []InviteBackup      `json:"invites"`
	Expenses     []ExpenseBackup     `json:"expenses"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GroupBackup represents a group record with its members
type GroupBackup struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	CreatedBy int64               `json:"created_by"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Members   []GroupMemberBackup `json:"members"`
}

// GroupMemberBackup represents a group member record
type GroupMemberBackup struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// InviteBackup represents an invite record for backup
type InviteBackup struct {
	Token     string    `json:"token"`
	GroupID   int64     `json:"group_id"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxUses   int       `json:"max_uses"`
	UsedCount int       `json:"used_count"`
}

// ExpenseBackup represents an expense record with its splits
type ExpenseBackup struct {
	ID          int64                `json:"id"`
	GroupID     int64                `json:"group_id"`
	PaidBy      int64                `json:"paid_by"`
	Description string               `json:"description"`
	AmountCents int64                `json:"amount_cents"`
	CreatedAt   time.Time            `json:"created_at"`
	Splits      []ExpenseSplitBackup `json:"splits"`
}

// ExpenseSplitBackup represents an expense split record
type ExpenseSplitBackup struct {
	UserID      int64 `json:"user_id"`
	AmountCents int64 `json:"amount_cents"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportGroups(backup); err != nil {
		return fmt.Errorf("failed to export groups: %w", err)
	}
	if err := s.exportInvites(backup); err != nil {
		return fmt.Errorf("failed to export invites: %w", err)
	}
	if err := s.exportExpenses(backup); err != nil {
		return fmt.Errorf("failed to export expenses: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d groups, %d invites, %d expenses",
		len(backup.Users), len(backup.Groups), len(backup.Invites), len(backup.Expenses))

	return nil
}

// Import restores a backup file into the database
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	return s.importFromReader(file)
}

func (s *BackupService) importFromReader(reader io.Reader) error {
	backup := &BackupData{}
	if err := json.NewDecoder(reader).Decode(backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importGroups(backup.Groups); err != nil {
		return fmt.Errorf("failed to import groups: %w", err)
	}
	if err := s.importInvites(backup.Invites); err != nil {
		return fmt.Errorf("failed to import invites: %w", err)
	}
	if err := s.importExpenses(backup.Expenses); err != nil {
		return fmt.Errorf("failed to import expenses: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := `
		SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at
		FROM users ORDER BY id
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name,
			&u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}

	return rows.Err()
}

func (s *BackupService) exportGroups(backup *BackupData) error {
	query := "SELECT id, name, created_by, created_at, updated_at FROM groups ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g GroupBackup
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return err
		}
		backup.Groups = append(backup.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range backup.Groups {
		memberRows, err := s.db.Query(
			"SELECT user_id, role, joined_at FROM group_members WHERE group_id = ? ORDER BY joined_at",
			backup.Groups[i].ID)
		if err != nil {
			return err
		}
		for memberRows.Next() {
			var m GroupMemberBackup
			if err := memberRows.Scan(&m.UserID, &m.Role, &m.JoinedAt); err != nil {
				memberRows.Close()
				return err
			}
			backup.Groups[i].Members = append(backup.Groups[i].Members, m)
		}
		if err := memberRows.Err(); err != nil {
			memberRows.Close()
			return err
		}
		memberRows.Close()
	}

	return nil
}

func (s *BackupService) exportInvites(backup *BackupData) error {
	query := "SELECT token, group_id, created_by, created_at, expires_at, max_uses, used_count FROM invites ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i InviteBackup
		if err := rows.Scan(&i.Token, &i.GroupID, &i.CreatedBy, &i.CreatedAt,
			&i.ExpiresAt, &i.MaxUses, &i.UsedCount); err != nil {
			return err
		}
		backup.Invites = append(backup.Invites, i)
	}

	return rows.Err()
}

func (s *BackupService) exportExpenses(backup *BackupData) error {
	query := "SELECT id, group_id, paid_by, description, amount_cents, created_at FROM expenses ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e ExpenseBackup
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PaidBy, &e.Description,
			&e.AmountCents, &e.CreatedAt); err != nil {
			return err
		}
		backup.Expenses = append(backup.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range backup.Expenses {
		splitRows, err := s.db.Query(
			"SELECT user_id, amount_cents FROM expense_splits WHERE expense_id = ? ORDER BY id",
			backup.Expenses[i].ID)
		if err != nil {
			return err
		}
		for splitRows.Next() {
			var sp ExpenseSplitBackup
			if err := splitRows.Scan(&sp.UserID, &sp.AmountCents); err != nil {
				splitRows.Close()
				return err
			}
			backup.Expenses[i].Splits = append(backup.Expenses[i].Splits, sp)
		}
		if err := splitRows.Err(); err != nil {
			splitRows.Close()
			return err
		}
		splitRows.Close()
	}

	return nil
}

func (s *BackupService) importUsers(users []UserBackup) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, u := range users {
		if _, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name,
			u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	log.Printf("Imported %d users", len(users))
	return nil
}

func (s *BackupService) importGroups(groups []GroupBackup) error {
	groupQuery := "INSERT INTO groups (id, name, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	memberQuery := "INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)"
	for _, g := range groups {
		if _, err := s.db.Exec(groupQuery, g.ID, g.Name, g.CreatedBy, g.CreatedAt, g.UpdatedAt); err != nil {
			return fmt.Errorf("group %d: %w", g.ID, err)
		}
		for _, m := range g.Members {
			if _, err := s.db.Exec(memberQuery, g.ID, m.UserID, m.Role, m.JoinedAt); err != nil {
				return fmt.Errorf("group %d member %d: %w", g.ID, m.UserID, err)
			}
		}
	}
	log.Printf("Imported %d groups", len(groups))
	return nil
}

func (s *BackupService) importInvites(invites []InviteBackup) error {
	query := `
		INSERT INTO invites (token, group_id, created_by, created_at, expires_at, max_uses, used_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, i := range invites {
		if _, err := s.db.Exec(query, i.Token, i.GroupID, i.CreatedBy, i.CreatedAt,
			i.ExpiresAt, i.MaxUses, i.UsedCount); err != nil {
			return fmt.Errorf("invite %s: %w", i.Token, err)
		}
	}
	log.Printf("Imported %d invites", len(invites))
	return nil
}

func (s *BackupService) importExpenses(expenses []ExpenseBackup) error {
	expenseQuery := `
		INSERT INTO expenses (id, group_id, paid_by, description, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	splitQuery := "INSERT INTO expense_splits (expense_id, user_id, amount_cents) VALUES (?, ?, ?)"
	for _, e := range expenses {
		if _, err := s.db.Exec(expenseQuery, e.ID, e.GroupID, e.PaidBy,
			e.Description, e.AmountCents, e.CreatedAt); err != nil {
			return fmt.Errorf("expense %d: %w", e.ID, err)
		}
		for _, sp := range e.Splits {
			if _, err := s.db.Exec(splitQuery, e.ID, sp.UserID, sp.AmountCents); err != nil {
				return fmt.Errorf("expense %d split %d: %w", e.ID, sp.UserID, err)
			}
		}
	}
	log.Printf("Imported %d expenses", len(expenses))
	return nil
}
