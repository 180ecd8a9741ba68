package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"equishare/internal/database"
	"equishare/internal/models"
)

var (
	// ErrDuplicateToken means an insert collided with an existing token.
	// Token generation makes this practically impossible, so callers treat
	// it as an invariant violation rather than retrying.
	ErrDuplicateToken = errors.New("invite token already exists")

	// ErrInviteNotFound means no invite exists for the given token
	ErrInviteNotFound = errors.New("invite not found")

	// ErrInviteExpired means the invite's expiry has passed
	ErrInviteExpired = errors.New("invite has expired")

	// ErrInviteExhausted means every use of the invite has been consumed
	ErrInviteExhausted = errors.New("invite has no remaining uses")
)

// InviteRepository handles database operations for group invites
type InviteRepository struct {
	db *database.DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create inserts a new invite record
func (r *InviteRepository) Create(invite *models.Invite) (*models.Invite, error) {
	query := `
		INSERT INTO invites (token, group_id, created_by, created_at, expires_at, max_uses, used_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
	`
	id, err := r.db.ExecReturningID(query,
		invite.Token, invite.GroupID, invite.CreatedBy,
		invite.CreatedAt, invite.ExpiresAt, invite.MaxUses,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateToken
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	created := *invite
	created.ID = id
	created.UsedCount = 0
	return &created, nil
}

// GetByToken retrieves an invite by token, with inviter and group names joined
func (r *InviteRepository) GetByToken(token string) (*models.Invite, error) {
	query := `
		SELECT i.id, i.token, i.group_id, i.created_by, i.created_at, i.expires_at,
		       i.max_uses, i.used_count, u.name, g.name
		FROM invites i
		INNER JOIN users u ON i.created_by = u.id
		INNER JOIN groups g ON i.group_id = g.id
		WHERE i.token = ?
	`
	invite := &models.Invite{}
	err := r.db.QueryRow(query, token).Scan(
		&invite.ID, &invite.Token, &invite.GroupID, &invite.CreatedBy,
		&invite.CreatedAt, &invite.ExpiresAt,
		&invite.MaxUses, &invite.UsedCount, &invite.InviterName, &invite.GroupName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}

	return invite, nil
}

// GetGroupInvites retrieves all invites for a group, newest first
func (r *InviteRepository) GetGroupInvites(groupID int64) ([]models.Invite, error) {
	query := `
		SELECT i.id, i.token, i.group_id, i.created_by, i.created_at, i.expires_at,
		       i.max_uses, i.used_count, u.name, g.name
		FROM invites i
		INNER JOIN users u ON i.created_by = u.id
		INNER JOIN groups g ON i.group_id = g.id
		WHERE i.group_id = ?
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []models.Invite
	for rows.Next() {
		var invite models.Invite
		if err := rows.Scan(
			&invite.ID, &invite.Token, &invite.GroupID, &invite.CreatedBy,
			&invite.CreatedAt, &invite.ExpiresAt,
			&invite.MaxUses, &invite.UsedCount, &invite.InviterName, &invite.GroupName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, invite)
	}

	return invites, rows.Err()
}

// IncrementUsage atomically claims one use of an invite. The conditional
// UPDATE is the synchronization point: when several redeemers race for the
// last remaining use, the database guarantees exactly one row update wins
// and the rest see zero rows affected. On a losing attempt a follow-up read
// determines whether the invite was missing, expired, or exhausted.
func (r *InviteRepository) IncrementUsage(token string, now time.Time) (*models.Invite, error) {
	query := `
		UPDATE invites
		SET used_count = used_count + 1
		WHERE token = ? AND used_count < max_uses AND expires_at > ?
	`
	result, err := r.db.Exec(query, token, now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment invite usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		invite, err := r.GetByToken(token)
		if err != nil {
			return nil, err
		}
		switch {
		case invite == nil:
			return nil, ErrInviteNotFound
		case invite.IsExpiredAt(now):
			return nil, ErrInviteExpired
		default:
			return nil, ErrInviteExhausted
		}
	}

	return r.GetByToken(token)
}

// DecrementUsage releases a previously claimed use. It compensates for a
// membership addition that failed after IncrementUsage succeeded, so a use
// is never silently burned without granting access.
func (r *InviteRepository) DecrementUsage(token string) error {
	query := `
		UPDATE invites
		SET used_count = used_count - 1
		WHERE token = ? AND used_count > 0
	`
	result, err := r.db.Exec(query, token)
	if err != nil {
		return fmt.Errorf("failed to decrement invite usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrInviteNotFound
	}

	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure.
// Matched by message because the three supported drivers expose different
// error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
