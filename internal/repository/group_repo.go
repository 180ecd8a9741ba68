package repository

import (
	"database/sql"
	"fmt"
	"time"

	"equishare/internal/database"
	"equishare/internal/models"
)

// GroupRepository handles database operations for groups and their members
type GroupRepository struct {
	db *database.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateGroup creates a new group and adds the creator as an admin member
func (r *GroupRepository) CreateGroup(name string, creatorUserID int64) (*models.Group, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO groups (name, created_by) VALUES (?, ?)"
	groupID, err := tx.ExecReturningID(query, name, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	query = "INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'admin')"
	if _, err := tx.Exec(query, groupID, creatorUserID); err != nil {
		return nil, fmt.Errorf("failed to add group member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Group{
		ID:        groupID,
		Name:      name,
		CreatedBy: creatorUserID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// GetGroupByID retrieves a group by ID
func (r *GroupRepository) GetGroupByID(groupID int64) (*models.Group, error) {
	query := "SELECT id, name, created_by, created_at, updated_at FROM groups WHERE id = ?"
	group := &models.Group{}
	err := r.db.QueryRow(query, groupID).Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&group.CreatedAt,
		&group.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// GetUserGroups retrieves all groups a user belongs to
func (r *GroupRepository) GetUserGroups(userID int64) ([]models.Group, error) {
	query := `
		SELECT g.id, g.name, g.created_by, g.created_at, g.updated_at
		FROM groups g
		INNER JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var group models.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// AddGroupMember adds a user to a group
func (r *GroupRepository) AddGroupMember(groupID, userID int64, role string) error {
	query := "INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, groupID, userID, role); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveGroupMember removes a user from a group
func (r *GroupRepository) RemoveGroupMember(groupID, userID int64) error {
	query := "DELETE FROM group_members WHERE group_id = ? AND user_id = ?"
	if _, err := r.db.Exec(query, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

// IsGroupMember checks if a user is a member of a group
func (r *GroupRepository) IsGroupMember(groupID, userID int64) (bool, error) {
	query := "SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?"
	var count int
	if err := r.db.QueryRow(query, groupID, userID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return count > 0, nil
}

// GetGroupMembers retrieves all members of a group with their user details
func (r *GroupRepository) GetGroupMembers(groupID int64) ([]models.GroupMember, []models.User, error) {
	query := `
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at,
		       u.id, u.email, u.name, u.created_at
		FROM group_members gm
		INNER JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at ASC
	`
	rows, err := r.db.Query(query, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	var users []models.User
	for rows.Next() {
		var member models.GroupMember
		var user models.User
		if err := rows.Scan(
			&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.JoinedAt,
			&user.ID, &user.Email, &user.Name, &user.CreatedAt,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, member)
		users = append(users, user)
	}

	return members, users, rows.Err()
}

// UpdateGroup updates a group's name
func (r *GroupRepository) UpdateGroup(groupID int64, name string) error {
	query := "UPDATE groups SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, name, groupID); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// DeleteGroup deletes a group and all associated data
func (r *GroupRepository) DeleteGroup(groupID int64) error {
	query := "DELETE FROM groups WHERE id = ?"
	if _, err := r.db.Exec(query, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}
