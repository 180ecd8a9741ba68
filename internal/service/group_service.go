package service

import (
	"errors"
	"fmt"

	"equishare/internal/models"
	"equishare/internal/repository"
	"equishare/internal/validation"
)

var (
	ErrGroupNotFound = errors.New("group not found")
)

// GroupService handles group and membership business logic
type GroupService struct {
	groupRepo *repository.GroupRepository
}

// NewGroupService creates a new group service
func NewGroupService(groupRepo *repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// CreateGroup creates a new group with the user as admin
func (s *GroupService) CreateGroup(name string, creatorUserID int64) (*models.Group, error) {
	if err := validation.ValidateGroupName(name); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.CreateGroup(name, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// GetGroup retrieves a group by ID
func (s *GroupService) GetGroup(groupID int64) (*models.Group, error) {
	group, err := s.groupRepo.GetGroupByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// GetUserGroups retrieves all groups a user belongs to
func (s *GroupService) GetUserGroups(userID int64) ([]models.Group, error) {
	groups, err := s.groupRepo.GetUserGroups(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}
	return groups, nil
}

// GetGroupDetail retrieves a group with its member list, for members only
func (s *GroupService) GetGroupDetail(groupID, requestingUserID int64) (*models.GroupWithMembers, error) {
	if err := s.VerifyGroupAccess(groupID, requestingUserID); err != nil {
		return nil, err
	}

	group, err := s.GetGroup(groupID)
	if err != nil {
		return nil, err
	}

	members, users, err := s.groupRepo.GetGroupMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}

	return &models.GroupWithMembers{
		Group:   *group,
		Members: members,
		Users:   users,
	}, nil
}

// VerifyGroupAccess checks if a user is a member of a group
func (s *GroupService) VerifyGroupAccess(groupID, userID int64) error {
	isMember, err := s.groupRepo.IsGroupMember(groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to verify group access: %w", err)
	}
	if !isMember {
		return ErrNotAGroupMember
	}
	return nil
}

// IsMember checks if a user is a member of a group
func (s *GroupService) IsMember(groupID, userID int64) (bool, error) {
	return s.groupRepo.IsGroupMember(groupID, userID)
}

// AddMember adds a user to a group with the default member role
func (s *GroupService) AddMember(groupID, userID int64) error {
	return s.groupRepo.AddGroupMember(groupID, userID, "member")
}

// RemoveMember removes a user from a group
func (s *GroupService) RemoveMember(groupID, userID int64) error {
	return s.groupRepo.RemoveGroupMember(groupID, userID)
}

// LeaveGroup removes the user from a group they belong to
func (s *GroupService) LeaveGroup(groupID, userID int64) error {
	if err := s.VerifyGroupAccess(groupID, userID); err != nil {
		return err
	}
	if err := s.groupRepo.RemoveGroupMember(groupID, userID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	return nil
}
