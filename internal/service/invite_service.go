package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"equishare/internal/models"
	"equishare/internal/repository"
)

var (
	ErrNotAGroupMember    = errors.New("user is not a member of this group")
	ErrInvalidUsageCap    = errors.New("invite usage cap must be between 1 and 10")
	ErrMembershipAddition = errors.New("failed to add user to group")

	// Storage-level invite errors, re-exported so callers only deal with
	// the service package.
	ErrInviteNotFound  = repository.ErrInviteNotFound
	ErrInviteExpired   = repository.ErrInviteExpired
	ErrInviteExhausted = repository.ErrInviteExhausted
)

const (
	// MinInviteUses and MaxInviteUses bound the redemption cap of a single invite
	MinInviteUses = 1
	MaxInviteUses = 10

	// inviteValidity is how long an invite link stays redeemable
	inviteValidity = 7 * 24 * time.Hour
)

// InviteStore is the persistence interface the invite lifecycle needs
type InviteStore interface {
	Create(invite *models.Invite) (*models.Invite, error)
	GetByToken(token string) (*models.Invite, error)
	GetGroupInvites(groupID int64) ([]models.Invite, error)
	IncrementUsage(token string, now time.Time) (*models.Invite, error)
	DecrementUsage(token string) error
}

// GroupMembership is the membership interface the invite lifecycle needs.
// Satisfied by *GroupService.
type GroupMembership interface {
	IsMember(groupID, userID int64) (bool, error)
	AddMember(groupID, userID int64) error
	RemoveMember(groupID, userID int64) error
}

// InviteService issues and redeems group invite links
type InviteService struct {
	invites InviteStore
	members GroupMembership
	baseURL string

	generateToken func() (string, error)
	now           func() time.Time
}

// NewInviteService creates a new invite service. baseURL is the public
// address invite links are built from.
func NewInviteService(invites InviteStore, members GroupMembership, baseURL string) *InviteService {
	return &InviteService{
		invites:       invites,
		members:       members,
		baseURL:       strings.TrimRight(baseURL, "/"),
		generateToken: generateInviteToken,
		now:           time.Now,
	}
}

// generateInviteToken generates a random invite token
func generateInviteToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreatedInvite is the result of issuing a new invite
type CreatedInvite struct {
	Invite     *models.Invite
	InviteLink string
}

// RedeemStatus describes the outcome of a successful redemption
type RedeemStatus string

const (
	StatusJoined        RedeemStatus = "joined"
	StatusAlreadyMember RedeemStatus = "alreadyMember"
)

// RedeemResult is the outcome of a successful Redeem call
type RedeemResult struct {
	Status    RedeemStatus
	GroupID   int64
	GroupName string
	UsedCount int
}

// CreateInvite issues a new invite link for a group on behalf of a member.
// The link stays valid for 7 days or until maxUses redemptions, whichever
// comes first.
func (s *InviteService) CreateInvite(groupID, requestingUserID int64, maxUses int) (*CreatedInvite, error) {
	if maxUses < MinInviteUses || maxUses > MaxInviteUses {
		return nil, ErrInvalidUsageCap
	}

	isMember, err := s.members.IsMember(groupID, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotAGroupMember
	}

	token, err := s.generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	now := s.now()
	invite, err := s.invites.Create(&models.Invite{
		Token:     token,
		GroupID:   groupID,
		CreatedBy: requestingUserID,
		CreatedAt: now,
		ExpiresAt: now.Add(inviteValidity),
		MaxUses:   maxUses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	return &CreatedInvite{
		Invite:     invite,
		InviteLink: s.InviteLink(invite.Token),
	}, nil
}

// InviteLink builds the shareable URL for a token
func (s *InviteService) InviteLink(token string) string {
	return s.baseURL + "/invite/" + token
}

// GetInvite retrieves an invite by token for display on the landing page.
// Read-only: repeated calls never change invite state.
func (s *InviteService) GetInvite(token string) (*models.Invite, error) {
	invite, err := s.invites.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	if invite == nil {
		return nil, ErrInviteNotFound
	}
	return invite, nil
}

// GetGroupInvites lists a group's invites for a requesting member
func (s *InviteService) GetGroupInvites(groupID, requestingUserID int64) ([]models.Invite, error) {
	isMember, err := s.members.IsMember(groupID, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotAGroupMember
	}

	invites, err := s.invites.GetGroupInvites(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return invites, nil
}

// Redeem admits a user to a group via an invite token. Joining a group the
// user already belongs to succeeds without consuming a use. The usage claim
// and the membership addition form one logical unit: if adding the member
// fails after the claim, the claim is released again.
func (s *InviteService) Redeem(token string, userID int64) (*RedeemResult, error) {
	invite, err := s.invites.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}
	if invite == nil {
		return nil, ErrInviteNotFound
	}

	isMember, err := s.members.IsMember(invite.GroupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if isMember {
		return &RedeemResult{
			Status:    StatusAlreadyMember,
			GroupID:   invite.GroupID,
			GroupName: invite.GroupName,
			UsedCount: invite.UsedCount,
		}, nil
	}

	now := s.now()
	if invite.IsExpiredAt(now) {
		return nil, ErrInviteExpired
	}

	claimed, err := s.invites.IncrementUsage(token, now)
	if err != nil {
		return nil, err
	}

	if err := s.members.AddMember(invite.GroupID, userID); err != nil {
		// Release the claimed use so it isn't burned without granting access
		if rbErr := s.invites.DecrementUsage(token); rbErr != nil {
			log.Printf("CONSISTENCY ALERT: failed to roll back usage for invite %s after membership failure: %v (original error: %v)", token, rbErr, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMembershipAddition, err)
	}

	return &RedeemResult{
		Status:    StatusJoined,
		GroupID:   invite.GroupID,
		GroupName: invite.GroupName,
		UsedCount: claimed.UsedCount,
	}, nil
}
