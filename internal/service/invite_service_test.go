package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"equishare/internal/models"
	"equishare/internal/repository"
)

// fakeInviteStore is an in-memory InviteStore with the same conditional
// usage-claim semantics as the SQL repository.
type fakeInviteStore struct {
	mu      sync.Mutex
	invites map[string]*models.Invite
	nextID  int64
}

func newFakeInviteStore() *fakeInviteStore {
	return &fakeInviteStore{invites: make(map[string]*models.Invite)}
}

func (s *fakeInviteStore) Create(invite *models.Invite) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invites[invite.Token]; exists {
		return nil, repository.ErrDuplicateToken
	}
	s.nextID++
	stored := *invite
	stored.ID = s.nextID
	s.invites[invite.Token] = &stored
	result := stored
	return &result, nil
}

func (s *fakeInviteStore) GetByToken(token string) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[token]
	if !ok {
		return nil, nil
	}
	result := *invite
	return &result, nil
}

func (s *fakeInviteStore) GetGroupInvites(groupID int64) ([]models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Invite
	for _, invite := range s.invites {
		if invite.GroupID == groupID {
			result = append(result, *invite)
		}
	}
	return result, nil
}

func (s *fakeInviteStore) IncrementUsage(token string, now time.Time) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[token]
	if !ok {
		return nil, repository.ErrInviteNotFound
	}
	if invite.IsExpiredAt(now) {
		return nil, repository.ErrInviteExpired
	}
	if invite.UsedCount >= invite.MaxUses {
		return nil, repository.ErrInviteExhausted
	}
	invite.UsedCount++
	result := *invite
	return &result, nil
}

func (s *fakeInviteStore) DecrementUsage(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[token]
	if !ok {
		return repository.ErrInviteNotFound
	}
	if invite.UsedCount > 0 {
		invite.UsedCount--
	}
	return nil
}

// fakeMembership is an in-memory GroupMembership
type fakeMembership struct {
	mu      sync.Mutex
	members map[int64]map[int64]bool
	addErr  error
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{members: make(map[int64]map[int64]bool)}
}

func (m *fakeMembership) IsMember(groupID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[groupID][userID], nil
}

func (m *fakeMembership) AddMember(groupID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[int64]bool)
	}
	m.members[groupID][userID] = true
	return nil
}

func (m *fakeMembership) RemoveMember(groupID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[groupID], userID)
	return nil
}

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestInviteService() (*InviteService, *fakeInviteStore, *fakeMembership) {
	store := newFakeInviteStore()
	members := newFakeMembership()
	svc := NewInviteService(store, members, "https://equishare.example.com")
	svc.now = func() time.Time { return testTime }
	return svc, store, members
}

func TestCreateInvite(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 5)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	if created.Invite.GroupID != 1 {
		t.Errorf("GroupID = %d, want 1", created.Invite.GroupID)
	}
	if created.Invite.CreatedBy != 100 {
		t.Errorf("CreatedBy = %d, want 100", created.Invite.CreatedBy)
	}
	if created.Invite.MaxUses != 5 {
		t.Errorf("MaxUses = %d, want 5", created.Invite.MaxUses)
	}
	if created.Invite.UsedCount != 0 {
		t.Errorf("UsedCount = %d, want 0", created.Invite.UsedCount)
	}

	wantExpiry := testTime.Add(7 * 24 * time.Hour)
	if !created.Invite.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", created.Invite.ExpiresAt, wantExpiry)
	}

	wantLink := "https://equishare.example.com/invite/" + created.Invite.Token
	if created.InviteLink != wantLink {
		t.Errorf("InviteLink = %q, want %q", created.InviteLink, wantLink)
	}
}

func TestCreateInviteUsageCapBounds(t *testing.T) {
	tests := []struct {
		name    string
		maxUses int
		wantErr error
	}{
		{name: "zero rejected", maxUses: 0, wantErr: ErrInvalidUsageCap},
		{name: "negative rejected", maxUses: -1, wantErr: ErrInvalidUsageCap},
		{name: "above cap rejected", maxUses: 11, wantErr: ErrInvalidUsageCap},
		{name: "minimum accepted", maxUses: 1, wantErr: nil},
		{name: "maximum accepted", maxUses: 10, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, members := newTestInviteService()
			members.AddMember(1, 100)

			_, err := svc.CreateInvite(1, 100, tt.maxUses)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateInvite(maxUses=%d) error = %v, want %v", tt.maxUses, err, tt.wantErr)
			}
		})
	}
}

func TestCreateInviteRequiresMembership(t *testing.T) {
	svc, _, _ := newTestInviteService()

	_, err := svc.CreateInvite(1, 100, 5)
	if !errors.Is(err, ErrNotAGroupMember) {
		t.Errorf("CreateInvite() error = %v, want %v", err, ErrNotAGroupMember)
	}
}

func TestCreateInviteTokensAreUnique(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		created, err := svc.CreateInvite(1, 100, 5)
		if err != nil {
			t.Fatalf("CreateInvite() error = %v", err)
		}
		if seen[created.Invite.Token] {
			t.Fatalf("duplicate token generated: %s", created.Invite.Token)
		}
		seen[created.Invite.Token] = true
	}
}

func TestGetInviteIsReadOnly(t *testing.T) {
	svc, store, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 3)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		invite, err := svc.GetInvite(created.Invite.Token)
		if err != nil {
			t.Fatalf("GetInvite() error = %v", err)
		}
		if invite.UsedCount != 0 {
			t.Fatalf("GetInvite() consumed a use: UsedCount = %d", invite.UsedCount)
		}
	}

	stored, _ := store.GetByToken(created.Invite.Token)
	if stored.UsedCount != 0 {
		t.Errorf("stored UsedCount = %d after repeated reads, want 0", stored.UsedCount)
	}
}

func TestGetInviteNotFound(t *testing.T) {
	svc, _, _ := newTestInviteService()

	_, err := svc.GetInvite("does-not-exist")
	if !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("GetInvite() error = %v, want %v", err, ErrInviteNotFound)
	}
}

func TestRedeemJoinsGroup(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 3)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	result, err := svc.Redeem(created.Invite.Token, 200)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if result.Status != StatusJoined {
		t.Errorf("Status = %q, want %q", result.Status, StatusJoined)
	}
	if result.GroupID != 1 {
		t.Errorf("GroupID = %d, want 1", result.GroupID)
	}
	if result.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", result.UsedCount)
	}

	isMember, _ := members.IsMember(1, 200)
	if !isMember {
		t.Error("user 200 should be a group member after redemption")
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc, _, _ := newTestInviteService()

	_, err := svc.Redeem("no-such-token", 200)
	if !errors.Is(err, ErrInviteNotFound) {
		t.Errorf("Redeem() error = %v, want %v", err, ErrInviteNotFound)
	}
}

func TestRedeemExpiredInvite(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 5)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	// Advance the clock past the 7-day validity window
	svc.now = func() time.Time { return testTime.Add(8 * 24 * time.Hour) }

	_, err = svc.Redeem(created.Invite.Token, 200)
	if !errors.Is(err, ErrInviteExpired) {
		t.Errorf("Redeem() error = %v, want %v", err, ErrInviteExpired)
	}

	isMember, _ := members.IsMember(1, 200)
	if isMember {
		t.Error("user 200 must not be a member after expired redemption")
	}
}

func TestRedeemAlreadyMemberDoesNotConsumeUse(t *testing.T) {
	svc, store, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 1)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	// Creator redeems their own invite
	result, err := svc.Redeem(created.Invite.Token, 100)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if result.Status != StatusAlreadyMember {
		t.Errorf("Status = %q, want %q", result.Status, StatusAlreadyMember)
	}

	stored, _ := store.GetByToken(created.Invite.Token)
	if stored.UsedCount != 0 {
		t.Errorf("UsedCount = %d after already-member redemption, want 0", stored.UsedCount)
	}

	// The single use is still available to a new user
	result, err = svc.Redeem(created.Invite.Token, 200)
	if err != nil {
		t.Fatalf("Redeem() by new user error = %v", err)
	}
	if result.Status != StatusJoined {
		t.Errorf("Status = %q, want %q", result.Status, StatusJoined)
	}
}

func TestRedeemAlreadyMemberOnExpiredInvite(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 5)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	svc.now = func() time.Time { return testTime.Add(8 * 24 * time.Hour) }

	// Membership wins over expiry: an existing member gets alreadyMember,
	// not an expiry error.
	result, err := svc.Redeem(created.Invite.Token, 100)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if result.Status != StatusAlreadyMember {
		t.Errorf("Status = %q, want %q", result.Status, StatusAlreadyMember)
	}
}

func TestRedeemExhaustsSingleUseInvite(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 1)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	if _, err := svc.Redeem(created.Invite.Token, 200); err != nil {
		t.Fatalf("first Redeem() error = %v", err)
	}

	_, err = svc.Redeem(created.Invite.Token, 300)
	if !errors.Is(err, ErrInviteExhausted) {
		t.Errorf("second Redeem() error = %v, want %v", err, ErrInviteExhausted)
	}

	isMember, _ := members.IsMember(1, 300)
	if isMember {
		t.Error("user 300 must not be a member after exhausted redemption")
	}
}

func TestRedeemHonorsUsageCap(t *testing.T) {
	svc, store, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 3)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	for userID := int64(200); userID < 203; userID++ {
		result, err := svc.Redeem(created.Invite.Token, userID)
		if err != nil {
			t.Fatalf("Redeem() for user %d error = %v", userID, err)
		}
		if result.Status != StatusJoined {
			t.Fatalf("Status for user %d = %q, want %q", userID, result.Status, StatusJoined)
		}
	}

	_, err = svc.Redeem(created.Invite.Token, 999)
	if !errors.Is(err, ErrInviteExhausted) {
		t.Errorf("fourth Redeem() error = %v, want %v", err, ErrInviteExhausted)
	}

	stored, _ := store.GetByToken(created.Invite.Token)
	if stored.UsedCount != 3 {
		t.Errorf("UsedCount = %d, want 3", stored.UsedCount)
	}
}

func TestRedeemRollsBackUsageOnMembershipFailure(t *testing.T) {
	svc, store, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, 2)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	members.addErr = fmt.Errorf("constraint violation")

	_, err = svc.Redeem(created.Invite.Token, 200)
	if !errors.Is(err, ErrMembershipAddition) {
		t.Fatalf("Redeem() error = %v, want %v", err, ErrMembershipAddition)
	}

	// The claimed use is released so the invite is not burned
	stored, _ := store.GetByToken(created.Invite.Token)
	if stored.UsedCount != 0 {
		t.Errorf("UsedCount = %d after rollback, want 0", stored.UsedCount)
	}

	// Redemption works again once the membership write recovers
	members.addErr = nil
	result, err := svc.Redeem(created.Invite.Token, 200)
	if err != nil {
		t.Fatalf("retry Redeem() error = %v", err)
	}
	if result.Status != StatusJoined {
		t.Errorf("Status = %q, want %q", result.Status, StatusJoined)
	}
}

func TestRedeemConcurrentLastSlots(t *testing.T) {
	const maxUses = 3
	const contenders = 20

	svc, store, members := newTestInviteService()
	members.AddMember(1, 100)

	created, err := svc.CreateInvite(1, 100, maxUses)
	if err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	exhausted := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			result, err := svc.Redeem(created.Invite.Token, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && result.Status == StatusJoined:
				joined++
			case errors.Is(err, ErrInviteExhausted):
				exhausted++
			default:
				t.Errorf("unexpected outcome for user %d: result=%v err=%v", userID, result, err)
			}
		}(int64(200 + i))
	}
	wg.Wait()

	if joined != maxUses {
		t.Errorf("joined = %d, want %d", joined, maxUses)
	}
	if exhausted != contenders-maxUses {
		t.Errorf("exhausted = %d, want %d", exhausted, contenders-maxUses)
	}

	stored, _ := store.GetByToken(created.Invite.Token)
	if stored.UsedCount != maxUses {
		t.Errorf("UsedCount = %d, want %d", stored.UsedCount, maxUses)
	}
}

func TestGetGroupInvitesRequiresMembership(t *testing.T) {
	svc, _, members := newTestInviteService()
	members.AddMember(1, 100)

	if _, err := svc.CreateInvite(1, 100, 5); err != nil {
		t.Fatalf("CreateInvite() error = %v", err)
	}

	invites, err := svc.GetGroupInvites(1, 100)
	if err != nil {
		t.Fatalf("GetGroupInvites() error = %v", err)
	}
	if len(invites) != 1 {
		t.Errorf("len(invites) = %d, want 1", len(invites))
	}

	_, err = svc.GetGroupInvites(1, 999)
	if !errors.Is(err, ErrNotAGroupMember) {
		t.Errorf("GetGroupInvites() as non-member error = %v, want %v", err, ErrNotAGroupMember)
	}
}
