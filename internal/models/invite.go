package models

import "time"

// Invite represents a shareable group join link. The token is handed out as
// part of a URL; anyone presenting it before expiry may join the group until
// the usage cap is reached.
type Invite struct {
	ID        int64
	Token     string
	GroupID   int64
	CreatedBy int64
	CreatedAt time.Time
	ExpiresAt time.Time
	MaxUses   int
	UsedCount int

	InviterName string // Populated via JOIN
	GroupName   string // Populated via JOIN
}

// IsExpiredAt reports whether the invite has passed its expiry at the given time
func (i *Invite) IsExpiredAt(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// IsExhausted reports whether every use of the invite has been consumed
func (i *Invite) IsExhausted() bool {
	return i.UsedCount >= i.MaxUses
}

// IsValidAt reports whether the invite can still be redeemed at the given time
func (i *Invite) IsValidAt(now time.Time) bool {
	return !i.IsExpiredAt(now) && !i.IsExhausted()
}

// RemainingUses returns how many redemptions are left
func (i *Invite) RemainingUses() int {
	if i.UsedCount >= i.MaxUses {
		return 0
	}
	return i.MaxUses - i.UsedCount
}
