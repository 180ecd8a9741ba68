package models

import "time"

// Group represents a set of people sharing expenses together
type Group struct {
	ID        int64
	Name      string
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupMember represents the relationship between a user and a group
type GroupMember struct {
	ID       int64
	GroupID  int64
	UserID   int64
	Role     string // 'member' or 'admin'
	JoinedAt time.Time
}

// GroupWithMembers combines a group with its member information
type GroupWithMembers struct {
	Group   Group
	Members []GroupMember
	Users   []User // Associated user details
}
