package models

import "time"

// Expense represents a cost paid by one group member on behalf of the group.
// Amounts are stored in cents to avoid floating point drift.
type Expense struct {
	ID          int64
	GroupID     int64
	PaidBy      int64
	Description string
	AmountCents int64
	CreatedAt   time.Time

	PayerName string // Populated via JOIN
}

// ExpenseSplit represents one member's share of an expense
type ExpenseSplit struct {
	ID          int64
	ExpenseID   int64
	UserID      int64
	AmountCents int64
}

// MemberBalance is a group member's net position: what they paid minus what
// they owe. Positive means the group owes them money.
type MemberBalance struct {
	UserID       int64
	Name         string
	PaidCents    int64
	OwedCents    int64
	BalanceCents int64
}
