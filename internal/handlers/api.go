package handlers

import (
	"time"

	"equishare/internal/models"
	"equishare/internal/service"
)

// Response shapes for the JSON API consumed by the web client.

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type groupResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type memberResponse struct {
	UserID   int64     `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

type groupDetailResponse struct {
	Group   groupResponse    `json:"group"`
	Members []memberResponse `json:"members"`
}

type inviteResponse struct {
	Token         string    `json:"token"`
	GroupID       int64     `json:"groupId"`
	GroupName     string    `json:"groupName"`
	InviterName   string    `json:"inviterName"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
	MaxUses       int       `json:"maxUses"`
	UsedCount     int       `json:"usedCount"`
	RemainingUses int       `json:"remainingUses"`
	Expired       bool      `json:"expired"`
	Exhausted     bool      `json:"exhausted"`
}

type createdInviteResponse struct {
	Invite     inviteResponse `json:"invite"`
	InviteLink string         `json:"inviteLink"`
}

type redeemResponse struct {
	Status    string `json:"status"`
	GroupID   int64  `json:"groupId"`
	GroupName string `json:"groupName"`
	UsedCount int    `json:"usedCount"`
}

type expenseResponse struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"groupId"`
	PaidBy      int64     `json:"paidBy"`
	PayerName   string    `json:"payerName"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amountCents"`
	CreatedAt   time.Time `json:"createdAt"`
}

type balanceResponse struct {
	UserID       int64  `json:"userId"`
	Name         string `json:"name"`
	PaidCents    int64  `json:"paidCents"`
	OwedCents    int64  `json:"owedCents"`
	BalanceCents int64  `json:"balanceCents"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

func toGroupResponse(group *models.Group) groupResponse {
	return groupResponse{
		ID:        group.ID,
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
		CreatedAt: group.CreatedAt,
	}
}

func toInviteResponse(invite *models.Invite, now time.Time) inviteResponse {
	return inviteResponse{
		Token:         invite.Token,
		GroupID:       invite.GroupID,
		GroupName:     invite.GroupName,
		InviterName:   invite.InviterName,
		CreatedAt:     invite.CreatedAt,
		ExpiresAt:     invite.ExpiresAt,
		MaxUses:       invite.MaxUses,
		UsedCount:     invite.UsedCount,
		RemainingUses: invite.RemainingUses(),
		Expired:       invite.IsExpiredAt(now),
		Exhausted:     invite.IsExhausted(),
	}
}

func toRedeemResponse(result *service.RedeemResult) redeemResponse {
	return redeemResponse{
		Status:    string(result.Status),
		GroupID:   result.GroupID,
		GroupName: result.GroupName,
		UsedCount: result.UsedCount,
	}
}

func toExpenseResponse(expense *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          expense.ID,
		GroupID:     expense.GroupID,
		PaidBy:      expense.PaidBy,
		PayerName:   expense.PayerName,
		Description: expense.Description,
		AmountCents: expense.AmountCents,
		CreatedAt:   expense.CreatedAt,
	}
}
