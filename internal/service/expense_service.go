package service

import (
	"errors"
	"fmt"

	"equishare/internal/models"
	"equishare/internal/repository"
	"equishare/internal/validation"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrSplitMismatch   = errors.New("splits must sum to the expense amount")
	ErrSplitNonMember  = errors.New("split includes a user who is not a group member")
)

// ExpenseService handles expense business logic
type ExpenseService struct {
	expenseRepo *repository.ExpenseRepository
	groupRepo   *repository.GroupRepository
}

// NewExpenseService creates a new expense service
func NewExpenseService(expenseRepo *repository.ExpenseRepository, groupRepo *repository.GroupRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		groupRepo:   groupRepo,
	}
}

// CreateExpense records an expense paid by a group member, split across
// members. Every split participant must belong to the group and the split
// amounts must sum to the expense total.
func (s *ExpenseService) CreateExpense(groupID, paidBy int64, description string, amountCents int64, splits []models.ExpenseSplit) (*models.Expense, error) {
	if err := validation.ValidateExpenseDescription(description); err != nil {
		return nil, err
	}
	if err := validation.ValidateAmountCents(amountCents); err != nil {
		return nil, err
	}

	isMember, err := s.groupRepo.IsGroupMember(groupID, paidBy)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotAGroupMember
	}

	var total int64
	for _, split := range splits {
		if err := validation.ValidateAmountCents(split.AmountCents); err != nil {
			return nil, err
		}
		member, err := s.groupRepo.IsGroupMember(groupID, split.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to check split membership: %w", err)
		}
		if !member {
			return nil, ErrSplitNonMember
		}
		total += split.AmountCents
	}
	if total != amountCents {
		return nil, ErrSplitMismatch
	}

	expense, err := s.expenseRepo.CreateExpense(&models.Expense{
		GroupID:     groupID,
		PaidBy:      paidBy,
		Description: description,
		AmountCents: amountCents,
	}, splits)
	if err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	return expense, nil
}

// GetGroupExpenses lists a group's expenses for a requesting member
func (s *ExpenseService) GetGroupExpenses(groupID, requestingUserID int64) ([]models.Expense, error) {
	isMember, err := s.groupRepo.IsGroupMember(groupID, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotAGroupMember
	}

	expenses, err := s.expenseRepo.GetGroupExpenses(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group expenses: %w", err)
	}
	return expenses, nil
}

// GetGroupBalances computes per-member balances for a requesting member
func (s *ExpenseService) GetGroupBalances(groupID, requestingUserID int64) ([]models.MemberBalance, error) {
	isMember, err := s.groupRepo.IsGroupMember(groupID, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotAGroupMember
	}

	balances, err := s.expenseRepo.GetGroupBalances(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group balances: %w", err)
	}
	return balances, nil
}
