package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateGroupName checks if a group name is valid
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "group name is required"}
	}
	if len(name) > 100 {
		return ValidationError{Field: "name", Message: "group name must be at most 100 characters"}
	}
	return nil
}

// ValidateExpenseDescription checks if an expense description is valid
func ValidateExpenseDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ValidationError{Field: "description", Message: "description is required"}
	}
	if len(description) > 255 {
		return ValidationError{Field: "description", Message: "description must be at most 255 characters"}
	}
	return nil
}

// ValidateAmountCents checks if a money amount is valid
func ValidateAmountCents(amountCents int64) error {
	if amountCents <= 0 {
		return ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}
