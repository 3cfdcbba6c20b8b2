package services

import (
	"errors"
	"fmt"

	"github.com/hichoni/challenge-service/internal/validator"
)

// ValidationErrors is re-exported so handlers depend only on the services package
type ValidationErrors = validator.ValidationErrors

// ===== SENTINEL ERRORS =====

var (
	// Generic
	ErrValidationFailed = errors.New("validation failed")

	// User domain
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or pin")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrSeatTaken          = errors.New("a student already occupies this grade, class and number")

	// Area domain
	ErrAreaNotFound = errors.New("challenge area not found")
	ErrAreaExists   = errors.New("challenge area already exists")
	ErrAreaInUse    = errors.New("challenge area has submissions and cannot be removed")

	// Submission domain
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrSubmissionNotPending   = errors.New("submission is not awaiting review")
	ErrSubmissionNotDeletable = errors.New("submission cannot be deleted in its current status")
	ErrDeletionNotRequested   = errors.New("submission has no pending deletion request")

	// Achievement domain
	ErrNotNumericArea   = errors.New("operation requires a numeric goal area")
	ErrNotObjectiveArea = errors.New("operation requires an objective goal area")

	// Advisor domain
	ErrAdvisorUnavailable = errors.New("ai advisor is not available")

	// Import/export domain
	ErrImportFileInvalid = errors.New("import file is malformed")
)

// ===== TYPED ERRORS =====

// PermissionError carries who tried what on which resource
type PermissionError struct {
	UserID   uint
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// BusinessRuleError signals a state the request cannot act on
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}
