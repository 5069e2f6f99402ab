package services

import (
	"errors"
	"fmt"

	apperrors "github.com/quizcraze/quiz-service/internal/errors"
)

var (
	// Generic errors
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource conflict")

	// Quiz specific errors
	ErrQuizNotFound  = errors.New("quiz not found")
	ErrQuizNotActive = errors.New("quiz is not active")

	// Class specific errors
	ErrClassNotFound     = errors.New("class not found")
	ErrClassAccessDenied = errors.New("access denied to class")
	ErrNotEnrolled       = errors.New("student is not enrolled in any assigned class")
	ErrAlreadyEnrolled   = errors.New("student is already enrolled in this class")
	ErrStudentBlocked    = errors.New("student is blocked from this class")
	ErrInvalidEnrollKey  = errors.New("invalid enrollment key")
	ErrStudentNotInClass = errors.New("student is not in this class")
	ErrStudentNotBlocked = errors.New("student is not blocked in this class")
	ErrClassQuizMissing  = errors.New("one or more classes do not exist or are not owned by the teacher")

	// Attempt specific errors
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAlreadyAttempted        = errors.New("student has already attempted this quiz")
	ErrAttemptAlreadySubmitted = errors.New("attempt already submitted")
	ErrAttemptTimeExpired      = errors.New("attempt time has expired")
	ErrInsufficientWindowTime  = errors.New("not enough time left in the quiz window for a full attempt")
	ErrExtensionPastWindow     = errors.New("extension would push the attempt past the quiz window")
	ErrAnswerCountMismatch     = errors.New("answer count does not match question count")

	// Account errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrPRNTaken           = errors.New("prn is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("account is not verified")
	ErrOTPThrottled       = errors.New("verification code requested too soon")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// PermissionError carries who was denied what, for logs and responses.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// ===== ERROR HELPERS =====

func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrClassNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	var ves ValidationErrors
	return errors.As(err, &ve) || errors.As(err, &ves)
}

func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadyAttempted) ||
		errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrAttemptAlreadySubmitted) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrPRNTaken)
}
