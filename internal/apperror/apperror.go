package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrRateLimited         = errors.New("rate limited")
	ErrNotFound            = errors.New("not found")
)

// AppError pairs a sentinel kind with a message safe to show the caller.
// Detail holds diagnostics that are only ever logged.
type AppError struct {
	Err     error
	Message string
	Detail  string
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthenticated(detail string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: "User is not authenticated",
		Detail:  detail,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidInput,
		Message: message,
	}
}

func ProfileNotFound(userID string) *AppError {
	return &AppError{
		Err:     ErrProfileNotFound,
		Message: "Profile not found",
		Detail:  "user_id=" + userID,
	}
}

func InsufficientCredits(cost int) *AppError {
	return &AppError{
		Err:     ErrInsufficientCredits,
		Message: fmt.Sprintf("Insufficient credits. You need %d credits.", cost),
	}
}

func GenerationFailed(detail string) *AppError {
	return &AppError{
		Err:     ErrGenerationFailed,
		Message: "Image generation failed",
		Detail:  detail,
	}
}

// ChatFailed shares the GenerationFailed kind with a chat-specific message.
func ChatFailed(detail string) *AppError {
	return &AppError{
		Err:     ErrGenerationFailed,
		Message: "Chat reply failed",
		Detail:  detail,
	}
}

func RateLimited(detail string) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: "Rate limit reached. Please wait a few seconds.",
		Detail:  detail,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// StatusCode maps an error to the HTTP status returned to the caller.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message for the response body. Anything that is
// not an AppError collapses to a generic message.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
