package models

import "time"

// Mode selects the generation style.
type Mode string

const (
	ModeFlash     Mode = "flash"
	ModeRealistic Mode = "realistic"
)

// Operation names used for costs, metrics and usage records.
const (
	OperationFlash     = "flash"
	OperationRealistic = "realistic"
	OperationTryOn     = "tryon"
)

// ParseMode returns the mode for s. An empty string selects flash.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "":
		return ModeFlash, true
	case ModeFlash, ModeRealistic:
		return Mode(s), true
	default:
		return "", false
	}
}

// GenerationResult is returned to the caller after a successful operation.
type GenerationResult struct {
	RequestID        string   `json:"requestId"`
	Operation        string   `json:"operation"`
	Images           []string `json:"images"`
	Cost             int      `json:"cost"`
	RemainingCredits *int     `json:"remainingCredits,omitempty"`
}

// GenerationEvent is published after a successful debit.
type GenerationEvent struct {
	RequestID        string    `json:"requestId"`
	UserID           string    `json:"userId"`
	Operation        string    `json:"operation"`
	Cost             int       `json:"cost"`
	RemainingCredits int       `json:"remainingCredits"`
	ImageCount       int       `json:"imageCount"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// CreditTransaction is the audit row written alongside each debit.
type CreditTransaction struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Amount    int       `json:"amount" db:"amount"`
	Operation string    `json:"operation" db:"operation"`
	RequestID string    `json:"request_id" db:"request_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
