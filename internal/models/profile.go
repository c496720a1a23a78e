package models

import (
	"time"
)

// Plan names written by the billing collaborator.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// KnownPlan reports whether plan is one of the plan names above.
func KnownPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanStarter, PlanBasic, PlanPremium:
		return true
	}
	return false
}

// Profile represents a user profile in the system
type Profile struct {
	ID            string    `json:"id" db:"id"` // UUID that matches auth.users.id
	FullName      *string   `json:"full_name" db:"full_name"`
	AvatarURL     *string   `json:"avatar_url" db:"avatar_url"`
	Credits       int       `json:"credits" db:"credits"`
	PlanType      string    `json:"plan_type" db:"plan_type"`
	QuizCompleted bool      `json:"quiz_completed" db:"quiz_completed"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// User is the identity resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
