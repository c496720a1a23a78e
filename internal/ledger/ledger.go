// Package ledger owns every read and write of a profile's credit balance.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/models"
)

// Ledger checks and settles credit balances.
type Ledger interface {
	// CheckSufficientBalance reports whether the profile holds at least cost
	// credits. A short balance is not an error.
	CheckSufficientBalance(ctx context.Context, userID string, cost int) (bool, error)
	// Debit removes cost credits and returns the new balance. It fails with
	// apperror.ErrInsufficientCredits instead of going below zero.
	Debit(ctx context.Context, userID string, cost int, operation, requestID string) (int, error)
	// Profile returns the full profile record.
	Profile(ctx context.Context, userID string) (models.Profile, error)
}

// PostgresLedger keeps balances in the profiles table.
type PostgresLedger struct {
	db *sqlx.DB
}

var _ Ledger = (*PostgresLedger)(nil)

func NewPostgresLedger(db *sqlx.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) CheckSufficientBalance(ctx context.Context, userID string, cost int) (bool, error) {
	var credits int
	err := l.db.GetContext(ctx, &credits, "SELECT credits FROM profiles WHERE id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperror.ProfileNotFound(userID)
	}
	if err != nil {
		return false, fmt.Errorf("read credits: %w", err)
	}
	return credits >= cost, nil
}

// Debit decrements the balance with a single conditional update so that two
// concurrent debits can never both pass on the same credits. The audit row is
// written in the same transaction.
func (l *PostgresLedger) Debit(ctx context.Context, userID string, cost int, operation, requestID string) (int, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("debit cost must be positive, got %d", cost)
	}

	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin debit: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.GetContext(ctx, &balance,
		"UPDATE profiles SET credits = credits - $2 WHERE id = $1 AND credits >= $2 RETURNING credits",
		userID, cost,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, l.explainMissedDebit(ctx, tx, userID, cost)
	}
	if err != nil {
		return 0, fmt.Errorf("debit credits: %w", err)
	}

	entry := models.CreditTransaction{
		UserID:    userID,
		Amount:    -cost,
		Operation: operation,
		RequestID: requestID,
	}
	if _, err := tx.NamedExecContext(ctx,
		"INSERT INTO credit_transactions (user_id, amount, operation, request_id) VALUES (:user_id, :amount, :operation, :request_id)",
		entry,
	); err != nil {
		return 0, fmt.Errorf("record credit transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit debit: %w", err)
	}
	return balance, nil
}

// explainMissedDebit tells a missing profile apart from a short balance after
// the conditional update matched no row.
func (l *PostgresLedger) explainMissedDebit(ctx context.Context, tx *sqlx.Tx, userID string, cost int) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)", userID); err != nil {
		return fmt.Errorf("check profile: %w", err)
	}
	if !exists {
		return apperror.ProfileNotFound(userID)
	}
	return apperror.InsufficientCredits(cost)
}

func (l *PostgresLedger) Profile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	err := l.db.GetContext(ctx, &profile,
		`SELECT id, full_name, avatar_url, credits, plan_type, quiz_completed, created_at
		FROM profiles WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, apperror.ProfileNotFound(userID)
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	if !models.KnownPlan(profile.PlanType) {
		slog.Warn("Unknown plan on profile, reporting free", "user_id", userID, "plan_type", profile.PlanType)
		profile.PlanType = models.PlanFree
	}
	return profile, nil
}
