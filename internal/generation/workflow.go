// Package generation runs credit-gated operations against the provider.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/illegalcall/inkgen/internal/apperror"
	"github.com/illegalcall/inkgen/internal/events"
	"github.com/illegalcall/inkgen/internal/ledger"
	"github.com/illegalcall/inkgen/internal/metrics"
	"github.com/illegalcall/inkgen/internal/models"
	"github.com/illegalcall/inkgen/internal/provider"
)

// Operation is one configured instance of the workflow. A zero Cost skips
// the ledger entirely.
type Operation struct {
	Name    string
	Cost    int
	Invoker provider.Invoker
}

type Workflow struct {
	ledger     ledger.Ledger
	publisher  events.Publisher
	operations map[string]Operation
}

func NewWorkflow(l ledger.Ledger, publisher events.Publisher, ops ...Operation) *Workflow {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	w := &Workflow{
		ledger:     l,
		publisher:  publisher,
		operations: make(map[string]Operation, len(ops)),
	}
	for _, op := range ops {
		w.operations[op.Name] = op
	}
	return w
}

// Operation returns the configured operation called name.
func (w *Workflow) Operation(name string) (Operation, bool) {
	op, ok := w.operations[name]
	return op, ok
}

// Generate validates a text-to-image request and runs the operation
// selected by mode. An empty mode means flash.
func (w *Workflow) Generate(ctx context.Context, userID, promptText, mode string) (models.GenerationResult, error) {
	prompt := strings.TrimSpace(promptText)
	if prompt == "" {
		return models.GenerationResult{}, apperror.InvalidInput("promptText is required")
	}
	m, ok := models.ParseMode(mode)
	if !ok {
		return models.GenerationResult{}, apperror.InvalidInput("mode must be one of: flash, realistic")
	}
	op, ok := w.Operation(string(m))
	if !ok {
		return models.GenerationResult{}, apperror.InvalidInput("mode " + string(m) + " is not available")
	}
	return w.Run(ctx, op, userID, provider.Input{Prompt: prompt})
}

// TryOn composites a tattoo design onto a body photo.
func (w *Workflow) TryOn(ctx context.Context, userID, bodyImage, tattooImage string) (models.GenerationResult, error) {
	if strings.TrimSpace(bodyImage) == "" || strings.TrimSpace(tattooImage) == "" {
		return models.GenerationResult{}, apperror.InvalidInput("bodyImage and tattooImage are required")
	}
	op, ok := w.Operation(models.OperationTryOn)
	if !ok {
		return models.GenerationResult{}, errors.New("tryon operation is not configured")
	}
	return w.Run(ctx, op, userID, provider.Input{BodyImage: bodyImage, TattooImage: tattooImage})
}

// Run executes check, invoke and debit in that order. Nothing is written
// unless the provider call succeeded, and the debit is the only write.
func (w *Workflow) Run(ctx context.Context, op Operation, userID string, in provider.Input) (models.GenerationResult, error) {
	requestID := uuid.NewString()
	result, err := w.run(ctx, op, userID, requestID, in)
	metrics.OperationsTotal.WithLabelValues(op.Name, metrics.Outcome(err)).Inc()
	if err != nil {
		logFailure(op, userID, requestID, err)
		return models.GenerationResult{}, err
	}
	slog.Info("Operation completed", "request_id", requestID, "operation", op.Name,
		"user_id", userID, "images", len(result.Images), "cost", op.Cost)
	return result, nil
}

func (w *Workflow) run(ctx context.Context, op Operation, userID, requestID string, in provider.Input) (models.GenerationResult, error) {
	if userID == "" {
		return models.GenerationResult{}, apperror.Unauthenticated("no user on request")
	}

	if op.Cost > 0 {
		ok, err := w.ledger.CheckSufficientBalance(ctx, userID, op.Cost)
		if err != nil {
			return models.GenerationResult{}, err
		}
		if !ok {
			return models.GenerationResult{}, apperror.InsufficientCredits(op.Cost)
		}
	}

	start := time.Now()
	images, err := op.Invoker.Invoke(ctx, in)
	metrics.ProviderDuration.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			err = apperror.GenerationFailed(err.Error())
		}
		return models.GenerationResult{}, err
	}
	if len(images) == 0 {
		return models.GenerationResult{}, apperror.GenerationFailed("provider returned no images")
	}

	result := models.GenerationResult{
		RequestID: requestID,
		Operation: op.Name,
		Images:    images,
		Cost:      op.Cost,
	}
	if op.Cost == 0 {
		return result, nil
	}

	balance, err := w.ledger.Debit(ctx, userID, op.Cost, op.Name, requestID)
	if err != nil {
		return models.GenerationResult{}, err
	}
	metrics.CreditsDebitedTotal.WithLabelValues(op.Name).Add(float64(op.Cost))
	result.RemainingCredits = &balance

	event := models.GenerationEvent{
		RequestID:        requestID,
		UserID:           userID,
		Operation:        op.Name,
		Cost:             op.Cost,
		RemainingCredits: balance,
		ImageCount:       len(images),
		OccurredAt:       time.Now().UTC(),
	}
	// The debit is committed; a lost event only costs a usage record.
	if err := w.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		slog.Error("Failed to publish generation event", "request_id", requestID, "error", err)
	}
	return result, nil
}

func logFailure(op Operation, userID, requestID string, err error) {
	attrs := []any{"request_id", requestID, "operation", op.Name, "user_id", userID, "error", err}
	switch {
	case errors.Is(err, apperror.ErrInsufficientCredits), errors.Is(err, apperror.ErrInvalidInput):
		slog.Info("Operation rejected", attrs...)
	case errors.Is(err, apperror.ErrRateLimited):
		slog.Warn("Provider rate limited", attrs...)
	default:
		slog.Error("Operation failed", attrs...)
	}
}
