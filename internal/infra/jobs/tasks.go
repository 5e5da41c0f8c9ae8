// Package jobs provides background job definitions and handlers using Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/covermapio/api/pkg/logger"
)

// Task types for billing jobs
const (
	TypeBillingSync = "billing:sync"
)

// BillingSyncPayload identifies the account whose billing state should
// be re-read from the gateway and re-cached.
type BillingSyncPayload struct {
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
}

// NewBillingSyncTask creates a billing sync task.
func NewBillingSyncTask(payload BillingSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal billing sync payload: %w", err)
	}
	return asynq.NewTask(
		TypeBillingSync,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Queue("billing"),
	), nil
}

// BillingSyncProcessor refreshes an account's cached billing state.
// Implemented by the account service.
type BillingSyncProcessor interface {
	SyncAccount(ctx context.Context, provider, owner string) error
}

// BillingSyncHandler handles billing sync tasks.
type BillingSyncHandler struct {
	processor BillingSyncProcessor
	logger    *logger.Logger
}

// NewBillingSyncHandler creates a billing sync task handler.
func NewBillingSyncHandler(processor BillingSyncProcessor, log *logger.Logger) *BillingSyncHandler {
	return &BillingSyncHandler{
		processor: processor,
		logger:    log.With("component", "billing_sync_handler"),
	}
}

// HandleBillingSync processes one billing sync task.
func (h *BillingSyncHandler) HandleBillingSync(ctx context.Context, t *asynq.Task) error {
	var payload BillingSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal billing sync payload: %w", err)
	}

	if err := h.processor.SyncAccount(ctx, payload.Provider, payload.Owner); err != nil {
		h.logger.Error("billing sync failed",
			"provider", payload.Provider,
			"owner", payload.Owner,
			"error", err,
		)
		return fmt.Errorf("failed to sync account: %w", err)
	}

	h.logger.Info("billing sync completed",
		"provider", payload.Provider,
		"owner", payload.Owner,
	)
	return nil
}
