package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/covermapio/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueBillingSync enqueues a billing sync job for the owner.
func (c *Client) EnqueueBillingSync(ctx context.Context, payload BillingSyncPayload) error {
	task, err := NewBillingSyncTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue billing sync",
			"provider", payload.Provider,
			"owner", payload.Owner,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("billing sync queued",
		"task_id", info.ID,
		"provider", payload.Provider,
		"owner", payload.Owner,
		"queue", info.Queue,
	)
	return nil
}
