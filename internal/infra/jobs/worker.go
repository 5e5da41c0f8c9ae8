package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/covermapio/api/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker.
func NewWorker(cfg WorkerConfig, processor BillingSyncProcessor, log *logger.Logger) (*Worker, error) {
	if processor == nil {
		return nil, fmt.Errorf("billing sync processor is required")
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"default": 10,
				"billing": 5,
			},
		},
	)

	mux := asynq.NewServeMux()

	handler := NewBillingSyncHandler(processor, log)
	mux.HandleFunc(TypeBillingSync, handler.HandleBillingSync)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log,
	}, nil
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}

// Run runs the worker until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Start(w.mux)
	}()

	select {
	case <-ctx.Done():
		w.Stop()
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
		return nil
	}
}
