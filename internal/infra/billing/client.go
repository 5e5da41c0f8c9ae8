// Package billing implements the outbound client for the billing
// gateway that owns subscriptions and payment state.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/logger"
)

// Client calls the billing gateway over HTTP. It never retries: the
// upgrade mutation is not idempotent on the gateway side, and a
// double-submitted upgrade double-charges.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a billing gateway client.
func NewClient(cfg *config.BillingConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("billing config is required")
	}
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("billing gateway URL is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Client{
		baseURL: cfg.GatewayURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
	}, nil
}

// gatewayErrorBody is the error shape the gateway returns.
type gatewayErrorBody struct {
	Detail string `json:"detail"`
}

// UpdateSubscription submits a plan change for the owner.
func (c *Client) UpdateSubscription(ctx context.Context, provider, owner string, payload account.UpgradePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal upgrade payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/subscription", c.baseURL, provider, owner)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Covermap-API/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("billing gateway request failed",
			"provider", provider,
			"owner", owner,
			"error", err,
		)
		return &account.GatewayError{Status: 0}
	}
	defer func() { _ = resp.Body.Close() }()

	// Limit response body to 1MB to prevent memory exhaustion.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errBody gatewayErrorBody
	_ = json.Unmarshal(respBody, &errBody)

	c.logger.Warn("billing gateway rejected upgrade",
		"provider", provider,
		"owner", owner,
		"status", resp.StatusCode,
		"detail", errBody.Detail,
	)

	return &account.GatewayError{
		Status: resp.StatusCode,
		Detail: errBody.Detail,
	}
}
