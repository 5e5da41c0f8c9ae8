package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/logger"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(&config.BillingConfig{
		GatewayURL: url,
		Timeout:    5 * time.Second,
	}, logger.NewNop())
	require.NoError(t, err)
	return client
}

func TestUpdateSubscriptionSendsPlanPayload(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.UpdateSubscription(context.Background(), "gh", "critical-role", account.UpgradePayload{
		Plan: account.UpgradePlan{Value: "users-pr-inappm", Quantity: 20},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/gh/critical-role/subscription", gotPath)
	assert.Equal(t, map[string]any{
		"plan": map[string]any{"value": "users-pr-inappm", "quantity": float64(20)},
	}, gotBody)
}

func TestUpdateSubscriptionServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "Card declined"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.UpdateSubscription(context.Background(), "gh", "acme", account.UpgradePayload{
		Plan: account.UpgradePlan{Value: "users-pr-inappy", Quantity: 5},
	})

	var gwErr *account.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Equal(t, "Card declined", gwErr.Message())
}

func TestUpdateSubscriptionGenericFailureMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.UpdateSubscription(context.Background(), "gh", "acme", account.UpgradePayload{
		Plan: account.UpgradePlan{Value: "users-pr-inappm", Quantity: 2},
	})

	var gwErr *account.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "Something went wrong", gwErr.Message())
}

func TestUpdateSubscriptionConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.UpdateSubscription(context.Background(), "gh", "acme", account.UpgradePayload{
		Plan: account.UpgradePlan{Value: "users-pr-inappm", Quantity: 2},
	})

	var gwErr *account.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "Something went wrong", gwErr.Message())
}

func TestNewClientRequiresGatewayURL(t *testing.T) {
	_, err := NewClient(&config.BillingConfig{Timeout: time.Second}, logger.NewNop())
	assert.Error(t, err)
}
