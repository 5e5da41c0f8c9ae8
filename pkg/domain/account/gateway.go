package account

import "context"

// UpgradePayload is the request body sent to the billing gateway:
// { "plan": { "value": <plan code>, "quantity": <seats> } }.
type UpgradePayload struct {
	Plan UpgradePlan `json:"plan"`
}

// UpgradePlan identifies the target plan variant and seat count.
type UpgradePlan struct {
	Value    string `json:"value"`
	Quantity int    `json:"quantity"`
}

// BillingGateway is the external billing API the upgrade mutation is
// submitted to. Implementations must not retry automatically.
type BillingGateway interface {
	UpdateSubscription(ctx context.Context, provider, owner string, payload UpgradePayload) error
}

// GatewayError is a failed gateway call. Detail carries the server-provided
// message when one was present in the response body.
type GatewayError struct {
	Status int
	Detail string
}

func (e *GatewayError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "Something went wrong"
}

// Message returns the text surfaced to the user: the server detail when
// present, otherwise the generic failure message.
func (e *GatewayError) Message() string {
	return e.Error()
}
