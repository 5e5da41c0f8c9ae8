package unit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/logger"
)

// MockAccountRepository implements account.Repository for testing.
type MockAccountRepository struct {
	subs    map[string]*account.Subscription
	updates int
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{subs: make(map[string]*account.Subscription)}
}

func (m *MockAccountRepository) key(provider, owner string) string {
	return provider + ":" + owner
}

func (m *MockAccountRepository) GetByOwner(_ context.Context, provider, owner string) (*account.Subscription, error) {
	sub, ok := m.subs[m.key(provider, owner)]
	if !ok {
		return nil, account.NotFoundError(provider, owner)
	}
	return sub, nil
}

func (m *MockAccountRepository) Create(_ context.Context, sub *account.Subscription) error {
	m.subs[m.key(sub.Provider(), sub.Owner())] = sub
	return nil
}

func (m *MockAccountRepository) Update(_ context.Context, sub *account.Subscription) error {
	m.updates++
	m.subs[m.key(sub.Provider(), sub.Owner())] = sub
	return nil
}

func (m *MockAccountRepository) ExpireTrialsDue(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// MockPlanRepository implements plan.Repository for testing.
type MockPlanRepository struct {
	catalog []*plan.Plan
}

func (m *MockPlanRepository) GetByCode(_ context.Context, code string) (*plan.Plan, error) {
	if p, ok := plan.FindByCode(m.catalog, code); ok {
		return p, nil
	}
	return nil, plan.NotFoundError(code)
}

func (m *MockPlanRepository) List(_ context.Context) ([]*plan.Plan, error) {
	return m.catalog, nil
}

func (m *MockPlanRepository) Upsert(_ context.Context, p *plan.Plan) error {
	m.catalog = append(m.catalog, p)
	return nil
}

// MockBillingGateway implements account.BillingGateway for testing.
type MockBillingGateway struct {
	err      error
	calls    int
	payloads []account.UpgradePayload
}

func (m *MockBillingGateway) UpdateSubscription(_ context.Context, _, _ string, payload account.UpgradePayload) error {
	m.calls++
	m.payloads = append(m.payloads, payload)
	return m.err
}

func testCatalog(t *testing.T) []*plan.Plan {
	t.Helper()
	basic, err := plan.NewPlan("users-basic", "Developer", plan.TierBasic, plan.BillingRateNone, 0, 1)
	require.NoError(t, err)
	proM, err := plan.NewPlan("users-pr-inappm", "Pro", plan.TierPro, plan.BillingRateMonthly, 1200, 2)
	require.NoError(t, err)
	proY, err := plan.NewPlan("users-pr-inappy", "Pro", plan.TierPro, plan.BillingRateAnnually, 1000, 2)
	require.NoError(t, err)
	teamM, err := plan.NewPlan("users-teamm", "Team", plan.TierTeam, plan.BillingRateMonthly, 500, 2)
	require.NoError(t, err)
	return []*plan.Plan{basic, proM, proY, teamM}
}

func newUpgradeFixture(t *testing.T) (*app.UpgradeService, *MockAccountRepository, *MockBillingGateway, []*plan.Plan) {
	t.Helper()
	log := logger.NewNop()
	catalog := testCatalog(t)

	accountRepo := NewMockAccountRepository()
	planRepo := &MockPlanRepository{catalog: catalog}
	gateway := &MockBillingGateway{}

	accounts := app.NewAccountService(accountRepo, nil, log)
	plans := app.NewPlanService(planRepo, nil, log)
	svc := app.NewUpgradeService(accounts, plans, accountRepo, gateway, nil, log)

	return svc, accountRepo, gateway, catalog
}

func seedSubscription(t *testing.T, repo *MockAccountRepository, catalog []*plan.Plan, planCode string, seats, activated int) *account.Subscription {
	t.Helper()
	p, ok := plan.FindByCode(catalog, planCode)
	require.True(t, ok)
	sub, err := account.NewSubscription("gh", "critical-role", p, seats)
	require.NoError(t, err)
	sub.SetUserCounts(activated, 0)
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func TestSubmitUpgradeSuccess(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-basic", 1, 3)

	result, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    5,
	})

	require.NoError(t, err)
	assert.Equal(t, "/plan/gh/critical-role", result.RedirectPath)
	assert.Equal(t, "users-pr-inappy", result.Subscription.Plan().Code())
	assert.Equal(t, 5, result.Subscription.Seats())
	assert.Equal(t, 1, accountRepo.updates)

	require.Len(t, gateway.payloads, 1)
	assert.Equal(t, "users-pr-inappy", gateway.payloads[0].Plan.Value)
	assert.Equal(t, 5, gateway.payloads[0].Plan.Quantity)
}

func TestSubmitUpgradeSeatValidationBlocksGateway(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-basic", 1, 0)

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    1,
	})

	var seatErr *app.SeatValidationError
	require.ErrorAs(t, err, &seatErr)
	require.Len(t, seatErr.Errors, 1)
	assert.Equal(t, "You cannot purchase a per user plan for less than 2 users.", seatErr.Errors[0].Message)
	assert.Zero(t, gateway.calls)
	assert.Zero(t, accountRepo.updates)
}

func TestSubmitUpgradeDowngradeBelowActivatedUsers(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 10, 8)

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    5,
	})

	var seatErr *app.SeatValidationError
	require.ErrorAs(t, err, &seatErr)
	assert.Equal(t, "You must deactivate more users before downgrading plans.", seatErr.Errors[0].Message)
	assert.Zero(t, gateway.calls)
}

func TestSubmitUpgradeTeamSeatCeiling(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-basic", 1, 0)

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-teamm",
		Seats:    11,
	})

	var seatErr *app.SeatValidationError
	require.ErrorAs(t, err, &seatErr)
	assert.Equal(t, "Team plan is only available for 10 seats or fewer.", seatErr.Errors[0].Message)
	assert.Zero(t, gateway.calls)
}

func TestSubmitUpgradeTrialSuspendsDowngradeRule(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	sub := seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 10, 8)
	sub.StartTrial(14)

	result, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, result.Subscription.Seats())
	assert.Equal(t, 1, gateway.calls)
}

func TestSubmitUpgradePendingVerificationNeedsConfirmation(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	sub := seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 5, 3)
	sub.SetPendingVerification("https://billing.example.com/verify/abc")

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    6,
	})

	require.ErrorIs(t, err, account.ErrPendingVerification)
	assert.Zero(t, gateway.calls)

	// Confirming discards the pending upgrade and proceeds.
	result, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider:              "gh",
		Owner:                 "critical-role",
		PlanCode:              "users-pr-inappy",
		Seats:                 6,
		ConfirmDiscardPending: true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, gateway.calls)
	assert.False(t, result.Subscription.HasPendingVerification())
}

func TestSubmitUpgradeGatewayFailureLeavesSubscription(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 5, 3)
	gateway.err = &account.GatewayError{Status: 502}

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappm",
		Seats:    6,
	})

	var gwErr *account.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Something went wrong", gwErr.Message())
	assert.Equal(t, 1, gateway.calls)
	assert.Zero(t, accountRepo.updates)

	// The local subscription is unchanged.
	sub, err := accountRepo.GetByOwner(context.Background(), "gh", "critical-role")
	require.NoError(t, err)
	assert.Equal(t, "users-pr-inappy", sub.Plan().Code())
	assert.Equal(t, 5, sub.Seats())
}

func TestSubmitUpgradeGatewayDetailSurfaced(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 5, 3)
	gateway.err = &account.GatewayError{Status: 402, Detail: "Card declined"}

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappm",
		Seats:    6,
	})

	var gwErr *account.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "Card declined", gwErr.Message())
}

func TestSubmitUpgradeUnknownPlan(t *testing.T) {
	svc, accountRepo, gateway, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-basic", 1, 0)

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "gh",
		Owner:    "critical-role",
		PlanCode: "users-gone",
		Seats:    5,
	})

	require.Error(t, err)
	assert.Zero(t, gateway.calls)
}

func TestSubmitUpgradeRejectsInvalidInput(t *testing.T) {
	svc, _, gateway, _ := newUpgradeFixture(t)

	_, err := svc.SubmitUpgrade(context.Background(), app.UpgradeInput{
		Provider: "svn",
		Owner:    "critical-role",
		PlanCode: "users-pr-inappy",
		Seats:    5,
	})

	require.Error(t, err)
	assert.Zero(t, gateway.calls)
}

func TestPreviewUpgradeNoAccount(t *testing.T) {
	svc, _, _, _ := newUpgradeFixture(t)

	view, err := svc.PreviewUpgrade(context.Background(), "gh", "new-owner", "", 0)

	require.NoError(t, err)
	// Defaults to Pro annual at its minimum quantity.
	assert.Equal(t, "users-pr-inappy", view.PlanCode)
	assert.Equal(t, 2, view.Seats)
	assert.Equal(t, app.ButtonEnabled, view.Button)
}

func TestPreviewUpgradeSeatErrorDisablesButton(t *testing.T) {
	svc, accountRepo, _, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-pr-inappy", 5, 3)

	view, err := svc.PreviewUpgrade(context.Background(), "gh", "critical-role", "users-pr-inappy", 1)

	require.NoError(t, err)
	require.NotEmpty(t, view.SeatErrors)
	assert.Equal(t, app.ButtonDisabled, view.Button)
}

func TestPreviewUpgradePrices(t *testing.T) {
	svc, accountRepo, _, catalog := newUpgradeFixture(t)
	seedSubscription(t, accountRepo, catalog, "users-basic", 1, 0)

	view, err := svc.PreviewUpgrade(context.Background(), "gh", "critical-role", "users-pr-inappy", 10)

	require.NoError(t, err)
	assert.Equal(t, plan.Cents(12000), view.Monthly)
	assert.Equal(t, plan.Cents(10000), view.Annual)
}

func TestPreviewUpgradeUnknownPlan(t *testing.T) {
	svc, _, _, _ := newUpgradeFixture(t)

	_, err := svc.PreviewUpgrade(context.Background(), "gh", "critical-role", "users-gone", 0)

	require.ErrorIs(t, err, plan.ErrNotFound)
}
