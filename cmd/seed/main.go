// Command seed loads the plan catalog and the demo repository into the
// database. It is idempotent: catalog entries are upserted and an
// existing demo repo is left alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/internal/infra/postgres"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/domain/shared"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Seed completed successfully!")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	fmt.Println("Connected to database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedPlans(ctx, postgres.NewPlanRepository(db)); err != nil {
		return err
	}
	if err := seedDemoRepo(ctx, postgres.NewRepoRepository(db), cfg.Demo); err != nil {
		return err
	}
	return nil
}

type catalogEntry struct {
	code          string
	marketingName string
	tier          plan.Tier
	rate          plan.BillingRate
	baseUnitPrice plan.Cents
	quantity      int
	benefits      []string
	uploadLimit   *int
	trialDays     *int
}

// catalog is the full plan catalog: the free plan, a fourteen-day trial
// and the monthly/annual variants of every paid tier.
var catalog = []catalogEntry{
	{
		code:          "users-basic",
		marketingName: "Developer",
		tier:          plan.TierBasic,
		rate:          plan.BillingRateNone,
		baseUnitPrice: 0,
		quantity:      1,
		benefits:      []string{"Up to 1 user", "Unlimited public repositories", "Unlimited private repositories"},
		uploadLimit:   intPtr(250),
	},
	{
		code:          "users-trial",
		marketingName: "Trial",
		tier:          plan.TierTrial,
		rate:          plan.BillingRateNone,
		baseUnitPrice: 0,
		quantity:      1,
		benefits:      []string{"Full Pro access during the trial"},
		trialDays:     intPtr(14),
	},
	{
		code:          "users-pr-inappm",
		marketingName: "Pro",
		tier:          plan.TierPro,
		rate:          plan.BillingRateMonthly,
		baseUnitPrice: 1200,
		quantity:      2,
		benefits:      []string{"Configurable # of users", "Unlimited public repositories", "Unlimited private repositories", "Priority Support"},
	},
	{
		code:          "users-pr-inappy",
		marketingName: "Pro",
		tier:          plan.TierPro,
		rate:          plan.BillingRateAnnually,
		baseUnitPrice: 1000,
		quantity:      2,
		benefits:      []string{"Configurable # of users", "Unlimited public repositories", "Unlimited private repositories", "Priority Support"},
	},
	{
		code:          "users-sentrym",
		marketingName: "Pro with Sentry",
		tier:          plan.TierSentry,
		rate:          plan.BillingRateMonthly,
		baseUnitPrice: 1200,
		quantity:      5,
		benefits:      []string{"Includes 5 seats", "Unlimited public repositories", "Unlimited private repositories", "Priority Support"},
	},
	{
		code:          "users-sentryy",
		marketingName: "Pro with Sentry",
		tier:          plan.TierSentry,
		rate:          plan.BillingRateAnnually,
		baseUnitPrice: 900,
		quantity:      5,
		benefits:      []string{"Includes 5 seats", "Unlimited public repositories", "Unlimited private repositories", "Priority Support"},
	},
	{
		code:          "users-teamm",
		marketingName: "Team",
		tier:          plan.TierTeam,
		rate:          plan.BillingRateMonthly,
		baseUnitPrice: 500,
		quantity:      2,
		benefits:      []string{"Up to 10 users", "Unlimited repositories", "2500 private repo uploads"},
		uploadLimit:   intPtr(2500),
	},
	{
		code:          "users-teamy",
		marketingName: "Team",
		tier:          plan.TierTeam,
		rate:          plan.BillingRateAnnually,
		baseUnitPrice: 400,
		quantity:      2,
		benefits:      []string{"Up to 10 users", "Unlimited repositories", "2500 private repo uploads"},
		uploadLimit:   intPtr(2500),
	},
}

func seedPlans(ctx context.Context, plans *postgres.PlanRepository) error {
	for _, entry := range catalog {
		p, err := plan.NewPlan(entry.code, entry.marketingName, entry.tier, entry.rate, entry.baseUnitPrice, entry.quantity)
		if err != nil {
			return fmt.Errorf("build plan %s: %w", entry.code, err)
		}
		p.SetBenefits(entry.benefits)
		p.SetMonthlyUploadLimit(entry.uploadLimit)
		p.SetTrialDays(entry.trialDays)

		if err := plans.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert plan %s: %w", entry.code, err)
		}
		fmt.Printf("Upserted plan %s\n", entry.code)
	}
	return nil
}

func seedDemoRepo(ctx context.Context, repos *postgres.RepoRepository, demo config.DemoConfig) error {
	r, err := repo.NewRepository(demo.Provider, demo.Owner, demo.RepoName, false)
	if err != nil {
		return fmt.Errorf("build demo repo: %w", err)
	}
	r.EnableCoverage()
	r.SetCoverage(94.3, 12840)
	r.RecordCommit(time.Now().UTC())

	if err := repos.Create(ctx, r); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			fmt.Printf("Demo repo %s/%s/%s already present\n", demo.Provider, demo.Owner, demo.RepoName)
			return nil
		}
		return fmt.Errorf("create demo repo: %w", err)
	}
	fmt.Printf("Created demo repo %s/%s/%s\n", demo.Provider, demo.Owner, demo.RepoName)
	return nil
}

func intPtr(n int) *int { return &n }
