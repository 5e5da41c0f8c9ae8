package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade PROVIDER/OWNER",
	Short: "Change an account's plan",
	Long: `Change an account's plan and seat count.

With --dry-run the change is only previewed: the server returns the
computed seat bounds, both cadence totals and any seat validation
errors without touching the subscription.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpgrade,
}

func init() {
	upgradeCmd.Flags().String("plan", "", "Target plan code (e.g. users-pr-inappy)")
	upgradeCmd.Flags().Int("seats", 0, "Seat count")
	upgradeCmd.Flags().Bool("dry-run", false, "Preview the change without submitting")
	upgradeCmd.Flags().Bool("confirm-discard-pending", false, "Discard a prior upgrade awaiting payment verification")
	_ = upgradeCmd.MarkFlagRequired("plan")
}

type formView struct {
	Plan             string `json:"plan"`
	Seats            int    `json:"seats"`
	MinSeats         int    `json:"minSeats"`
	MaxSeats         *int   `json:"maxSeats"`
	MonthlyFormatted string `json:"monthlyFormatted"`
	AnnualFormatted  string `json:"annualFormatted"`
	SeatErrors       []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"seatErrors"`
	Button       string `json:"button"`
	TrialOngoing bool   `json:"trialOngoing"`
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	provider, owner, err := splitOwner(args[0])
	if err != nil {
		return err
	}
	client := mustClient()

	planCode, _ := cmd.Flags().GetString("plan")
	seats, _ := cmd.Flags().GetInt("seats")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	confirmDiscard, _ := cmd.Flags().GetBool("confirm-discard-pending")

	selection := map[string]any{
		"plan": map[string]any{
			"value":    planCode,
			"quantity": seats,
		},
	}

	if dryRun {
		data, err := client.Post(fmt.Sprintf("/api/v1/%s/%s/account/preview", provider, owner), selection)
		if err != nil {
			return err
		}

		var view formView
		if err := unmarshal(data, &view); err != nil {
			return err
		}

		switch flagOutput {
		case outputJSON:
			printJSON(view)
		case outputYAML:
			printYAML(view)
		default:
			printFormView(view)
		}
		return nil
	}

	selection["confirmDiscardPending"] = confirmDiscard
	data, err := client.Patch(fmt.Sprintf("/api/v1/%s/%s/account", provider, owner), selection)
	if err != nil {
		return err
	}

	var resp struct {
		Account      accountItem `json:"account"`
		RedirectPath string      `json:"redirectPath"`
	}
	if err := unmarshal(data, &resp); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(resp)
	case outputYAML:
		printYAML(resp)
	default:
		planCode := "-"
		if resp.Account.Plan != nil {
			planCode = resp.Account.Plan.Value
		}
		fmt.Printf("Upgraded %s/%s to %s with %d seats\n",
			resp.Account.Provider, resp.Account.Owner, planCode, resp.Account.Seats)
	}
	return nil
}

func printFormView(view formView) {
	fmt.Printf("Plan:      %s\n", view.Plan)
	fmt.Printf("Seats:     %d (min %d", view.Seats, view.MinSeats)
	if view.MaxSeats != nil {
		fmt.Printf(", max %d", *view.MaxSeats)
	}
	fmt.Println(")")
	fmt.Printf("Monthly:   %s\n", view.MonthlyFormatted)
	fmt.Printf("Annual:    %s\n", view.AnnualFormatted)
	if view.TrialOngoing {
		fmt.Println("Trial:     ongoing")
	}
	if len(view.SeatErrors) > 0 {
		fmt.Println("Errors:")
		for _, se := range view.SeatErrors {
			fmt.Printf("  - %s: %s\n", se.Field, se.Message)
		}
	}
	fmt.Printf("Button:    %s\n", view.Button)
}
