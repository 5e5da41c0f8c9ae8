package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "List resources",
}

var getPlansCmd = &cobra.Command{
	Use:     "plans",
	Aliases: []string{"plan"},
	Short:   "List the plan catalog",
	RunE:    runGetPlans,
}

var getAccountCmd = &cobra.Command{
	Use:   "account PROVIDER/OWNER",
	Short: "Show an account subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runGetAccount,
}

var getReposCmd = &cobra.Command{
	Use:     "repos PROVIDER/OWNER",
	Aliases: []string{"repo"},
	Short:   "List an owner's repositories",
	Args:    cobra.ExactArgs(1),
	RunE:    runGetRepos,
}

func init() {
	getReposCmd.Flags().String("search", "", "Filter by name (debounced on the web, immediate here)")
	getReposCmd.Flags().String("sort", "", "Sort column: name, coverage, latestCommitAt")
	getReposCmd.Flags().String("direction", "", "Sort direction: ASC, DESC")
	getReposCmd.Flags().String("filter", "", "Configured filter: CONFIGURED, NOT_CONFIGURED, ALL")
	getReposCmd.Flags().String("cursor", "", "Pagination cursor from a previous page")
	getReposCmd.Flags().Int("page-size", 0, "Page size")

	getCmd.AddCommand(getPlansCmd)
	getCmd.AddCommand(getAccountCmd)
	getCmd.AddCommand(getReposCmd)
}

// splitOwner parses a PROVIDER/OWNER argument.
func splitOwner(arg string) (string, string, error) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected PROVIDER/OWNER, got %q", arg)
	}
	return parts[0], parts[1], nil
}

type planItem struct {
	Value          string `json:"value"`
	MarketingName  string `json:"marketingName"`
	TierName       string `json:"tierName"`
	BillingRate    string `json:"billingRate"`
	FormattedPrice string `json:"formattedPrice"`
	Quantity       int    `json:"quantity"`
	HasSeatsLeft   bool   `json:"hasSeatsLeft"`
}

func runGetPlans(_ *cobra.Command, _ []string) error {
	client := mustClient()

	data, err := client.Get("/api/v1/plans")
	if err != nil {
		return err
	}

	var resp struct {
		Data []planItem `json:"data"`
	}
	if err := unmarshal(data, &resp); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(resp.Data)
	case outputYAML:
		printYAML(resp.Data)
	default:
		t := newTable("PLAN", "NAME", "TIER", "RATE", "PRICE/SEAT", "MIN SEATS", "SEATS LEFT")
		for _, p := range resp.Data {
			t.AddRow(p.Value, p.MarketingName, p.TierName, p.BillingRate,
				p.FormattedPrice, strconv.Itoa(p.Quantity), strconv.FormatBool(p.HasSeatsLeft))
		}
		t.Flush()
	}
	return nil
}

type accountItem struct {
	Provider           string     `json:"provider"`
	Owner              string     `json:"owner"`
	Plan               *planItem  `json:"plan"`
	Seats              int        `json:"seats"`
	ActivatedUserCount int        `json:"activatedUserCount"`
	InactiveUserCount  int        `json:"inactiveUserCount"`
	TrialStatus        string     `json:"trialStatus"`
	TrialEndAt         *time.Time `json:"trialEndAt"`
}

func runGetAccount(_ *cobra.Command, args []string) error {
	provider, owner, err := splitOwner(args[0])
	if err != nil {
		return err
	}
	client := mustClient()

	data, err := client.Get(fmt.Sprintf("/api/v1/%s/%s/account", provider, owner))
	if err != nil {
		return err
	}

	var acct accountItem
	if err := unmarshal(data, &acct); err != nil {
		return err
	}

	switch flagOutput {
	case outputJSON:
		printJSON(acct)
	case outputYAML:
		printYAML(acct)
	default:
		planCode := "-"
		if acct.Plan != nil {
			planCode = acct.Plan.Value
		}
		t := newTable("OWNER", "PLAN", "SEATS", "ACTIVATED", "INACTIVE", "TRIAL")
		t.AddRow(acct.Provider+"/"+acct.Owner, planCode,
			strconv.Itoa(acct.Seats), strconv.Itoa(acct.ActivatedUserCount),
			strconv.Itoa(acct.InactiveUserCount), acct.TrialStatus)
		t.Flush()
	}
	return nil
}

type repoItem struct {
	Name           string     `json:"name"`
	Private        bool       `json:"private"`
	Configured     bool       `json:"configured"`
	Coverage       *float64   `json:"coverage"`
	LatestCommitAt *time.Time `json:"latestCommitAt"`
	Kind           string     `json:"kind"`
}

func runGetRepos(cmd *cobra.Command, args []string) error {
	provider, owner, err := splitOwner(args[0])
	if err != nil {
		return err
	}
	client := mustClient()

	params := url.Values{}
	stringFlags := map[string]string{
		"search":    "term",
		"sort":      "sort",
		"direction": "direction",
		"filter":    "filter",
		"cursor":    "after",
	}
	for flag, param := range stringFlags {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			params.Set(param, v)
		}
	}
	if v, _ := cmd.Flags().GetInt("page-size"); v > 0 {
		params.Set("pageSize", strconv.Itoa(v))
	}

	path := fmt.Sprintf("/api/v1/%s/%s/repos", provider, owner)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	data, err := client.Get(path)
	if err != nil {
		return err
	}

	var resp struct {
		Data     []repoItem `json:"data"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
		EmptyState string `json:"emptyState"`
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
		if resp.EmptyState != "" {
			fmt.Println(resp.EmptyState)
			return nil
		}
		t := newTable("NAME", "PRIVATE", "CONFIGURED", "COVERAGE", "LAST COMMIT", "KIND")
		for _, r := range resp.Data {
			coverage := "-"
			if r.Coverage != nil {
				coverage = fmt.Sprintf("%.2f%%", *r.Coverage)
			}
			lastCommit := "-"
			if r.LatestCommitAt != nil {
				lastCommit = r.LatestCommitAt.Format(time.RFC3339)
			}
			t.AddRow(r.Name, strconv.FormatBool(r.Private), strconv.FormatBool(r.Configured),
				coverage, lastCommit, r.Kind)
		}
		t.Flush()
		if resp.PageInfo.HasNextPage {
			fmt.Printf("\nMore results available. Next cursor: %s\n", resp.PageInfo.EndCursor)
		}
	}
	return nil
}
