package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagAPIURL   string
	flagAPIToken string
	flagContext  string
	flagOutput   string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "covermap-admin",
	Short: "Covermap billing administration CLI",
	Long: `covermap-admin is a kubectl-style CLI for inspecting Covermap billing state.

It provides commands to list the plan catalog, inspect account
subscriptions and repository lists, and submit plan changes.

Use "covermap-admin config set-context" to configure your connection.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("covermap-admin %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Override API URL (env: COVERMAP_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagAPIToken, "api-token", "", "Override API token (env: COVERMAP_API_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&flagContext, "context", "c", "", "Use specific context (env: COVERMAP_CONTEXT)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(upgradeCmd)
}

func initConfig() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("COVERMAP_API_URL")
	}
	if flagAPIToken == "" {
		flagAPIToken = os.Getenv("COVERMAP_API_TOKEN")
	}

	if flagAPIURL == "" || flagAPIToken == "" {
		u, t := resolveFromConfigFile()
		if flagAPIURL == "" {
			flagAPIURL = u
		}
		if flagAPIToken == "" {
			flagAPIToken = t
		}
	}
}

func resolveFromConfigFile() (string, string) {
	ctxName := flagContext
	if ctxName == "" {
		ctxName = os.Getenv("COVERMAP_CONTEXT")
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", ""
	}

	if ctxName == "" {
		ctxName = cfg.CurrentContext
	}

	ctx := cfg.GetContext(ctxName)
	if ctx == nil {
		return "", ""
	}

	token := ctx.Context.APIToken
	if token == "" && ctx.Context.APITokenFile != "" {
		data, err := os.ReadFile(expandPath(ctx.Context.APITokenFile))
		if err == nil {
			token = string(data)
		}
	}

	return ctx.Context.APIURL, token
}

func mustClient() *Client {
	if flagAPIURL == "" {
		fmt.Fprintln(os.Stderr, "Error: API URL not configured. Use --api-url, COVERMAP_API_URL, or 'covermap-admin config set-context'")
		os.Exit(1)
	}
	if flagAPIToken == "" {
		fmt.Fprintln(os.Stderr, "Error: API token not configured. Use --api-token, COVERMAP_API_TOKEN, or 'covermap-admin config set-context'")
		os.Exit(1)
	}
	return NewClient(flagAPIURL, flagAPIToken, flagVerbose)
}
