package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config types

type Config struct {
	APIVersion     string         `yaml:"apiVersion"`
	Kind           string         `yaml:"kind"`
	CurrentContext string         `yaml:"current-context"`
	Contexts       []NamedContext `yaml:"contexts"`
}

type NamedContext struct {
	Name    string        `yaml:"name"`
	Context ContextDetail `yaml:"context"`
}

type ContextDetail struct {
	APIURL       string `yaml:"api-url"`
	APIToken     string `yaml:"api-token,omitempty"`
	APITokenFile string `yaml:"api-token-file,omitempty"`
}

func configDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".covermap")
}

func configPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, p[2:])
	}
	return p
}

func loadConfig() (*Config, error) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "admin.covermap.io/v1"
	}
	if cfg.Kind == "" {
		cfg.Kind = "Config"
	}

	if err := os.MkdirAll(configDir(), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath(), data, 0600)
}

func (c *Config) GetContext(name string) *NamedContext {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			return &c.Contexts[i]
		}
	}
	return nil
}

func (c *Config) SetContext(name string, ctx ContextDetail) {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			c.Contexts[i].Context = ctx
			return
		}
	}
	c.Contexts = append(c.Contexts, NamedContext{Name: name, Context: ctx})
}

// Commands

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
}

var configSetContextCmd = &cobra.Command{
	Use:   "set-context NAME",
	Short: "Create or update a named context",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetContext,
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context NAME",
	Short: "Switch the current context",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUseContext,
}

var configGetContextsCmd = &cobra.Command{
	Use:   "get-contexts",
	Short: "List configured contexts",
	RunE:  runConfigGetContexts,
}

func init() {
	configSetContextCmd.Flags().String("api-url", "", "API base URL")
	configSetContextCmd.Flags().String("api-token", "", "API token")
	configSetContextCmd.Flags().String("api-token-file", "", "Path to a file holding the API token")

	configCmd.AddCommand(configSetContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextsCmd)
}

func runConfigSetContext(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := loadConfig()
	if err != nil {
		cfg = &Config{}
	}

	detail := ContextDetail{}
	if existing := cfg.GetContext(name); existing != nil {
		detail = existing.Context
	}
	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		detail.APIURL = v
	}
	if v, _ := cmd.Flags().GetString("api-token"); v != "" {
		detail.APIToken = v
	}
	if v, _ := cmd.Flags().GetString("api-token-file"); v != "" {
		detail.APITokenFile = v
	}

	cfg.SetContext(name, detail)
	if cfg.CurrentContext == "" {
		cfg.CurrentContext = name
	}

	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("Context %q saved\n", name)
	return nil
}

func runConfigUseContext(_ *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("no config file; run 'covermap-admin config set-context' first")
	}
	if cfg.GetContext(name) == nil {
		return fmt.Errorf("context %q not found", name)
	}

	cfg.CurrentContext = name
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("Switched to context %q\n", name)
	return nil
}

func runConfigGetContexts(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("no config file; run 'covermap-admin config set-context' first")
	}

	t := newTable("CURRENT", "NAME", "API URL")
	for _, ctx := range cfg.Contexts {
		current := ""
		if ctx.Name == cfg.CurrentContext {
			current = "*"
		}
		t.AddRow(current, ctx.Name, ctx.Context.APIURL)
	}
	t.Flush()
	return nil
}
