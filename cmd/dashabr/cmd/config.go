package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/peymanj-dashabr/dashabr/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump the resolved configuration",
	Long: `Dump the resolved configuration values in YAML format: built-in
defaults merged with any config file found in the search path and any
DASHABR_ environment variables. The --config flag is not consulted.

Configuration can be set via:
  - A config file (./config.yaml, $HOME/.dashabr, /etc/dashabr)
  - Environment variables (DASHABR_ABR_STRATEGY, DASHABR_PEP_ENABLED, etc.)
  - Command-line flags on "dashabr play"`,
	RunE: runConfigDump,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	fmt.Println("# dashabr configuration")
	fmt.Println("# Values shown below are defaults merged with any config file and environment overrides.")
	fmt.Println("# Environment variable overrides use the DASHABR_ prefix, e.g. DASHABR_ABR_STRATEGY.")
	fmt.Println()
	fmt.Print(string(yamlData))
	return nil
}
