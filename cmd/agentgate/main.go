// Package main implements the agentgate CLI for offline payload checking
// and agent spec inspection.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agentgate/internal/config"
	"github.com/fyrsmithlabs/agentgate/pkg/agentspec"
)

var (
	// configPath is the optional YAML config file.
	configPath string
	// specsDir overrides the configured spec directory.
	specsDir string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "Policy checks for shopping-agent payloads",
	Long: `agentgate validates model-authored payloads against the agent output
gateway's policy, without executing anything: responses, requests, query
descriptors, and tool calls are checked exactly as the gateway would check
them in production, and the verdict is printed.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&specsDir, "specs-dir", "", "agent spec directory (overrides config)")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(specsCmd)
}

// loadConfig resolves config from flags, file, and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if specsDir != "" {
		cfg.Specs.Dir = specsDir
	}
	return cfg, nil
}

// newLoader builds the spec loader from resolved config.
func newLoader() (*agentspec.Loader, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return agentspec.NewLoader(cfg.Specs.Dir), nil
}

// readInput reads JSON from a file argument or stdin ("-" or no argument).
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return readAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
