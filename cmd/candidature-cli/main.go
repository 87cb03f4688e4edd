package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"candidature-ai/internal/config"
	"candidature-ai/internal/logging"
)

type options struct {
	configPath string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "candidature-cli",
		Short: "Operator tooling for the Candidature AI service",
		Long: `candidature-cli runs pieces of the generation pipeline outside the HTTP
server: normalize an intake body, render a CV to LaTeX or PDF, run one
generation against the configured provider, or create the database schema.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newNormalizeCmd(opts),
		newRenderCmd(opts),
		newGenerateCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// load reads configuration and points logging at stderr so command output
// stays machine readable
func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Adapters = []config.AdapterConfig{{
		Name:    "stderr",
		Type:    "file",
		Enabled: true,
		Options: map[string]interface{}{"file_path": "/dev/stderr", "format": "text"},
	}}
	if o.verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "warn"
	}
	if err := logging.InitializeLogging(cfg); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	return cfg, nil
}

// readInput reads the named file, or stdin for "-"
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
