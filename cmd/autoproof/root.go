package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autoproof/autoproof/pkg/config"
	"github.com/autoproof/autoproof/pkg/logger"
)

var version = "1.0.0"

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "autoproof",
		Short: "Compliance violation detection pipeline",
		Long: `Autoproof scans text and configuration for compliance violations using a
multi-stage pipeline: regex pattern matching, entity tagging, config
linting, regulatory analysis, and tiered LLM analysis.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML/JSON config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, text)")

	cmd.AddCommand(newAnalyzeCommand(opts))
	cmd.AddCommand(newPatternsCommand())
	cmd.AddCommand(newRegulationsCommand())

	return cmd
}

// loadEnvironment builds the effective config and logger for a command run.
func (o *rootOptions) loadEnvironment() (*config.Config, *logger.Logger, error) {
	if err := config.LoadDotenv(); err != nil {
		return nil, nil, err
	}

	cfg, err := config.NewLoader().Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}

	log := logger.NewLogger(&logger.Config{
		Level:   logger.ParseLogLevel(cfg.Logging.Level),
		Format:  logger.ParseLogFormat(cfg.Logging.Format),
		Service: cfg.Service.Name,
		Version: cfg.Service.Version,
	})
	return cfg, log, nil
}
