// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ManuGH/loomsrc/internal/config"
	xglog "github.com/ManuGH/loomsrc/internal/log"
	"github.com/ManuGH/loomsrc/internal/validate"
	"github.com/ManuGH/loomsrc/internal/version"
)

// usageError marks bad invocations; they exit with code 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func exitCode(err error) int {
	var uerr *usageError
	if errors.As(err, &uerr) || errors.Is(err, validate.ErrInvalid) {
		return 2
	}
	return 1
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logOutput  io.Writer
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	opts := &rootOptions{logOutput: logOutput}
	cmd := &cobra.Command{
		Use:           "loomsrc",
		Short:         "Decompile jars and remap the sources into readable names",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML configuration file (default $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(
		newDecompileCmd(opts),
		newConfigCmd(opts),
		newMappingsCmd(opts),
		newBackendsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) path() string {
	if p := strings.TrimSpace(o.configPath); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(config.EnvConfigPath))
}

// load resolves the configuration and reconfigures logging from it.
func (o *rootOptions) load() (config.AppConfig, error) {
	cfg, err := config.NewLoader(o.path(), version.Version).Load()
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  o.logOutput,
		Service: "loomsrc",
		Version: version.Version,
	})
	return cfg, nil
}
