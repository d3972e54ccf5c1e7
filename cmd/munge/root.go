package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/japaniel/munge/pkg/config"
	"github.com/japaniel/munge/pkg/logging"
	"github.com/japaniel/munge/pkg/metrics"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	cmd := &cobra.Command{
		Use:           "munge",
		Short:         "Normalize dictionary entries into lemma-grouped JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.NewWriter(cmd.ErrOrStderr(), cfg.Log)
			a.metrics = metrics.New()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $"+config.PathEnv+")")

	cmd.AddCommand(loadCmd(a), exportCmd(a), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the munge version",
		Args:  cobra.NoArgs,
		// No config is needed to print the version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "munge %s\n", version)
		},
	}
}
