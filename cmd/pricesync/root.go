package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfwatch/pricesync/config"
	"github.com/shelfwatch/pricesync/logging"
)

// app carries the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string
	envFile    string

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "pricesync",
		Short: "Supermarket price tracking",
		Long: `pricesync reconciles scraped product records with the tracked catalog.

Each scraped record is classified as a new product, a price change, an
information change or already up to date, and the catalog is updated to
match. The tracked catalog can be browsed through a read-only HTTP API.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (YAML)")
	flags.StringVar(&a.envFile, "env-file", ".env", "environment file loaded when present")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (auto, console, json)")
	flags.String("driver", "", "storage driver (postgres, mongo, memory)")
	cobra.CheckErr(a.v.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(a.v.BindPFlag("log.format", flags.Lookup("log-format")))
	cobra.CheckErr(a.v.BindPFlag("database.driver", flags.Lookup("driver")))

	root.AddCommand(
		newIngestCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logCloser = logging.Configure(&cfg.Log)

	if cfg.File != "" {
		logging.Default().Debug().Str("file", cfg.File).Msg("Loaded config file")
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logging.Default()))
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}
