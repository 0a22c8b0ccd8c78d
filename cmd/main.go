package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/adapters/repository"
	service "github.com/everworldlife-netizen/Live-Lox-Model/internal/app"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/config"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

var version = "dev"

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli holds what the persistent hooks prepare for the subcommands.
type cli struct {
	configPath  string
	metricsFile string

	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "livelox",
		Short:         "NBA news signals to player projections",
		Long:          "livelox turns collector output into minutes and lineup assumptions and projects player stat lines against them.",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.metricsFile == "" || cmd.Name() == "version" {
				return nil
			}
			if err := metrics.WriteTextfile(c.metricsFile); err != nil {
				return err
			}
			c.log.Debug(cmd.Context(), "metrics written", logger.String("path", c.metricsFile))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to YAML config (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the command")

	root.AddCommand(
		c.ingestCmd(),
		c.projectCmd(),
		c.rosterCmd(),
		versionCmd(),
	)
	return root
}

// setup loads configuration (defaults -> optional file -> env) and
// initializes logging and metrics from it.
func (c *cli) setup(cmd *cobra.Command) error {
	ctx := cmd.Context()

	path := c.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.LoadFrom(ctx, path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), logger.Format(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := metrics.Configure(service.MetricsOptions(cfg)...); err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	c.cfg = cfg
	c.log = logger.Named("cli")
	return nil
}

// openService opens the configured store and builds a service over it.
func (c *cli) openService(ctx context.Context) (*service.Service, error) {
	store, err := repository.OpenSQLite(ctx, c.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	opts, err := service.OptionsFromConfig(ctx, c.cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	opts = append(opts, service.WithLogger(logger.Named("service")))
	return service.New(store, opts...), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "livelox", version)
		},
	}
}
