// Package cli implements the uemsctl command tree.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"uems/internal/app"
	"uems/internal/config"
	"uems/internal/core"
	"uems/internal/log"
	"uems/internal/sheets"
	gsheet "uems/internal/sheets/google"
	"uems/internal/views"
)

// Options lets callers replace the environment backed defaults.
type Options struct {
	// LoadConfig defaults to config.Load after reading .env.
	LoadConfig func() *config.Config
	// NewPublisher defaults to the Google Sheets publisher.
	NewPublisher func(ctx context.Context, logger *log.Logger) (sheets.TablePublisher, error)
}

// env is shared by the sub commands of one invocation.
type env struct {
	opts   Options
	cfg    *config.Config
	logger *log.Logger
}

// NewRootCommand builds uemsctl.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadConfig == nil {
		opts.LoadConfig = func() *config.Config {
			// Load .env file for local development (ignore errors in production/docker)
			_ = godotenv.Load()
			return config.Load()
		}
	}
	if opts.NewPublisher == nil {
		opts.NewPublisher = func(ctx context.Context, logger *log.Logger) (sheets.TablePublisher, error) {
			return gsheet.NewFromEnv(ctx, logger)
		}
	}
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:           "uemsctl",
		Short:         "Operate the UEMS metering dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.cfg = e.opts.LoadConfig()
			e.logger = log.New(log.Config{
				Level:     log.ParseLevel(e.cfg.LogLevel),
				Format:    e.cfg.LogFormat,
				Component: log.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.AddCommand(
		viewsCommand(),
		exportCommand(e),
		chartCommand(e),
		refreshCommand(e),
		publishSheetCommand(e),
		snapshotCommand(e),
		migrateCommand(e),
	)
	return root
}

// app validates the configuration and wires the dashboard.
func (e *env) app(ctx context.Context, connectAMQP bool) (*app.App, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, e.cfg, e.logger, app.Options{ConnectAMQP: connectAMQP})
}

// periodFlags binds the filter flags shared by export, chart and publish.
type periodFlags struct {
	search string
	filter string
	year   int
	month  string
}

func (p *periodFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.search, "query", "q", "", "free text search")
	cmd.Flags().StringVar(&p.filter, "filter", "", "dropdown filter value")
	cmd.Flags().IntVar(&p.year, "year", 0, "period year")
	cmd.Flags().StringVar(&p.month, "month", "", "period month (1-12 or name)")
}

func (p *periodFlags) query() (views.Query, error) {
	q := views.Query{Search: p.search, Filter: p.filter, Year: p.year}
	if p.month != "" {
		m, ok := core.MonthFromName(p.month)
		if !ok {
			return q, fmt.Errorf("invalid month %q", p.month)
		}
		q.Month = m
	}
	return q, nil
}
