package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"uems/internal/export"
	"uems/internal/render"
	"uems/internal/sheets"
	"uems/internal/sheets/memory"
	"uems/internal/storage"
	"uems/internal/views"
)

func viewsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "List dashboard views with their tables and charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VIEW\tLABEL\tTABLES\tCHARTS")
			for _, v := range views.Default().Views() {
				tables := make([]string, len(v.Tables))
				for i, t := range v.Tables {
					tables[i] = t.ID
				}
				charts := make([]string, len(v.Charts))
				for i, c := range v.Charts {
					charts[i] = c.ID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Label,
					strings.Join(tables, ","), strings.Join(charts, ","))
			}
			return tw.Flush()
		},
	}
}

func exportCommand(e *env) *cobra.Command {
	var (
		out string
		pf  periodFlags
	)
	cmd := &cobra.Command{
		Use:   "export <view> [table]",
		Short: "Export a table, or every table of a view, to xlsx",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := pf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := e.app(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var models []views.TableModel
			if len(args) == 2 {
				m, err := a.Dashboard.ExportTable(ctx, args[0], args[1], q)
				if err != nil {
					return err
				}
				models = []views.TableModel{m}
			} else {
				models, err = a.Dashboard.ExportView(ctx, args[0], q)
				if err != nil {
					return err
				}
			}

			if out == "" {
				out = strings.Join(args, "-") + ".xlsx"
			}
			if err := writeFile(out, func(f *os.File) error { return export.WriteWorkbook(f, models) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d table(s) to %s\n", len(models), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <view>[-<table>].xlsx)")
	pf.bind(cmd)
	return cmd
}

func chartCommand(e *env) *cobra.Command {
	var (
		out string
		pf  periodFlags
	)
	cmd := &cobra.Command{
		Use:   "chart <view> <chart>",
		Short: "Render a chart to PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := pf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := e.app(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			cd, err := a.Dashboard.Chart(ctx, args[0], args[1], q)
			if err != nil {
				return err
			}
			if cd.Empty() {
				return fmt.Errorf("chart %s/%s: %w", args[0], args[1], render.ErrEmptyChart)
			}
			if out == "" {
				out = args[0] + "-" + args[1] + ".png"
			}
			if err := writeFile(out, func(f *os.File) error { return render.PNG(f, cd) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default <view>-<chart>.png)")
	pf.bind(cmd)
	return cmd
}

func refreshCommand(e *env) *cobra.Command {
	var (
		reason string
		warm   bool
	)
	cmd := &cobra.Command{
		Use:   "refresh [view]",
		Short: "Publish a refresh request for a view, or for every view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := ""
			if len(args) == 1 {
				view = args[0]
			}
			ctx := cmd.Context()
			a, err := e.app(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			paths, err := a.Dashboard.Refresh(ctx, view, reason)
			if err != nil {
				return err
			}
			if a.AMQP == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "AMQP not configured: nothing was published")
			}
			if warm {
				if err := a.Dashboard.Warm(ctx, paths); err != nil {
					return fmt.Errorf("warm: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshed %d path(s)\n", len(paths))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "cli", "reason recorded in the refresh message")
	cmd.Flags().BoolVar(&warm, "warm", false, "also fetch the paths from this process")
	return cmd
}

func publishSheetCommand(e *env) *cobra.Command {
	var (
		sheet  string
		dryRun bool
		pf     periodFlags
	)
	cmd := &cobra.Command{
		Use:   "publish-sheet <view> <table>",
		Short: "Write a table into the Google spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := pf.query()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := e.app(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.Dashboard.ExportTable(ctx, args[0], args[1], q)
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = sheets.SheetTitle(m)
			}

			if dryRun {
				pub := memory.New()
				if err := pub.PublishTable(ctx, sheet, m); err != nil {
					return err
				}
				grid, _ := pub.Sheet(sheet)
				for _, row := range grid {
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(row, "\t"))
				}
				return nil
			}

			if e.cfg.GoogleSpreadsheetID == "" {
				return errors.New("GOOGLE_SPREADSHEET_ID is not set")
			}
			pub, err := e.opts.NewPublisher(ctx, e.logger)
			if err != nil {
				return err
			}
			if err := pub.PublishTable(ctx, sheet, m); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d row(s) to sheet %q\n", len(m.Rows), sheet)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "target tab (default: the table title)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the rows instead of writing them")
	pf.bind(cmd)
	return cmd
}

func snapshotCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the stored API snapshots",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSnapshotRepository(e.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			snaps, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tROWS\tFETCHES\tFETCHED AT")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Path, s.RowCount, s.FetchCount, s.FetchedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				olderThan = e.cfg.SnapshotRetention
			}
			repo, err := storage.NewSnapshotRepository(e.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := repo.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshot(s)\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 0, "age cutoff (default SNAPSHOT_RETENTION)")

	cmd.AddCommand(list, prune)
	return cmd
}

func migrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the snapshot database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := e.cfg.SQLiteDBPath
			if dir := filepath.Dir(path); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create db directory: %w", err)
				}
			}
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied to %s\n", path)
			return nil
		},
	}
}

// writeFile creates path and removes it again when write fails.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
