package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakescan-io/lakescan/internal/collector"
	"github.com/lakescan-io/lakescan/internal/config"
	"github.com/lakescan-io/lakescan/internal/export"
	"github.com/lakescan-io/lakescan/internal/state"
	"github.com/lakescan-io/lakescan/pkg/catalog"
	"github.com/lakescan-io/lakescan/pkg/stats"
	"github.com/lakescan-io/lakescan/pkg/usage"
	"github.com/lakescan-io/lakescan/pkg/warehouse"
)

// NewCollectCommand creates the collect command.
func NewCollectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect table metadata for one catalog schema",
		Long: `Collect lists every table in the target schema, fetches each table's
descriptor from the catalog API, probes storage statistics through the SQL
warehouse, optionally aggregates access history, and writes one report.`,
		RunE: runCollect,
	}

	cmd.Flags().String("catalog", "", "Catalog to collect from")
	cmd.Flags().String("schema", "", "Schema to collect from")
	cmd.Flags().String("table-filter", "", "Glob pattern applied to table names")
	cmd.Flags().Bool("include-usage", true, "Aggregate access history per table")
	cmd.Flags().Int("usage-window-days", 0, "Usage lookback window in days")
	cmd.Flags().Int("concurrency", 0, "Tables collected in parallel")
	cmd.Flags().StringP("output", "o", "", "Output format (table|json|csv|parquet)")
	cmd.Flags().String("output-file", "", "Write the report to a file instead of stdout")
	cmd.Flags().String("host", "", "Catalog API base URL")
	cmd.Flags().String("token", "", "Catalog API bearer token")
	cmd.Flags().String("state", "", "Run history database path")
	cmd.Flags().Bool("no-state", false, "Disable run history persistence")

	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "parquet"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCollect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cmd)

	format, err := export.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	directory, err := catalog.New(catalog.Config{
		Host:       cfg.Directory.Host,
		Token:      cfg.Directory.Token,
		Timeout:    cfg.Directory.Timeout,
		MaxRetries: cfg.Directory.MaxRetries,
		PageSize:   cfg.Directory.PageSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := warehouse.Open(ctx, cfg.Warehouse, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to query engine: %w", err)
	}
	defer db.Close()

	var recorder collector.RunRecorder
	if noState, _ := cmd.Flags().GetBool("no-state"); !noState {
		store, err := openStateStore(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	aggregator := collector.NewAggregator(directory, stats.New(db, logger), usage.New(db, logger), logger)

	coord, err := collector.NewCoordinator(collector.Config{
		Catalog:         cfg.Catalog,
		Schema:          cfg.Schema,
		IncludeUsage:    cfg.IncludeUsage,
		UsageWindowDays: cfg.UsageWindowDays,
		Concurrency:     cfg.Concurrency,
		TableFilter:     cfg.TableFilter,
	}, aggregator, directory, recorder, logger)
	if err != nil {
		return err
	}

	started := time.Now()
	report, err := coord.Run(ctx)
	if err != nil {
		return err
	}

	out, closeOut, err := reportWriter(cmd, cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := export.Write(out, report, format); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.OutputFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s (%s)\n",
			cfg.OutputFile, time.Since(started).Round(time.Millisecond))
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

// openStateStore opens the run history database, creating its directory if
// needed.
func openStateStore(path string) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	return state.Open(path)
}

func reportWriter(cmd *cobra.Command, outputFile string) (io.Writer, func(), error) {
	if outputFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
