package collector

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// Default coordinator settings.
const (
	DefaultConcurrency     = 4
	DefaultUsageWindowDays = 30
	DefaultGracePeriod     = 10 * time.Second
)

// Config holds one run's parameters. CLI/env parsing happens elsewhere;
// the coordinator consumes already-parsed values.
type Config struct {
	Catalog string
	Schema  string

	// IncludeUsage enables the usage-history enrichment.
	IncludeUsage bool
	// UsageWindowDays is the usage lookback window. Must be positive when
	// IncludeUsage is set.
	UsageWindowDays int
	// Concurrency bounds simultaneously in-flight table aggregations.
	// Zero means DefaultConcurrency.
	Concurrency int
	// TableFilter is an optional glob pattern applied to table names.
	TableFilter string
	// GracePeriod bounds how long in-flight table work may finish after the
	// run context is cancelled. Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// Validate rejects configurations that must stop the run before any
// aggregation starts.
func (c *Config) Validate() error {
	if err := core.ValidateIdentifier("catalog", c.Catalog); err != nil {
		return err
	}
	if err := core.ValidateIdentifier("schema", c.Schema); err != nil {
		return err
	}
	if c.IncludeUsage && c.UsageWindowDays <= 0 {
		return &core.InvalidArgumentError{Field: "usage_window_days", Reason: fmt.Sprintf("must be positive, got %d", c.UsageWindowDays)}
	}
	if c.Concurrency < 0 {
		return &core.InvalidArgumentError{Field: "concurrency", Reason: fmt.Sprintf("must be positive, got %d", c.Concurrency)}
	}
	if c.TableFilter != "" {
		if _, err := path.Match(c.TableFilter, "probe"); err != nil {
			return &core.InvalidArgumentError{Field: "table_filter", Reason: fmt.Sprintf("invalid pattern %q", c.TableFilter)}
		}
	}
	return nil
}

// RunRecorder persists run lifecycle events. internal/state provides the
// SQLite implementation; a nil recorder disables persistence.
type RunRecorder interface {
	CreateRun(id, catalog, schema string) error
	CompleteRun(id, status string, summary core.RunSummary, errMsg string) error
}

// Coordinator drives aggregation across every table in one catalog/schema
// scope and assembles the collection report.
type Coordinator struct {
	aggregator *Aggregator
	directory  DirectoryClient
	cfg        Config
	recorder   RunRecorder
	logger     *slog.Logger
}

// NewCoordinator validates the configuration and creates a coordinator.
// recorder may be nil; if logger is nil, a discard logger is used.
func NewCoordinator(cfg Config, aggregator *Aggregator, directory DirectoryClient, recorder RunRecorder, logger *slog.Logger) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.GracePeriod == 0 {
		cfg.GracePeriod = DefaultGracePeriod
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		aggregator: aggregator,
		directory:  directory,
		cfg:        cfg,
		recorder:   recorder,
		logger:     logger,
	}, nil
}

// Run executes one collection. The report contains exactly one record per
// listed table, in listing order, regardless of worker completion order.
//
// Failure handling follows the error taxonomy: a directory listing failure
// aborts the run with RunAbortedError; a mid-run engine outage or a
// cancellation truncates the run in-band, keeping completed records and
// marking the rest failed, and still returns the report with a nil error.
func (c *Coordinator) Run(ctx context.Context) (*core.CollectionReport, error) {
	runID := uuid.New().String()
	started := time.Now().UTC()

	c.logger.Info("starting collection run",
		"run_id", runID, "catalog", c.cfg.Catalog, "schema", c.cfg.Schema,
		"include_usage", c.cfg.IncludeUsage, "concurrency", c.cfg.Concurrency)

	if c.recorder != nil {
		if err := c.recorder.CreateRun(runID, c.cfg.Catalog, c.cfg.Schema); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	listed, err := c.directory.ListTables(ctx, c.cfg.Catalog, c.cfg.Schema)
	if err != nil {
		c.logger.Error("table listing failed", "run_id", runID, "error", err)
		aborted := &core.RunAbortedError{Reason: "could not list tables", Err: err}
		c.completeRun(runID, "failed", core.RunSummary{}, aborted.Error())
		return nil, aborted
	}

	refs := c.targetRefs(listed)
	c.logger.Info("tables discovered", "run_id", runID, "listed", len(listed), "selected", len(refs))

	records, truncation := c.aggregateAll(ctx, refs)

	report := &core.CollectionReport{
		RunID:   runID,
		Catalog: c.cfg.Catalog,
		Schema:  c.cfg.Schema,
		Parameters: core.RunParameters{
			IncludeUsage:    c.cfg.IncludeUsage,
			UsageWindowDays: c.cfg.UsageWindowDays,
			Concurrency:     c.cfg.Concurrency,
			TableFilter:     c.cfg.TableFilter,
		},
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Records:     records,
		Summary:     core.BuildSummary(records),
	}

	status := "completed"
	if truncation != "" {
		status = "truncated"
		c.logger.Warn("run truncated", "run_id", runID, "reason", truncation)
	}
	c.completeRun(runID, status, report.Summary, truncation)

	c.logger.Info("collection run finished", "run_id", runID,
		"total", report.Summary.TotalTables, "succeeded", report.Summary.Succeeded,
		"partial", report.Summary.Partial, "failed", report.Summary.Failed)

	return report, nil
}

// targetRefs applies the table filter and derives refs in listing order.
func (c *Coordinator) targetRefs(listed []core.TableDescriptor) []core.TableRef {
	refs := make([]core.TableRef, 0, len(listed))
	for _, desc := range listed {
		if c.cfg.TableFilter != "" {
			// Pattern validity is checked by Validate.
			if ok, _ := path.Match(c.cfg.TableFilter, desc.Name); !ok {
				continue
			}
		}
		refs = append(refs, core.TableRef{Catalog: c.cfg.Catalog, Schema: c.cfg.Schema, Table: desc.Name})
	}
	return refs
}

// aggregateAll fans per-table work out across a bounded pool and reassembles
// results by listing index. It returns a record for every ref: tables never
// dispatched (outage or cancellation) get failed records carrying the reason.
// truncation is empty for a complete run.
func (c *Coordinator) aggregateAll(ctx context.Context, refs []core.TableRef) (records []core.TableMetadataRecord, truncation string) {
	results := make([]core.TableMetadataRecord, len(refs))
	completed := make([]bool, len(refs))

	opts := AggregateOptions{IncludeUsage: c.cfg.IncludeUsage, UsageWindowDays: c.cfg.UsageWindowDays}

	var (
		stopMu     sync.Mutex
		stopReason string
	)
	stopped := func() string {
		stopMu.Lock()
		defer stopMu.Unlock()
		return stopReason
	}
	stop := func(reason string) {
		stopMu.Lock()
		defer stopMu.Unlock()
		if stopReason == "" {
			stopReason = reason
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)

	for i, ref := range refs {
		if reason := stopped(); reason != "" {
			break
		}
		if ctx.Err() != nil {
			stop("run cancelled: " + ctx.Err().Error())
			break
		}

		g.Go(func() error {
			// Re-check after acquiring a worker slot: an outage observed
			// while this table was queued must keep it from dispatching.
			if stopped() != "" {
				return nil
			}

			workCtx, cancel := graceContext(ctx, c.cfg.GracePeriod)
			defer cancel()

			rec, err := c.aggregator.Collect(workCtx, ref, opts)
			results[i] = rec
			completed[i] = true
			if err != nil {
				// Wholesale dependency outage: stop dispatching new tables.
				stop(err.Error())
			}
			return nil
		})
	}

	_ = g.Wait()

	truncation = stopped()
	if ctx.Err() != nil && truncation == "" {
		truncation = "run cancelled: " + ctx.Err().Error()
	}

	for i := range refs {
		if !completed[i] {
			results[i] = core.FailedRecord(refs[i], truncation)
		}
	}
	return results, truncation
}

// graceContext derives a context that outlives parent cancellation by the
// grace period, so in-flight table work can finish coherently instead of
// leaving a half-written record.
func graceContext(parent context.Context, grace time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stop := context.AfterFunc(parent, func() {
		time.AfterFunc(grace, cancel)
	})
	return ctx, func() {
		stop()
		cancel()
	}
}

func (c *Coordinator) completeRun(runID, status string, summary core.RunSummary, errMsg string) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.CompleteRun(runID, status, summary, errMsg); err != nil {
		c.logger.Error("failed to record run completion", "run_id", runID, "error", err)
	}
}
