// Package collector orchestrates metadata collection: the Aggregator merges
// the three client lookups into one record per table, and the Coordinator
// drives aggregation across a schema with bounded concurrency.
package collector

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// DirectoryClient lists and describes catalog objects. pkg/catalog provides
// the production implementation.
type DirectoryClient interface {
	ListTables(ctx context.Context, catalog, schema string) ([]core.TableDescriptor, error)
	GetTable(ctx context.Context, ref core.TableRef) (*core.TableDescriptor, error)
}

// StatisticsClient probes storage statistics. pkg/stats provides the
// production implementation.
type StatisticsClient interface {
	GetStatistics(ctx context.Context, ref core.TableRef) (*core.TableStatistics, error)
}

// UsageClient aggregates access history. pkg/usage provides the production
// implementation.
type UsageClient interface {
	GetUsage(ctx context.Context, ref core.TableRef, windowDays int) (*core.UsageRecord, error)
}

// AggregateOptions control which enrichments one aggregation attempts.
type AggregateOptions struct {
	IncludeUsage    bool
	UsageWindowDays int
}

// Aggregator produces exactly one TableMetadataRecord per table by calling
// the directory (authoritative), then attempting statistics and usage
// lookups independently.
type Aggregator struct {
	directory  DirectoryClient
	statistics StatisticsClient
	usage      UsageClient
	logger     *slog.Logger
}

// NewAggregator creates an aggregator. If logger is nil, a discard logger is
// used.
func NewAggregator(directory DirectoryClient, statistics StatisticsClient, usage UsageClient, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{directory: directory, statistics: statistics, usage: usage, logger: logger}
}

// Collect builds the metadata record for one table. The record is always
// populated; the error return is non-nil only when a lookup revealed a
// wholesale dependency outage the coordinator must classify, never for
// failures local to this table.
func (a *Aggregator) Collect(ctx context.Context, ref core.TableRef, opts AggregateOptions) (core.TableMetadataRecord, error) {
	descriptor, err := a.directory.GetTable(ctx, ref)
	if err != nil {
		a.logger.Debug("descriptor lookup failed", "table", ref.FullName(), "error", err)
		rec := core.FailedRecord(ref, err.Error())
		var unavailable *core.DirectoryUnavailableError
		if errors.As(err, &unavailable) {
			return rec, err
		}
		return rec, nil
	}

	rec := core.TableMetadataRecord{
		Ref:               ref,
		Descriptor:        descriptor,
		DescriptorSection: core.SectionResult{State: core.SectionOK},
		UsageSection:      core.SectionResult{State: core.SectionSkipped, Reason: "usage not requested"},
	}

	// Statistics and usage are independent: each runs in its own goroutine,
	// records its own outcome, and reports outages through its own variable.
	var statsOutage, usageOutage error
	g := new(errgroup.Group)

	g.Go(func() error {
		st, err := a.statistics.GetStatistics(ctx, ref)
		switch {
		case err != nil:
			rec.StatisticsSection = core.SectionResult{State: core.SectionFailed, Reason: err.Error()}
			var unavailable *core.QueryEngineUnavailableError
			if errors.As(err, &unavailable) {
				statsOutage = err
			}
		case st.Status == core.StatisticsUnavailable:
			rec.Statistics = st
			rec.StatisticsSection = core.SectionResult{State: core.SectionAbsent, Reason: st.StatusReason}
		default:
			rec.Statistics = st
			rec.StatisticsSection = core.SectionResult{State: core.SectionOK}
		}
		return nil
	})

	if opts.IncludeUsage {
		g.Go(func() error {
			u, err := a.usage.GetUsage(ctx, ref, opts.UsageWindowDays)
			switch {
			case err != nil:
				rec.UsageSection = core.SectionResult{State: core.SectionFailed, Reason: err.Error()}
				var unavailable *core.QueryEngineUnavailableError
				if errors.As(err, &unavailable) {
					usageOutage = err
				}
			case u == nil:
				rec.UsageSection = core.SectionResult{State: core.SectionAbsent, Reason: "audit logging not enabled"}
			default:
				rec.Usage = u
				rec.UsageSection = core.SectionResult{State: core.SectionOK}
			}
			return nil
		})
	}

	_ = g.Wait()

	outage := statsOutage
	if outage == nil {
		outage = usageOutage
	}

	rec.Status = overallStatus(rec, opts.IncludeUsage)
	a.logger.Debug("table aggregated", "table", ref.FullName(), "status", rec.Status)
	return rec, outage
}

// overallStatus derives the record status from its sections: success only
// when every requested section completed with data, partial otherwise. The
// failed case is handled before sections are attempted.
func overallStatus(rec core.TableMetadataRecord, includeUsage bool) core.RecordStatus {
	if rec.StatisticsSection.State != core.SectionOK {
		return core.RecordStatusPartial
	}
	if includeUsage && rec.UsageSection.State != core.SectionOK {
		return core.RecordStatusPartial
	}
	return core.RecordStatusSuccess
}
