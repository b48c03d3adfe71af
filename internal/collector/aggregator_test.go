package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakescan-io/lakescan/pkg/core"
)

func int64p(v int64) *int64 { return &v }

func okStats(rows, size int64) *core.TableStatistics {
	return &core.TableStatistics{
		RowCount:  int64p(rows),
		SizeBytes: int64p(size),
		FileCount: int64p(1),
		Status:    core.StatisticsOK,
	}
}

func okUsage(window int, count int64) *core.UsageRecord {
	return &core.UsageRecord{
		WindowDays:  window,
		AccessCount: count,
	}
}

// fakeDirectory serves canned descriptors keyed by table name.
type fakeDirectory struct {
	mu       sync.Mutex
	tables   []core.TableDescriptor
	listErr  error
	getErrs  map[string]error
	getCalls []string
	delay    time.Duration
}

func (f *fakeDirectory) ListTables(_ context.Context, _, _ string) ([]core.TableDescriptor, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tables, nil
}

func (f *fakeDirectory) GetTable(ctx context.Context, ref core.TableRef) (*core.TableDescriptor, error) {
	f.mu.Lock()
	f.getCalls = append(f.getCalls, ref.Table)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.getErrs[ref.Table]; err != nil {
		return nil, err
	}
	for _, t := range f.tables {
		if t.Name == ref.Table {
			d := t
			return &d, nil
		}
	}
	return nil, &core.NotFoundError{Resource: ref.FullName()}
}

// fakeStats serves canned statistics keyed by table name. After failAfter
// successful calls (when positive) every call reports an engine outage.
type fakeStats struct {
	mu        sync.Mutex
	results   map[string]*core.TableStatistics
	errs      map[string]error
	calls     int32
	failAfter int32
}

func (f *fakeStats) GetStatistics(_ context.Context, ref core.TableRef) (*core.TableStatistics, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.failAfter > 0 && n > f.failAfter {
		return nil, &core.QueryEngineUnavailableError{Err: errors.New("connection refused")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[ref.Table]; err != nil {
		return nil, err
	}
	if st, ok := f.results[ref.Table]; ok {
		return st, nil
	}
	return okStats(10, 1024), nil
}

type fakeUsage struct {
	mu      sync.Mutex
	results map[string]*core.UsageRecord
	errs    map[string]error
	absent  map[string]bool
	calls   int32
}

func (f *fakeUsage) GetUsage(_ context.Context, ref core.TableRef, windowDays int) (*core.UsageRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[ref.Table]; err != nil {
		return nil, err
	}
	if f.absent[ref.Table] {
		return nil, nil
	}
	if u, ok := f.results[ref.Table]; ok {
		return u, nil
	}
	return okUsage(windowDays, 5), nil
}

func descriptors(names ...string) []core.TableDescriptor {
	out := make([]core.TableDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, core.TableDescriptor{
			Name:   n,
			Type:   core.TableTypeManaged,
			Format: "DELTA",
		})
	}
	return out
}

func testRef(table string) core.TableRef {
	return core.TableRef{Catalog: "main", Schema: "sales", Table: table}
}

func TestAggregatorCollectSuccess(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders")}
	agg := NewAggregator(dir, &fakeStats{}, &fakeUsage{}, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"),
		AggregateOptions{IncludeUsage: true, UsageWindowDays: 30})
	require.NoError(t, err)

	assert.Equal(t, core.RecordStatusSuccess, rec.Status)
	assert.Equal(t, core.SectionOK, rec.DescriptorSection.State)
	assert.Equal(t, core.SectionOK, rec.StatisticsSection.State)
	assert.Equal(t, core.SectionOK, rec.UsageSection.State)
	require.NotNil(t, rec.Descriptor)
	assert.Equal(t, "orders", rec.Descriptor.Name)
	require.NotNil(t, rec.Statistics)
	assert.Equal(t, int64(10), *rec.Statistics.RowCount)
	require.NotNil(t, rec.Usage)
	assert.Equal(t, 30, rec.Usage.WindowDays)
}

func TestAggregatorCollectUsageNotRequested(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders")}
	usage := &fakeUsage{}
	agg := NewAggregator(dir, &fakeStats{}, usage, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"), AggregateOptions{})
	require.NoError(t, err)

	assert.Equal(t, core.RecordStatusSuccess, rec.Status)
	assert.Equal(t, core.SectionSkipped, rec.UsageSection.State)
	assert.Nil(t, rec.Usage)
	assert.Zero(t, atomic.LoadInt32(&usage.calls), "usage must not be queried when not requested")
}

func TestAggregatorCollectStatisticsFailure(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders")}
	stats := &fakeStats{errs: map[string]error{"orders": errors.New("probe exploded")}}
	agg := NewAggregator(dir, stats, &fakeUsage{}, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"),
		AggregateOptions{IncludeUsage: true, UsageWindowDays: 30})
	require.NoError(t, err, "a single-table probe failure is not an outage")

	assert.Equal(t, core.RecordStatusPartial, rec.Status)
	assert.Equal(t, core.SectionFailed, rec.StatisticsSection.State)
	assert.Contains(t, rec.StatisticsSection.Reason, "probe exploded")
	assert.Nil(t, rec.Statistics)
	assert.Equal(t, core.SectionOK, rec.UsageSection.State, "usage proceeds despite statistics failure")
	assert.NotNil(t, rec.Usage)
}

func TestAggregatorCollectStatisticsAbsent(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders_view")}
	stats := &fakeStats{results: map[string]*core.TableStatistics{
		"orders_view": core.Unavailable("DESCRIBE DETAIL is not supported for views"),
	}}
	agg := NewAggregator(dir, stats, &fakeUsage{}, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders_view"), AggregateOptions{})
	require.NoError(t, err)

	assert.Equal(t, core.RecordStatusPartial, rec.Status)
	assert.Equal(t, core.SectionAbsent, rec.StatisticsSection.State)
	require.NotNil(t, rec.Statistics, "unavailable statistics still carry the reason")
	assert.Nil(t, rec.Statistics.RowCount)
	assert.Equal(t, core.StatisticsUnavailable, rec.Statistics.Status)
}

func TestAggregatorCollectUsageAbsent(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders")}
	usage := &fakeUsage{absent: map[string]bool{"orders": true}}
	agg := NewAggregator(dir, &fakeStats{}, usage, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"),
		AggregateOptions{IncludeUsage: true, UsageWindowDays: 30})
	require.NoError(t, err)

	assert.Equal(t, core.RecordStatusPartial, rec.Status)
	assert.Equal(t, core.SectionAbsent, rec.UsageSection.State)
	assert.Equal(t, "audit logging not enabled", rec.UsageSection.Reason)
	assert.Nil(t, rec.Usage)
}

func TestAggregatorCollectDescriptorFailure(t *testing.T) {
	dir := &fakeDirectory{
		tables:  descriptors("orders"),
		getErrs: map[string]error{"orders": &core.NotFoundError{Resource: "main.sales.orders"}},
	}
	stats := &fakeStats{}
	usage := &fakeUsage{}
	agg := NewAggregator(dir, stats, usage, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"),
		AggregateOptions{IncludeUsage: true, UsageWindowDays: 30})
	require.NoError(t, err, "a missing table is not an outage")

	assert.Equal(t, core.RecordStatusFailed, rec.Status)
	assert.Equal(t, core.SectionFailed, rec.DescriptorSection.State)
	assert.Equal(t, core.SectionSkipped, rec.StatisticsSection.State)
	assert.Equal(t, core.SectionSkipped, rec.UsageSection.State)
	assert.Zero(t, atomic.LoadInt32(&stats.calls), "enrichment must not run without a descriptor")
	assert.Zero(t, atomic.LoadInt32(&usage.calls))
}

func TestAggregatorCollectDirectoryOutage(t *testing.T) {
	outage := &core.DirectoryUnavailableError{Err: errors.New("connection refused")}
	dir := &fakeDirectory{
		tables:  descriptors("orders"),
		getErrs: map[string]error{"orders": outage},
	}
	agg := NewAggregator(dir, &fakeStats{}, &fakeUsage{}, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"), AggregateOptions{})

	var unavailable *core.DirectoryUnavailableError
	require.ErrorAs(t, err, &unavailable, "directory outage must surface to the coordinator")
	assert.Equal(t, core.RecordStatusFailed, rec.Status)
}

func TestAggregatorCollectEngineOutage(t *testing.T) {
	dir := &fakeDirectory{tables: descriptors("orders")}
	stats := &fakeStats{errs: map[string]error{
		"orders": &core.QueryEngineUnavailableError{Err: errors.New("connection refused")},
	}}
	agg := NewAggregator(dir, stats, &fakeUsage{}, nil)

	rec, err := agg.Collect(context.Background(), testRef("orders"), AggregateOptions{})

	var unavailable *core.QueryEngineUnavailableError
	require.ErrorAs(t, err, &unavailable, "engine outage must surface to the coordinator")
	assert.Equal(t, core.RecordStatusPartial, rec.Status,
		"the descriptor succeeded, so the record itself is partial")
	assert.Equal(t, core.SectionFailed, rec.StatisticsSection.State)
}

func TestAggregatorStatusMatrix(t *testing.T) {
	tests := []struct {
		name         string
		statsErr     error
		usageErr     error
		includeUsage bool
		want         core.RecordStatus
	}{
		{
			name:         "all sections ok",
			includeUsage: true,
			want:         core.RecordStatusSuccess,
		},
		{
			name: "stats ok without usage",
			want: core.RecordStatusSuccess,
		},
		{
			name:         "usage failed",
			usageErr:     errors.New("query failed"),
			includeUsage: true,
			want:         core.RecordStatusPartial,
		},
		{
			name:     "stats failed without usage",
			statsErr: errors.New("query failed"),
			want:     core.RecordStatusPartial,
		},
		{
			name:         "both enrichments failed",
			statsErr:     errors.New("query failed"),
			usageErr:     errors.New("query failed"),
			includeUsage: true,
			want:         core.RecordStatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := &fakeDirectory{tables: descriptors("orders")}
			stats := &fakeStats{}
			usage := &fakeUsage{}
			if tt.statsErr != nil {
				stats.errs = map[string]error{"orders": tt.statsErr}
			}
			if tt.usageErr != nil {
				usage.errs = map[string]error{"orders": tt.usageErr}
			}
			agg := NewAggregator(dir, stats, usage, nil)

			rec, err := agg.Collect(context.Background(), testRef("orders"),
				AggregateOptions{IncludeUsage: tt.includeUsage, UsageWindowDays: 30})
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status)
		})
	}
}

func TestAggregatorCollectConcurrentTables(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("t%02d", i)
	}
	dir := &fakeDirectory{tables: descriptors(names...)}
	agg := NewAggregator(dir, &fakeStats{}, &fakeUsage{}, nil)

	var wg sync.WaitGroup
	recs := make([]core.TableMetadataRecord, len(names))
	for i, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := agg.Collect(context.Background(), testRef(n),
				AggregateOptions{IncludeUsage: true, UsageWindowDays: 7})
			assert.NoError(t, err)
			recs[i] = rec
		}()
	}
	wg.Wait()

	for i, rec := range recs {
		assert.Equal(t, names[i], rec.Ref.Table)
		assert.Equal(t, core.RecordStatusSuccess, rec.Status)
	}
}
