// Package core defines the domain types shared across Lakescan: table
// references, descriptors, statistics, usage records, the merged per-table
// metadata record, and the collection report produced by one run.
//
// Types in this package are pure data. Clients that populate them live in
// pkg/catalog, pkg/stats, and pkg/usage; orchestration lives in
// internal/collector.
package core
