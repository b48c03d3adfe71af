package core

import "time"

// TableType represents the kind of catalog object a descriptor refers to.
type TableType string

// Table type constants, matching the catalog API's TABLE_TYPE values.
const (
	TableTypeManaged          TableType = "MANAGED"
	TableTypeExternal         TableType = "EXTERNAL"
	TableTypeView             TableType = "VIEW"
	TableTypeMaterializedView TableType = "MATERIALIZED_VIEW"
	TableTypeStreaming        TableType = "STREAMING_TABLE"
	TableTypeUnknown          TableType = "UNKNOWN"
)

// IsView reports whether the object is a view-like type that carries no
// storage statistics of its own.
func (t TableType) IsView() bool {
	return t == TableTypeView || t == TableTypeMaterializedView
}

// Column describes one column of a table as reported by the catalog.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
	Comment  string `json:"comment,omitempty"`
}

// TableDescriptor is the structural and ownership metadata for one table,
// as reported by the catalog directory. It is produced once per table and
// immutable after creation.
type TableDescriptor struct {
	Name            string            `json:"name"`
	Type            TableType         `json:"type"`
	Owner           string            `json:"owner"`
	CreatedAt       *time.Time        `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at"`
	Comment         string            `json:"comment,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
	Format          string            `json:"format,omitempty"`
	StorageLocation string            `json:"storage_location,omitempty"`
	Columns         []Column          `json:"columns,omitempty"`
}
