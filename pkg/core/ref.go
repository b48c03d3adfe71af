package core

import (
	"fmt"
	"strings"
)

// TableRef identifies one table by its three-level namespace. It is the
// identity key for all downstream joins within a collection run.
type TableRef struct {
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
	Table   string `json:"table"`
}

// NewTableRef creates a validated TableRef.
func NewTableRef(catalog, schema, table string) (TableRef, error) {
	ref := TableRef{Catalog: catalog, Schema: schema, Table: table}
	if err := ref.Validate(); err != nil {
		return TableRef{}, err
	}
	return ref, nil
}

// FullName renders the reference as catalog.schema.table.
func (r TableRef) FullName() string {
	return fmt.Sprintf("%s.%s.%s", r.Catalog, r.Schema, r.Table)
}

// Validate checks that all three parts are valid identifiers.
func (r TableRef) Validate() error {
	if err := ValidateIdentifier("catalog", r.Catalog); err != nil {
		return err
	}
	if err := ValidateIdentifier("schema", r.Schema); err != nil {
		return err
	}
	return ValidateIdentifier("table", r.Table)
}

// ValidateIdentifier checks a namespace part: it must be non-empty and must
// not contain path separators or dots, which would change the meaning of the
// three-level name when joined.
func ValidateIdentifier(field, value string) error {
	if value == "" {
		return &InvalidArgumentError{Field: field, Reason: "must not be empty"}
	}
	if strings.ContainsAny(value, "/\\.") {
		return &InvalidArgumentError{Field: field, Reason: fmt.Sprintf("%q contains a path separator or dot", value)}
	}
	return nil
}
