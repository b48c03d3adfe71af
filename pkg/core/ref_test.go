package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRefValidate(t *testing.T) {
	tests := []struct {
		name      string
		ref       TableRef
		expectErr bool
	}{
		{
			name: "valid ref",
			ref:  TableRef{Catalog: "main", Schema: "sales", Table: "orders"},
		},
		{
			name:      "empty catalog",
			ref:       TableRef{Catalog: "", Schema: "sales", Table: "orders"},
			expectErr: true,
		},
		{
			name:      "empty table",
			ref:       TableRef{Catalog: "main", Schema: "sales", Table: ""},
			expectErr: true,
		},
		{
			name:      "path separator in schema",
			ref:       TableRef{Catalog: "main", Schema: "sales/2024", Table: "orders"},
			expectErr: true,
		},
		{
			name:      "dot in table",
			ref:       TableRef{Catalog: "main", Schema: "sales", Table: "orders.v2"},
			expectErr: true,
		},
		{
			name:      "backslash in catalog",
			ref:       TableRef{Catalog: `main\prod`, Schema: "sales", Table: "orders"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Validate()
			if tt.expectErr {
				require.Error(t, err)
				var invalid *InvalidArgumentError
				assert.True(t, errors.As(err, &invalid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTableRef(t *testing.T) {
	ref, err := NewTableRef("main", "sales", "orders")
	require.NoError(t, err)
	assert.Equal(t, "main.sales.orders", ref.FullName())

	_, err = NewTableRef("main", "", "orders")
	require.Error(t, err)
}
