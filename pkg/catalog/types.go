package catalog

import (
	"time"

	"github.com/lakescan-io/lakescan/pkg/core"
)

// listTablesResponse is one page of the table listing endpoint.
type listTablesResponse struct {
	Tables        []tableInfo `json:"tables"`
	NextPageToken string      `json:"next_page_token"`
}

// tableInfo is the wire shape of a table object as the catalog API returns
// it. Timestamps are epoch milliseconds.
type tableInfo struct {
	Name             string            `json:"name"`
	CatalogName      string            `json:"catalog_name"`
	SchemaName       string            `json:"schema_name"`
	TableType        string            `json:"table_type"`
	DataSourceFormat string            `json:"data_source_format"`
	StorageLocation  string            `json:"storage_location"`
	Owner            string            `json:"owner"`
	Comment          string            `json:"comment"`
	Properties       map[string]string `json:"properties"`
	CreatedAt        int64             `json:"created_at"`
	UpdatedAt        int64             `json:"updated_at"`
	Columns          []columnInfo      `json:"columns"`
}

type columnInfo struct {
	Name     string `json:"name"`
	TypeText string `json:"type_text"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
	Comment  string `json:"comment"`
}

func (t tableInfo) toDescriptor() core.TableDescriptor {
	desc := core.TableDescriptor{
		Name:            t.Name,
		Type:            tableType(t.TableType),
		Owner:           t.Owner,
		Comment:         t.Comment,
		Properties:      t.Properties,
		Format:          t.DataSourceFormat,
		StorageLocation: t.StorageLocation,
		CreatedAt:       millisToTime(t.CreatedAt),
		UpdatedAt:       millisToTime(t.UpdatedAt),
	}
	for _, col := range t.Columns {
		desc.Columns = append(desc.Columns, core.Column{
			Name:     col.Name,
			Type:     col.TypeText,
			Nullable: col.Nullable,
			Position: col.Position,
			Comment:  col.Comment,
		})
	}
	return desc
}

func tableType(s string) core.TableType {
	switch core.TableType(s) {
	case core.TableTypeManaged, core.TableTypeExternal, core.TableTypeView,
		core.TableTypeMaterializedView, core.TableTypeStreaming:
		return core.TableType(s)
	default:
		return core.TableTypeUnknown
	}
}

func millisToTime(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
