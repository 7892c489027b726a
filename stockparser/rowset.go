// Package stockparser ingests the three tabular datasets of a reconciliation
// run (inventory export, purchase history workbook, identity master), resolves
// product identity between them and classifies each stock line as normal or
// dead stock.
package stockparser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// DatasetKind identifies one of the three input datasets.
type DatasetKind string

const (
	DatasetInventory       DatasetKind = "inventory"
	DatasetPurchaseHistory DatasetKind = "purchase-history"
	DatasetIdentityMaster  DatasetKind = "identity-master"
)

// Column headers as emitted by the source systems.
const (
	ColProductName  = "商品名"
	ColQuantity     = "在庫数量"
	ColExpiry       = "有効期限"
	ColLot          = "ロット"
	ColYJCode       = "YJコード"
	ColLegalEntity  = "法人名"
	ColFacility     = "院所名"
	ColProductSpec  = "品名・規格"
	ColInternalCode = "薬品コード"
	ColUnit         = "単位"
)

// requiredColumns is the fixed per-kind list validated before any row transform.
var requiredColumns = map[DatasetKind][]string{
	DatasetInventory:       {ColProductName, ColQuantity, ColExpiry, ColLot},
	DatasetPurchaseHistory: {ColYJCode, ColLegalEntity, ColFacility, ColProductSpec, ColInternalCode},
	DatasetIdentityMaster:  {ColProductName, ColYJCode, ColUnit},
}

// RowSet is a parsed dataset: a header and the data rows below it, all cells
// whitespace-trimmed. Rows may be ragged; Field returns "" past the row end.
type RowSet struct {
	Kind   DatasetKind
	Header []string
	Rows   [][]string

	index map[string]int
}

// newRowSet builds a RowSet from raw cells, validates the required columns for
// the kind and applies the kind-specific row filters. rawRows[0] is the header.
func newRowSet(kind DatasetKind, rawRows [][]string) (*RowSet, error) {
	if len(rawRows[0]) == 0 {
		return nil, &FormatError{Kind: kind, Err: errors.New("empty header row")}
	}
	header := make([]string, len(rawRows[0]))
	for i, cell := range rawRows[0] {
		header[i] = strings.TrimSpace(cell)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	rs := &RowSet{
		Kind:   kind,
		Header: header,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, seen := rs.index[name]; !seen {
			rs.index[name] = i
		}
	}

	// Column validation runs before row filtering so a schema failure is
	// diagnosable from the raw header alone.
	var missing []string
	for _, name := range requiredColumns[kind] {
		if _, ok := rs.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Kind: kind, Missing: missing}
	}

	rs.Rows = make([][]string, 0, len(rawRows)-1)
	for _, raw := range rawRows[1:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = strings.TrimSpace(cell)
		}
		rs.Rows = append(rs.Rows, row)
	}

	if kind == DatasetInventory {
		rs.filterInventoryRows()
	}
	return rs, nil
}

// Field returns the named cell of a row, or "" when the row is too short.
func (rs *RowSet) Field(row []string, column string) string {
	i, ok := rs.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// filterInventoryRows applies the strict ingestion rule: drop rows without a
// usable product name and rows whose quantity is non-numeric or non-positive.
func (rs *RowSet) filterInventoryRows() {
	kept := rs.Rows[:0]
	droppedName := 0
	droppedQuantity := 0

	for _, row := range rs.Rows {
		name := rs.Field(row, ColProductName)
		if name == "" || strings.EqualFold(name, "null") {
			droppedName++
			continue
		}
		qty, err := CoerceQuantity(rs.Field(row, ColQuantity))
		if err != nil || qty <= 0 {
			droppedQuantity++
			continue
		}
		kept = append(kept, row)
	}
	rs.Rows = kept

	if droppedName > 0 || droppedQuantity > 0 {
		logging.Info("Inventory row filter statistics",
			"dropped_empty_name", droppedName,
			"dropped_bad_quantity", droppedQuantity,
			"rows_kept", len(rs.Rows))
	}
}

// CoerceQuantity parses a quantity cell into a whole number. Thousands
// separators are stripped and fractional values truncate toward the coerced
// integer.
func CoerceQuantity(s string) (int, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// InventoryRecords converts a filtered inventory RowSet into typed records.
func InventoryRecords(rs *RowSet) []entities.InventoryRecord {
	records := make([]entities.InventoryRecord, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		qty, err := CoerceQuantity(rs.Field(row, ColQuantity))
		if err != nil {
			// Filtered rows are already numeric; anything else was dropped.
			continue
		}
		records = append(records, entities.InventoryRecord{
			ProductName: rs.Field(row, ColProductName),
			Quantity:    qty,
			ExpiryRaw:   rs.Field(row, ColExpiry),
			Lot:         rs.Field(row, ColLot),
		})
	}
	return records
}

// PurchaseHistoryRecords converts a purchase-history RowSet into typed records.
func PurchaseHistoryRecords(rs *RowSet) []entities.PurchaseHistoryRecord {
	records := make([]entities.PurchaseHistoryRecord, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		records = append(records, entities.PurchaseHistoryRecord{
			YJCode:       rs.Field(row, ColYJCode),
			LegalEntity:  rs.Field(row, ColLegalEntity),
			Facility:     rs.Field(row, ColFacility),
			ProductSpec:  rs.Field(row, ColProductSpec),
			InternalCode: rs.Field(row, ColInternalCode),
		})
	}
	return records
}
