// Package report renders an ordered, grouped reconciliation result into the
// spreadsheet and CSV artifacts handed back to pharmacists.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/stockparser"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// Warning records a non-fatal per-group formatting failure. A failed group is
// skipped; the remaining groups are still emitted.
type Warning struct {
	Facility string `json:"facility"`
	Message  string `json:"message"`
}

// reportColumns is the fixed output column order.
var reportColumns = []string{
	stockparser.ColProductSpec,
	"数量",
	stockparser.ColUnit,
	stockparser.ColInternalCode,
	stockparser.ColExpiry,
	stockparser.ColLot,
	stockparser.ColLegalEntity,
	stockparser.ColFacility,
	"残日数",
	"不良在庫",
}

func recordCells(r entities.ReconciledRecord) []any {
	return []any{
		r.ProductSpec,
		r.Quantity,
		r.Unit,
		r.InternalCode,
		r.ExpiryDate,
		r.Lot,
		r.LegalEntity,
		r.Facility,
		r.DaysUntilExpiry,
		r.DeadStock,
	}
}

// BuildWorkbook renders one facility block per group into a single-sheet XLSX
// workbook. Formatting failures are collected per group as warnings and never
// abort the other groups.
func BuildWorkbook(groups []stockparser.FacilityGroup) ([]byte, []Warning, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close workbook", "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	warnings := make([]Warning, 0)
	row := 1

	for _, group := range groups {
		next, err := writeGroup(f, sheet, row, group)
		if err != nil {
			logging.Warn("Skipping report group",
				"facility", group.Facility, "error", err)
			warnings = append(warnings, Warning{
				Facility: group.Facility,
				Message:  err.Error(),
			})
			continue
		}
		row = next
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, warnings, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), warnings, nil
}

// writeGroup emits the legal-entity/facility header pair, the column header
// and the group's records. Returns the next free row.
func writeGroup(f *excelize.File, sheet string, row int, group stockparser.FacilityGroup) (int, error) {
	if err := setRow(f, sheet, row, []any{stockparser.ColLegalEntity, group.LegalEntity}); err != nil {
		return row, err
	}
	if err := setRow(f, sheet, row+1, []any{stockparser.ColFacility, group.Facility}); err != nil {
		return row, err
	}

	header := make([]any, len(reportColumns))
	for i, name := range reportColumns {
		header[i] = name
	}
	if err := setRow(f, sheet, row+2, header); err != nil {
		return row, err
	}

	next := row + 3
	for _, rec := range group.Records {
		if err := setRow(f, sheet, next, recordCells(rec)); err != nil {
			return row, err
		}
		next++
	}

	// Blank separator line between facility blocks.
	return next + 1, nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	for col, value := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("cell %s: %w", cell, err)
		}
	}
	return nil
}

// BuildCSV renders the flat ordered record set as UTF-8 CSV with a BOM, the
// encoding the downstream spreadsheet tooling expects.
func BuildCSV(records []entities.ReconciledRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(reportColumns); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ProductSpec,
			strconv.Itoa(r.Quantity),
			r.Unit,
			r.InternalCode,
			r.ExpiryDate,
			r.Lot,
			r.LegalEntity,
			r.Facility,
			strconv.Itoa(r.DaysUntilExpiry),
			strconv.FormatBool(r.DeadStock),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
