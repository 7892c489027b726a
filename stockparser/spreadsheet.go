package stockparser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/noine32/deadstock-search-replit/logging"
)

// ParseSpreadsheet parses a binary XLSX container into a RowSet using the
// first row of the first sheet as the header.
func ParseSpreadsheet(data []byte, kind DatasetKind) (*RowSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Kind: kind, Err: fmt.Errorf("opening spreadsheet: %w", err)}
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close spreadsheet", "error", err, "kind", string(kind))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Kind: kind, Err: errors.New("workbook has no sheets")}
	}

	rawRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &FormatError{Kind: kind, Err: fmt.Errorf("reading sheet %s: %w", sheets[0], err)}
	}
	if len(rawRows) == 0 {
		return nil, &FormatError{Kind: kind, Err: errors.New("no header row")}
	}

	return newRowSet(kind, rawRows)
}
