package stockparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
)

// inventoryPreambleLines is the fixed-layout report header the pharmacy system
// prints before the real header row. The lines are skipped regardless of
// content.
const inventoryPreambleLines = 7

// ParseDelimited decodes raw bytes via the encoding resolver and parses the
// delimited text into a RowSet. For the inventory kind the first 7 physical
// lines are discarded before the header row is read.
func ParseDelimited(data []byte, kind DatasetKind) (*RowSet, error) {
	decoded, err := DecodeText(data)
	if err != nil {
		return nil, &FormatError{Kind: kind, Err: err}
	}

	if kind == DatasetInventory {
		decoded, err = skipLines(decoded, inventoryPreambleLines)
		if err != nil {
			return nil, &FormatError{Kind: kind, Err: err}
		}
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	rawRows, err := reader.ReadAll()
	if err != nil {
		return nil, &FormatError{Kind: kind, Err: fmt.Errorf("reading delimited rows: %w", err)}
	}
	if len(rawRows) == 0 {
		return nil, &FormatError{Kind: kind, Err: errors.New("no header row")}
	}

	return newRowSet(kind, rawRows)
}

// skipLines drops the first n physical lines of the buffer.
func skipLines(data []byte, n int) ([]byte, error) {
	rest := data
	for i := 0; i < n; i++ {
		idx := bytes.IndexByte(rest, '\n')
		if idx < 0 {
			return nil, fmt.Errorf("expected at least %d preamble lines, found %d", n, i)
		}
		rest = rest[idx+1:]
	}
	return rest, nil
}
