package stockparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inventoryPreamble = "在庫一覧表\n出力日,2025/04/01\n店舗,本店\n\n抽出条件,全品目\n\n\n"

func inventoryCSV(rows ...string) []byte {
	lines := append([]string{"商品名,在庫数量,有効期限,ロット"}, rows...)
	return []byte(inventoryPreamble + strings.Join(lines, "\n") + "\n")
}

func TestParseDelimitedInventorySkipsPreamble(t *testing.T) {
	data := inventoryCSV(
		"アスピリン錠100mg,10,2025-10-01,LOT001",
		"ガスター錠20mg,5,2026-01-15,LOT002",
	)

	rs, err := ParseDelimited(data, DatasetInventory)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "アスピリン錠100mg", rs.Field(rs.Rows[0], ColProductName))
	assert.Equal(t, "2026-01-15", rs.Field(rs.Rows[1], ColExpiry))
}

func TestParseDelimitedInventoryTooFewPreambleLines(t *testing.T) {
	data := []byte("在庫一覧表\n商品名,在庫数量,有効期限,ロット\n")

	_, err := ParseDelimited(data, DatasetInventory)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, DatasetInventory, formatErr.Kind)
}

func TestParseDelimitedInventoryRowFilters(t *testing.T) {
	data := inventoryCSV(
		"アスピリン錠100mg,10,2025-10-01,LOT001",
		",7,2025-10-01,LOT002",          // empty name
		"null,7,2025-10-01,LOT003",      // literal null name
		"ガスター錠20mg,0,2025-10-01,LOT004", // zero quantity
		"ムコダイン錠250mg,-3,2025-10-01,LOT005",
		"ロキソニン錠60mg,abc,2025-10-01,LOT006",
		"カロナール錠200,\"1,200\",2025-10-01,LOT007",
		"メジコン錠15mg,3.7,2025-10-01,LOT008",
	)

	rs, err := ParseDelimited(data, DatasetInventory)
	require.NoError(t, err)

	records := InventoryRecords(rs)
	require.Len(t, records, 3)
	assert.Equal(t, 10, records[0].Quantity)
	assert.Equal(t, "カロナール錠200", records[1].ProductName)
	assert.Equal(t, 1200, records[1].Quantity)
	// Fractional quantities truncate toward zero.
	assert.Equal(t, 3, records[2].Quantity)
}

func TestParseDelimitedMissingColumns(t *testing.T) {
	data := []byte(inventoryPreamble + "商品名,在庫数量\nアスピリン錠100mg,10\n")

	_, err := ParseDelimited(data, DatasetInventory)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, DatasetInventory, schemaErr.Kind)
	assert.ElementsMatch(t, []string{ColExpiry, ColLot}, schemaErr.Missing)
}

func TestParseDelimitedMalformedCSV(t *testing.T) {
	data := []byte("商品名,YJコード,単位\nア\"スピリン,YJ001,錠\n")

	_, err := ParseDelimited(data, DatasetIdentityMaster)
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, DatasetIdentityMaster, formatErr.Kind)
}

func TestParseDelimitedIdentityMasterWithBOM(t *testing.T) {
	data := []byte("\ufeff商品名,YJコード,単位\nアスピリン錠100mg,YJ00000001,錠\n")

	rs, err := ParseDelimited(data, DatasetIdentityMaster)
	require.NoError(t, err)
	assert.Equal(t, ColProductName, rs.Header[0])
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "YJ00000001", rs.Field(rs.Rows[0], ColYJCode))
}

func TestParseDelimitedRaggedRows(t *testing.T) {
	data := []byte("商品名,YJコード,単位\nアスピリン錠100mg,YJ00000001\n")

	rs, err := ParseDelimited(data, DatasetIdentityMaster)
	require.NoError(t, err)
	assert.Equal(t, "", rs.Field(rs.Rows[0], ColUnit))
}

func TestParseDelimitedEmptyInput(t *testing.T) {
	_, err := ParseDelimited([]byte(""), DatasetIdentityMaster)
	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10", 10, false},
		{" 42 ", 42, false},
		{"1,200", 1200, false},
		{"3.7", 3, false},
		{"-5", -5, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := CoerceQuantity(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
