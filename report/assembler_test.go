package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noine32/deadstock-search-replit/stockparser"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

func sampleGroups() []stockparser.FacilityGroup {
	return []stockparser.FacilityGroup{
		{
			LegalEntity: "医療法人青空会",
			Facility:    "青空薬局本店",
			Records: []entities.ReconciledRecord{
				{
					YJCode: "YJ00000001", ProductName: "アスピリン錠100mg",
					ProductSpec: "アスピリン錠100mg 100錠", Quantity: 10, Unit: "錠",
					InternalCode: "P00001", ExpiryDate: "2025-06-01", Lot: "LOT001",
					LegalEntity: "医療法人青空会", Facility: "青空薬局本店",
					DaysUntilExpiry: 61, DeadStock: true,
				},
			},
		},
		{
			LegalEntity: "医療法人ひまわり会",
			Facility:    "ひまわり調剤薬局",
			Records: []entities.ReconciledRecord{
				{
					YJCode: "YJ00000002", ProductName: "ガスター錠20mg",
					ProductSpec: "ガスター錠20mg 50錠", Quantity: 5, Unit: "錠",
					InternalCode: "P00002", ExpiryDate: "2026-06-01", Lot: "LOT002",
					LegalEntity: "医療法人ひまわり会", Facility: "ひまわり調剤薬局",
					DaysUntilExpiry: 426, DeadStock: false,
				},
			},
		},
	}
}

func TestBuildWorkbookLayout(t *testing.T) {
	workbook, warnings, err := BuildWorkbook(sampleGroups())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)

	// First block: entity row, facility row, column header, one record,
	// blank separator. Second block starts at row 6.
	require.GreaterOrEqual(t, len(rows), 9)
	assert.Equal(t, []string{"法人名", "医療法人青空会"}, rows[0][:2])
	assert.Equal(t, []string{"院所名", "青空薬局本店"}, rows[1][:2])
	assert.Equal(t, "品名・規格", rows[2][0])
	assert.Equal(t, "アスピリン錠100mg 100錠", rows[3][0])
	assert.Equal(t, "10", rows[3][1])

	assert.Equal(t, []string{"法人名", "医療法人ひまわり会"}, rows[5][:2])
	assert.Equal(t, "ガスター錠20mg 50錠", rows[8][0])
}

func TestBuildWorkbookEmptyGroups(t *testing.T) {
	workbook, warnings, err := BuildWorkbook(nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, workbook)
}

func TestBuildCSV(t *testing.T) {
	records := sampleGroups()[0].Records
	out, err := BuildCSV(records)
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "\ufeff"), "expected UTF-8 BOM prefix")

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"品名・規格", "数量", "単位", "薬品コード", "有効期限", "ロット", "法人名", "院所名", "残日数", "不良在庫"}, rows[0])
	assert.Equal(t, []string{"アスピリン錠100mg 100錠", "10", "錠", "P00001", "2025-06-01", "LOT001", "医療法人青空会", "青空薬局本店", "61", "true"}, rows[1])
}

func TestBuildCSVEmptyRecords(t *testing.T) {
	out, err := BuildCSV(nil)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(out), "\ufeff")))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
