package stockparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

func identityRowSet(t *testing.T, rows ...string) *RowSet {
	t.Helper()
	raw := [][]string{{ColProductName, ColYJCode, ColUnit}}
	for _, r := range rows {
		raw = append(raw, splitRow(r))
	}
	rs, err := newRowSet(DatasetIdentityMaster, raw)
	require.NoError(t, err)
	return rs
}

func splitRow(s string) []string {
	var cells []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '|' {
			cells = append(cells, s[start:i])
			start = i + 1
		}
	}
	return cells
}

func TestBuildIdentityMap(t *testing.T) {
	rs := identityRowSet(t,
		"アスピリン錠100mg|YJ00000001|錠",
		"ガスター錠20mg|YJ00000002|錠",
		"|YJ00000003|包",
	)

	mapping := BuildIdentityMap(rs)
	require.Len(t, mapping, 2)
	assert.Equal(t, "YJ00000001", mapping["アスピリン錠100mg"].YJCode)
	assert.Equal(t, "錠", mapping["ガスター錠20mg"].Unit)
}

func TestBuildIdentityMapLastWriteWins(t *testing.T) {
	rs := identityRowSet(t,
		"アスピリン錠100mg|YJ00000001|錠",
		"アスピリン錠100mg|YJ00000009|カプセル",
	)

	mapping := BuildIdentityMap(rs)
	require.Len(t, mapping, 1)
	assert.Equal(t, "YJ00000009", mapping["アスピリン錠100mg"].YJCode)
	assert.Equal(t, "カプセル", mapping["アスピリン錠100mg"].Unit)
}

func TestBuildIdentityMapEmpty(t *testing.T) {
	rs := identityRowSet(t)

	mapping := BuildIdentityMap(rs)
	assert.NotNil(t, mapping)
	assert.Empty(t, mapping)
}

func TestResolveIdentity(t *testing.T) {
	inventory := []entities.InventoryRecord{
		{ProductName: "アスピリン錠100mg", Quantity: 10},
		{ProductName: "未登録の薬", Quantity: 5},
	}
	identity := map[string]entities.IdentityEntry{
		"アスピリン錠100mg": {YJCode: "YJ00000001", Unit: "錠"},
	}

	ResolveIdentity(inventory, identity)

	require.NotNil(t, inventory[0].YJCode)
	assert.Equal(t, "YJ00000001", *inventory[0].YJCode)
	assert.Equal(t, "錠", *inventory[0].Unit)
	assert.Nil(t, inventory[1].YJCode)
	assert.Nil(t, inventory[1].Unit)
}

func TestIdentityDuplicates(t *testing.T) {
	rs := identityRowSet(t,
		"アスピリン錠100mg|YJ00000001|錠",
		"ガスター錠20mg|YJ00000002|錠",
		"アスピリン錠100mg|YJ00000009|錠",
		"ガスター錠20mg|YJ00000002|錠",
		"アスピリン錠100mg|YJ00000001|錠",
	)

	// First-seen order, each name reported once.
	assert.Equal(t, []string{"アスピリン錠100mg", "ガスター錠20mg"}, IdentityDuplicates(rs))
}

func TestIdentityDuplicatesNone(t *testing.T) {
	rs := identityRowSet(t, "アスピリン錠100mg|YJ00000001|錠")
	assert.Empty(t, IdentityDuplicates(rs))
}
