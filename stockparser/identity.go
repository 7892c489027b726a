package stockparser

import (
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// BuildIdentityMap builds the drug-name to (YJ code, unit) lookup from the
// identity master rows. Later rows with a previously seen name overwrite
// earlier ones: the master carries no uniqueness guarantee and last-write-wins
// is the established behavior. An empty RowSet yields an empty map, not an
// error; downstream resolution then leaves every inventory row unresolved.
func BuildIdentityMap(rs *RowSet) map[string]entities.IdentityEntry {
	mapping := make(map[string]entities.IdentityEntry, len(rs.Rows))
	for _, row := range rs.Rows {
		name := rs.Field(row, ColProductName)
		if name == "" {
			continue
		}
		mapping[name] = entities.IdentityEntry{
			YJCode: rs.Field(row, ColYJCode),
			Unit:   rs.Field(row, ColUnit),
		}
	}
	return mapping
}

// ResolveIdentity fills each inventory record's canonical code and unit from
// the identity map. Unresolved names leave both nil; the row is kept either way.
func ResolveIdentity(inventory []entities.InventoryRecord, identity map[string]entities.IdentityEntry) {
	for i := range inventory {
		entry, ok := identity[inventory[i].ProductName]
		if !ok {
			continue
		}
		code, unit := entry.YJCode, entry.Unit
		inventory[i].YJCode = &code
		inventory[i].Unit = &unit
	}
}

// IdentityDuplicates lists drug names that appear more than once in the
// identity master, in first-seen order. Used for the data quality report.
func IdentityDuplicates(rs *RowSet) []string {
	seen := make(map[string]int, len(rs.Rows))
	var duplicates []string
	for _, row := range rs.Rows {
		name := rs.Field(row, ColProductName)
		if name == "" {
			continue
		}
		seen[name]++
		if seen[name] == 2 {
			duplicates = append(duplicates, name)
		}
	}
	return duplicates
}
