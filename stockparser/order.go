package stockparser

import (
	"sort"

	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// FacilityGroup is one report partition: all records of a facility plus its
// legal-entity/facility header pair.
type FacilityGroup struct {
	LegalEntity string                      `json:"legal_entity"`
	Facility    string                      `json:"facility"`
	Records     []entities.ReconciledRecord `json:"records"`
}

// Order returns a copy of records sorted for reporting: dead stock first, then
// most urgent expiry, then legal entity and facility (both case-sensitive
// lexicographic ascending). The sort is stable so equal tuples keep their
// original inventory order.
func Order(records []entities.ReconciledRecord) []entities.ReconciledRecord {
	ordered := make([]entities.ReconciledRecord, len(records))
	copy(ordered, records)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.DeadStock != b.DeadStock {
			return a.DeadStock
		}
		if a.DaysUntilExpiry != b.DaysUntilExpiry {
			return a.DaysUntilExpiry < b.DaysUntilExpiry
		}
		if a.LegalEntity != b.LegalEntity {
			return a.LegalEntity < b.LegalEntity
		}
		return a.Facility < b.Facility
	})

	return ordered
}

// GroupByFacility partitions an ordered record set by facility name, in order
// of first appearance. Records with a blank facility are excluded from every
// partition; they stay in the flat ordered set used for aggregate statistics.
func GroupByFacility(ordered []entities.ReconciledRecord) []FacilityGroup {
	var groups []FacilityGroup
	indexOf := make(map[string]int)

	for _, rec := range ordered {
		if rec.Facility == "" {
			continue
		}
		i, ok := indexOf[rec.Facility]
		if !ok {
			i = len(groups)
			indexOf[rec.Facility] = i
			groups = append(groups, FacilityGroup{
				LegalEntity: rec.LegalEntity,
				Facility:    rec.Facility,
			})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups
}
