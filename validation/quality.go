// Package validation reports data quality of a reconciliation run. The report
// is advisory: it surfaces the rows an operator should double-check without
// ever failing the run.
package validation

import (
	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// QualityReport summarizes the soft spots of one run.
type QualityReport struct {
	TotalRecords            int      `json:"total_records"`
	DeadStockRecords        int      `json:"dead_stock_records"`
	UnresolvedIdentity      int      `json:"unresolved_identity"`
	UnmatchedJoin           int      `json:"unmatched_join"`
	NullExpiry              int      `json:"null_expiry"`
	DuplicateIdentityNames  []string `json:"duplicate_identity_names,omitempty"`
	DuplicateReferenceCodes []string `json:"duplicate_reference_codes,omitempty"`
}

// ReportDataQuality inspects a reconciled record set and its inputs.
// duplicateNames comes from the identity master before last-write-wins
// collapsed it.
func ReportDataQuality(records []entities.ReconciledRecord, purchase []entities.PurchaseHistoryRecord, duplicateNames []string) QualityReport {
	report := QualityReport{
		TotalRecords:           len(records),
		DuplicateIdentityNames: duplicateNames,
	}

	for _, r := range records {
		if r.DeadStock {
			report.DeadStockRecords++
		}
		if r.YJCode == "" {
			report.UnresolvedIdentity++
		} else if r.LegalEntity == "" && r.Facility == "" && r.InternalCode == "" && r.ProductSpec == "" {
			report.UnmatchedJoin++
		}
		if r.ExpiryDate == "" {
			// Null expiry defaults to day zero and classifies as dead stock.
			report.NullExpiry++
		}
	}

	seen := make(map[string]int, len(purchase))
	for _, p := range purchase {
		if p.YJCode == "" {
			continue
		}
		seen[p.YJCode]++
		if seen[p.YJCode] == 2 {
			report.DuplicateReferenceCodes = append(report.DuplicateReferenceCodes, p.YJCode)
		}
	}

	if report.UnresolvedIdentity > 0 || report.UnmatchedJoin > 0 || report.NullExpiry > 0 {
		logging.Warn("Reconciliation data quality issues",
			"unresolved_identity", report.UnresolvedIdentity,
			"unmatched_join", report.UnmatchedJoin,
			"null_expiry", report.NullExpiry,
			"total_records", report.TotalRecords)
	}
	if len(report.DuplicateIdentityNames) > 0 {
		logging.Warn("Duplicate identity master names detected",
			"count", len(report.DuplicateIdentityNames),
			"names", report.DuplicateIdentityNames)
	}
	if len(report.DuplicateReferenceCodes) > 0 {
		logging.Warn("Duplicate purchase-history reference codes detected",
			"count", len(report.DuplicateReferenceCodes),
			"codes", report.DuplicateReferenceCodes)
	}

	return report
}
