package stockparser

import (
	"time"

	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/stockparser/entities"
)

// DeadStockThresholdDays is the classification cutoff: a stock line whose
// expiry is this many days away or closer is dead stock.
const DeadStockThresholdDays = 180

// expiryLayouts are the date formats seen across pharmacy system exports.
var expiryLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"20060102",
}

// ParseExpiry parses an expiry cell into a calendar date (UTC midnight).
// Unparsable strings resolve to nil rather than an error.
func ParseExpiry(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// Reconcile joins inventory rows to purchase-history rows via the canonical
// code, computes the expiry classification against now, and assembles the
// unified record set. Every inventory row yields exactly one ReconciledRecord
// (left-join semantics); purchase-history derived fields are empty strings
// when no match exists. The identity map may be empty, but an empty purchase
// or inventory input is a fatal ReconciliationError.
func Reconcile(purchase []entities.PurchaseHistoryRecord, inventory []entities.InventoryRecord, identity map[string]entities.IdentityEntry, now time.Time) ([]entities.ReconciledRecord, error) {
	if len(inventory) == 0 {
		return nil, &ReconciliationError{Reason: "inventory dataset has no usable rows"}
	}
	if len(purchase) == 0 {
		return nil, &ReconciliationError{Reason: "purchase-history dataset has no usable rows"}
	}

	// First-seen wins on duplicate reference codes, keeping the join 1:1 with
	// inventory instead of fanning out rows.
	byCode := make(map[string]entities.PurchaseHistoryRecord, len(purchase))
	for _, p := range purchase {
		if p.YJCode == "" {
			continue
		}
		if _, seen := byCode[p.YJCode]; !seen {
			byCode[p.YJCode] = p
		}
	}

	resolved := make([]entities.InventoryRecord, len(inventory))
	copy(resolved, inventory)
	ResolveIdentity(resolved, identity)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	records := make([]entities.ReconciledRecord, 0, len(resolved))
	unmatched := 0

	for _, inv := range resolved {
		rec := entities.ReconciledRecord{
			ProductName: inv.ProductName,
			Quantity:    inv.Quantity,
			Lot:         inv.Lot,
		}

		if inv.YJCode != nil {
			rec.YJCode = *inv.YJCode
		}
		if inv.Unit != nil {
			rec.Unit = *inv.Unit
		}

		// A null expiry defaults days-until-expiry to 0, which the threshold
		// rule classifies as dead stock. Established behavior; the quality
		// report counts these rows separately.
		days := 0
		if expiry := ParseExpiry(inv.ExpiryRaw); expiry != nil {
			days = int(expiry.Sub(today).Hours() / 24)
			rec.ExpiryDate = expiry.Format(time.DateOnly)
		}
		rec.DaysUntilExpiry = days
		rec.DeadStock = days <= DeadStockThresholdDays

		matched := false
		if rec.YJCode != "" {
			if p, ok := byCode[rec.YJCode]; ok {
				rec.ProductSpec = p.ProductSpec
				rec.InternalCode = p.InternalCode
				rec.LegalEntity = p.LegalEntity
				rec.Facility = p.Facility
				matched = true
			}
		}
		if !matched {
			unmatched++
		}

		records = append(records, rec)
	}

	if unmatched > 0 {
		logging.Info("Reconciliation join statistics",
			"inventory_rows", len(inventory),
			"unmatched_rows", unmatched)
	}

	return records, nil
}
