// Package entities defines the typed records flowing through the dead stock
// reconciliation pipeline. Loosely typed spreadsheet cells are converted into
// these fixed schemas immediately after ingestion.
package entities

// InventoryRecord is one physical stock line from the pharmacy inventory export.
// YJCode and Unit are nil until the identity mapper resolves them.
type InventoryRecord struct {
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	ExpiryRaw   string  `json:"expiry_raw"`
	Lot         string  `json:"lot"`
	YJCode      *string `json:"yj_code"`
	Unit        *string `json:"unit"`
}

// PurchaseHistoryRecord is one cross-facility catalog line from the OMEC
// purchase history workbook. Immutable after ingestion.
type PurchaseHistoryRecord struct {
	YJCode       string `json:"yj_code"`
	LegalEntity  string `json:"legal_entity"`
	Facility     string `json:"facility"`
	ProductSpec  string `json:"product_spec"`
	InternalCode string `json:"internal_code"`
}

// IdentityEntry is the canonical (code, unit) pair for a drug display name,
// sourced from the identity master dataset.
type IdentityEntry struct {
	YJCode string `json:"yj_code"`
	Unit   string `json:"unit"`
}

// ReconciledRecord is the joined output unit. Every ReconciledRecord traces to
// exactly one InventoryRecord; purchase-history derived fields are empty
// strings when the left join found no match.
type ReconciledRecord struct {
	YJCode          string `json:"yj_code"`
	ProductName     string `json:"product_name"`
	ProductSpec     string `json:"product_spec"`
	Quantity        int    `json:"quantity"`
	Unit            string `json:"unit"`
	InternalCode    string `json:"internal_code"`
	ExpiryDate      string `json:"expiry_date"` // ISO YYYY-MM-DD, empty when unparsable
	Lot             string `json:"lot"`
	LegalEntity     string `json:"legal_entity"`
	Facility        string `json:"facility"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	DeadStock       bool   `json:"dead_stock"`
}
