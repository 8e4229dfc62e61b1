// Package model defines the core data structures for the actual-ai application.
package model

// Transaction represents a single transaction as stored by the budget backend.
// Amounts are in minor units; the sign encodes direction (positive = income).
type Transaction struct {
	ID              string `json:"id"`
	Amount          int64  `json:"amount"`
	Notes           string `json:"notes"`
	ImportedPayee   string `json:"imported_payee"`
	Payee           string `json:"payee"`
	Category        string `json:"category"`
	TransferID      string `json:"transfer_id"`
	StartingBalance bool   `json:"starting_balance_flag"`
}

// IsIncome reports whether the transaction is money coming in.
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

// EligibleForClassification reports whether a transaction belongs in the
// uncategorized set: no category assigned, not part of a transfer, not a
// starting-balance entry, and carrying imported payee text to classify on.
func (t Transaction) EligibleForClassification() bool {
	return t.Category == "" &&
		t.TransferID == "" &&
		!t.StartingBalance &&
		t.ImportedPayee != ""
}

// Payee is a display-name mapping for transactions whose raw imported
// payee text has been resolved to a known payee.
type Payee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
