package invoice

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents one tracked invoice with its extracted payment data.
// Extraction fields are optional: an invoice whose document yielded no
// match for a field is stored with that field absent and flagged for
// manual completion.
type Invoice struct {
	ID          string           `json:"id"`
	Issuer      string           `json:"issuer"`
	Amount      *decimal.Decimal `json:"amount"`
	OCR         string           `json:"ocr"` // stored as text to preserve leading digits
	Bankgiro    string           `json:"bankgiro"`
	Plusgiro    string           `json:"plusgiro"`
	DueDate     *time.Time       `json:"due_date"`
	Filename    string           `json:"filename,omitempty"` // empty for manually created invoices
	ContentType string           `json:"content_type,omitempty"`
	Paid        bool             `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NeedsCompletion reports whether the invoice is missing data required to
// pay it and should be completed manually: no positive amount, no due
// date, no OCR reference, no payment target, or only the loose Fallback
// rules matched its document.
func (i *Invoice) NeedsCompletion() bool {
	if i.Amount == nil || !i.Amount.IsPositive() {
		return true
	}
	if i.DueDate == nil || i.OCR == "" {
		return true
	}
	if i.Issuer == "Fallback" {
		return true
	}
	return i.Bankgiro == "" && i.Plusgiro == ""
}

// MarshalJSON includes the derived needs_completion flag in every
// rendering of an invoice
func (i Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		NeedsCompletion bool `json:"needs_completion"`
	}{
		alias:           alias(i),
		NeedsCompletion: i.NeedsCompletion(),
	})
}
