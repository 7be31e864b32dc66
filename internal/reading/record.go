package reading

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is the normalized payment data extracted from one invoice
// document. Every field is optional: a pattern that does not match leaves
// its field absent, which is a reportable outcome rather than an error.
// Bankgiro and Plusgiro are mutually exclusive payment targets; a record
// built from a QR payload populates at most one of them.
type PaymentRecord struct {
	Amount   *decimal.Decimal
	Bankgiro string
	Plusgiro string
	OCR      int64 // 0 means absent
	DueDate  *time.Time
}

// Result is the outcome of reading one invoice document.
type Result struct {
	Issuer Issuer
	Record PaymentRecord
}

// DocumentReader defines the interface for invoice document interpretation
type DocumentReader interface {
	// Read interprets a PDF invoice and returns its payment data
	Read(data []byte) (*Result, error)
	// ReadImage interprets a photographed invoice (QR payload only)
	ReadImage(data []byte, contentType string) (*Result, error)
}

// ErrNoQRPayload is returned by ReadImage when a photographed invoice
// carries no decodable payment QR code. Photos have no stable text layout,
// so there is no pattern-extraction fallback for them.
var ErrNoQRPayload = errors.New("no payment QR payload found")
