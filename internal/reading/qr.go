package reading

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/shopspring/decimal"
)

// qrPayload is the machine-readable payment payload carried by Swedish
// invoice QR codes, a flat JSON object with short field names. It exists
// only during decoding; payloadRecord converts it to a PaymentRecord.
type qrPayload struct {
	Version     int         `json:"uqr"`
	Type        int         `json:"tp"`
	IssuerName  string      `json:"nme"`
	CompanyID   json.Number `json:"cid"`
	InvoiceRef  json.Number `json:"iref"`
	InvoiceDate string      `json:"idt"`
	DueDate     string      `json:"ddt"`
	DueAmount   json.Number `json:"due"`
	PaymentType string      `json:"pt"`
	Account     string      `json:"acc"`
}

// parseQRPayload parses decoded QR text against the payment payload
// schema. The text is data, never code: anything that is not a JSON
// object carrying the schema's version tag is rejected.
func parseQRPayload(text string) (*qrPayload, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var payload qrPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if payload.Version == 0 {
		return nil, fmt.Errorf("payload has no uqr schema tag")
	}
	return &payload, nil
}

// payloadRecord derives a PaymentRecord from a payload. Individual
// malformed fields degrade to absent; they never fail the record.
func payloadRecord(p *qrPayload) PaymentRecord {
	var rec PaymentRecord

	if p.DueAmount != "" {
		if amount, err := decimal.NewFromString(p.DueAmount.String()); err == nil && !amount.IsZero() {
			rec.Amount = &amount
		}
	}

	// The payment-type discriminator routes the account reference to
	// exactly one payment-target type.
	switch p.PaymentType {
	case "BG":
		rec.Bankgiro = p.Account
	case "PG":
		rec.Plusgiro = p.Account
	}

	if n, err := strconv.ParseInt(p.InvoiceRef.String(), 10, 64); err == nil && n != 0 {
		rec.OCR = n
	}

	if p.DueDate != "" {
		if t, err := time.Parse("20060102", p.DueDate); err == nil {
			rec.DueDate = &t
		}
	}

	return rec
}

// decodeQRImages preprocesses each candidate image and decodes every QR
// symbol it carries, returning the successfully parsed payment payloads
// in image order. An unparsable symbol is skipped, never fatal to the
// batch.
func decodeQRImages(images []image.Image) []*qrPayload {
	reader := qrcode.NewQRCodeMultiReader()
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}

	var payloads []*qrPayload
	for _, img := range images {
		bmp, err := gozxing.NewBinaryBitmapFromImage(preprocess(img))
		if err != nil {
			continue
		}
		results, err := reader.DecodeMultiple(bmp, hints)
		if err != nil {
			// No QR symbol in this image
			continue
		}
		for _, result := range results {
			payload, err := parseQRPayload(result.GetText())
			if err != nil {
				continue
			}
			payloads = append(payloads, payload)
		}
	}
	return payloads
}
