package reading

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Issuer identifies which extraction rule set applies to a document.
type Issuer int

const (
	// IssuerFallback is the generic rule set used when no issuer marker matches
	IssuerFallback Issuer = iota
	IssuerAmericanExpress
	IssuerLansforsakringar
	IssuerTransportstyrelsen
	IssuerTelenor
	// IssuerQR marks records built from a machine-readable QR payload,
	// which bypass issuer classification entirely
	IssuerQR
)

// Name returns the display name persisted alongside an invoice
func (i Issuer) Name() string {
	switch i {
	case IssuerAmericanExpress:
		return "AmericanExpress"
	case IssuerLansforsakringar:
		return "Lansforsakringar"
	case IssuerTransportstyrelsen:
		return "Transportstyrelsen"
	case IssuerTelenor:
		return "Telenor"
	case IssuerQR:
		return "QR"
	default:
		return "Fallback"
	}
}

// issuerMarker pairs an identifying substring with its issuer. The list is
// checked top to bottom and the first hit wins.
type issuerMarker struct {
	substring string
	issuer    Issuer
}

var issuerMarkers = []issuerMarker{
	{"www.americanexpress.se", IssuerAmericanExpress},
	{"Länsförsäkringar", IssuerLansforsakringar},
	{"Transportstyrelsen", IssuerTransportstyrelsen},
	{"Telenor", IssuerTelenor},
}

// classifyIssuer scans extracted document text for issuer markers.
// It never fails; unknown documents resolve to IssuerFallback.
func classifyIssuer(text string) Issuer {
	for _, m := range issuerMarkers {
		if strings.Contains(text, m.substring) {
			return m.issuer
		}
	}
	return IssuerFallback
}

// fieldRule locates one field's raw substring and normalizes it into the
// record. An assign error leaves the field absent without affecting the
// other fields of the record.
type fieldRule struct {
	pattern *regexp.Regexp
	assign  func(raw string, rec *PaymentRecord) error
}

// extractRecord applies a rule set to raw document text. Matches include
// the surrounding label tokens; each normalizer strips its own labels.
func extractRecord(rules []fieldRule, text string) PaymentRecord {
	var rec PaymentRecord
	for _, rule := range rules {
		raw := rule.pattern.FindString(text)
		if raw == "" {
			continue
		}
		// Normalization failures are field-local: the field stays
		// absent and extraction of the remaining fields continues.
		_ = rule.assign(raw, &rec)
	}
	return rec
}

// swedishMonths maps lowercase Swedish month names to month numbers.
var swedishMonths = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"mars":      time.March,
	"april":     time.April,
	"maj":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augusti":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// stripTokens removes the given label tokens from a raw match and trims it
func stripTokens(raw string, tokens ...string) string {
	for _, t := range tokens {
		raw = strings.ReplaceAll(raw, t, "")
	}
	return strings.TrimSpace(raw)
}

// assignAmount parses a locale-formatted amount where thousandsSep groups
// digits and decimalSep (if any) precedes the decimals
func assignAmount(raw, thousandsSep, decimalSep string, rec *PaymentRecord) error {
	if thousandsSep != "" {
		raw = strings.ReplaceAll(raw, thousandsSep, "")
	}
	if decimalSep != "" && decimalSep != "." {
		raw = strings.ReplaceAll(raw, decimalSep, ".")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	rec.Amount = &amount
	return nil
}

// assignOCR parses a payment reference number
func assignOCR(raw string, rec *PaymentRecord) error {
	n, err := strconv.ParseInt(strings.ReplaceAll(raw, " ", ""), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing ocr %q: %w", raw, err)
	}
	if n == 0 {
		return fmt.Errorf("ocr is zero")
	}
	rec.OCR = n
	return nil
}

// assignDate parses a due date with the given time layout
func assignDate(raw, layout string, rec *PaymentRecord) error {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return fmt.Errorf("parsing due date %q: %w", raw, err)
	}
	rec.DueDate = &t
	return nil
}

// Per-issuer rule tables. Each issuer's invoice layout uses different label
// words, date formats and digit grouping, so the tables are distinct rather
// than parameterized by locale alone. They are process-wide constants, never
// mutated after init, and safe for concurrent readers.
var (
	americanExpressRules = []fieldRule{
		{
			// e.g. "Fakturans saldo 1.250,50"
			pattern: regexp.MustCompile(`Fakturans\s+saldo\s+\d{1,3}(?:\.\d{3})*,\d{2}`),
			assign: func(raw string, rec *PaymentRecord) error {
				raw = stripTokens(raw, "Fakturans", "saldo")
				return assignAmount(raw, ".", ",", rec)
			},
		},
		{
			pattern: regexp.MustCompile(`Bankgiro:\s*\d{4}-\d{4}`),
			assign: func(raw string, rec *PaymentRecord) error {
				rec.Bankgiro = stripTokens(strings.ToLower(raw), "bankgiro:")
				return nil
			},
		},
		{
			pattern: regexp.MustCompile(`OCR:\s*\d{10,20}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignOCR(stripTokens(raw, "OCR:"), rec)
			},
		},
		{
			// e.g. "oss tillhanda den 15.01.25"
			pattern: regexp.MustCompile(`oss\stillhanda\sden\s\d{2}\.\d{2}\.\d{2}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignDate(stripTokens(raw, "oss tillhanda den"), "02.01.06", rec)
			},
		},
	}

	lansforsakringarRules = []fieldRule{
		{
			// e.g. "Summa att betala 1 250"
			pattern: regexp.MustCompile(`Summa\satt\sbetala\s\d{1,3}(?:\s?\d{3})*`),
			assign: func(raw string, rec *PaymentRecord) error {
				raw = stripTokens(raw, "Summa att betala")
				return assignAmount(raw, " ", "", rec)
			},
		},
		{
			pattern: regexp.MustCompile(`\d{3}-\d{4}\sLänsförsäkringar`),
			assign: func(raw string, rec *PaymentRecord) error {
				rec.Bankgiro = stripTokens(raw, "Länsförsäkringar")
				return nil
			},
		},
		{
			pattern: regexp.MustCompile(`OCR-nummer\s+\d{10,20}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignOCR(stripTokens(raw, "OCR-nummer"), rec)
			},
		},
		{
			pattern: regexp.MustCompile(`senast\s\d{4}-\d{2}-\d{2}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignDate(stripTokens(raw, "senast"), "2006-01-02", rec)
			},
		},
	}

	transportstyrelsenRules = []fieldRule{
		{
			// e.g. "Summa att betala 1 250"
			pattern: regexp.MustCompile(`Summa\satt\sbetala\s\d{1,3}(?:\s?\d{3})*`),
			assign: func(raw string, rec *PaymentRecord) error {
				raw = stripTokens(raw, "Summa att betala")
				return assignAmount(raw, " ", "", rec)
			},
		},
		{
			pattern: regexp.MustCompile(`\d{3}-\d{4}\swww\.transportstyrelsen\.se`),
			assign: func(raw string, rec *PaymentRecord) error {
				rec.Bankgiro = stripTokens(raw, "www.transportstyrelsen.se")
				return nil
			},
		},
		{
			pattern: regexp.MustCompile(`OCR-nummer\s+\d{10,20}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignOCR(stripTokens(raw, "OCR-nummer"), rec)
			},
		},
		{
			pattern: regexp.MustCompile(`senast\s\d{4}-\d{2}-\d{2}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignDate(stripTokens(raw, "senast"), "2006-01-02", rec)
			},
		},
	}

	telenorRules = []fieldRule{
		{
			// e.g. "Summa att betala 1.250,50"
			pattern: regexp.MustCompile(`Summa\satt\sbetala\s\d{1,3}(?:\.\d{3})*,\d{2}`),
			assign: func(raw string, rec *PaymentRecord) error {
				raw = stripTokens(raw, "Summa att betala")
				return assignAmount(raw, ".", ",", rec)
			},
		},
		{
			pattern: regexp.MustCompile(`\d{4}-\d{4}\sTelenor\sSverige\sAB`),
			assign: func(raw string, rec *PaymentRecord) error {
				rec.Bankgiro = stripTokens(raw, "Telenor Sverige AB")
				return nil
			},
		},
		{
			pattern: regexp.MustCompile(`OCR-nummer:\s*#\s*\d{10,20}`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignOCR(stripTokens(raw, "OCR-nummer:", "#"), rec)
			},
		},
		{
			// e.g. "oss tillhanda 15 januari 2025"; the month name is
			// resolved by map lookup, not positional substitution
			pattern: regexp.MustCompile(`oss\stillhanda\s\d{1,2}\s[a-zA-Z]+\s\d{4}`),
			assign: func(raw string, rec *PaymentRecord) error {
				fields := strings.Fields(stripTokens(raw, "oss tillhanda"))
				if len(fields) != 3 {
					return fmt.Errorf("unexpected due date shape %q", raw)
				}
				day, err := strconv.Atoi(fields[0])
				if err != nil {
					return fmt.Errorf("parsing due date day %q: %w", fields[0], err)
				}
				month, ok := swedishMonths[strings.ToLower(fields[1])]
				if !ok {
					return fmt.Errorf("unknown month name %q", fields[1])
				}
				year, err := strconv.Atoi(fields[2])
				if err != nil {
					return fmt.Errorf("parsing due date year %q: %w", fields[2], err)
				}
				t, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
				if err != nil {
					return fmt.Errorf("parsing due date %q: %w", raw, err)
				}
				rec.DueDate = &t
				return nil
			},
		},
	}

	// fallbackRules match the positional markers surviving in markdown
	// conversions of payment slips, a looser net than any issuer layout.
	fallbackRules = []fieldRule{
		{
			pattern: regexp.MustCompile(`#\s*\d{10,20}\s+#`),
			assign: func(raw string, rec *PaymentRecord) error {
				return assignOCR(stripTokens(raw, "#"), rec)
			},
		},
		{
			// e.g. "# 1 250 " is kronor and öre separated by whitespace
			pattern: regexp.MustCompile(`#\s*\d{1,3}\s+\d{2}\s`),
			assign: func(raw string, rec *PaymentRecord) error {
				fields := strings.Fields(stripTokens(raw, "#"))
				if len(fields) < 2 {
					return fmt.Errorf("unexpected amount shape %q", raw)
				}
				return assignAmount(fields[0]+"."+fields[1], "", "", rec)
			},
		},
		{
			pattern: regexp.MustCompile(`>\s*(?:\d{7}|\d{3}-\d{4})`),
			assign: func(raw string, rec *PaymentRecord) error {
				giro := stripTokens(raw, ">")
				if !strings.Contains(giro, "-") && len(giro) == 7 {
					giro = giro[:3] + "-" + giro[3:]
				}
				rec.Bankgiro = giro
				return nil
			},
		},
	}
)

// ruleSets binds each issuer to its immutable extraction rule table
var ruleSets = map[Issuer][]fieldRule{
	IssuerAmericanExpress:    americanExpressRules,
	IssuerLansforsakringar:   lansforsakringarRules,
	IssuerTransportstyrelsen: transportstyrelsenRules,
	IssuerTelenor:            telenorRules,
	IssuerFallback:           fallbackRules,
}
