package invoice

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/linx02/finance-app/internal/reading"
)

// IDGenerator generates unique IDs for invoices
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice operations
type Service struct {
	db          DB
	reader      reading.DocumentReader
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, reader reading.DocumentReader, storage Storage) *Service {
	return &Service{
		db:          db,
		reader:      reader,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, reader reading.DocumentReader, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		reader:      reader,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// storedExtension maps an upload's content type to the extension its
// stored copy gets. Stored names are fresh UUIDs, never the original
// filename.
func storedExtension(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/heic", "image/heif":
		return ".heic"
	default:
		return ".jpg"
	}
}

// ProcessInvoice stores an uploaded invoice document, interprets it and
// persists the resulting invoice. PDFs run the full extraction pipeline;
// photographed invoices run the QR pipeline only.
func (s *Service) ProcessInvoice(filename string, data []byte, contentType string) (*Invoice, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + storedExtension(contentType)
	savedPath, err := s.storage.Save(storedName, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	var result *reading.Result
	if contentType == "application/pdf" {
		result, err = s.reader.Read(data)
	} else {
		result, err = s.reader.ReadImage(data, contentType)
	}
	if err != nil {
		slog.Error("Failed to read invoice document",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the stored file since interpretation failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("reading invoice: %w", err)
	}

	var ocr string
	if result.Record.OCR != 0 {
		ocr = strconv.FormatInt(result.Record.OCR, 10)
	}

	invoice := &Invoice{
		ID:          id,
		Issuer:      result.Issuer.Name(),
		Amount:      result.Record.Amount,
		OCR:         ocr,
		Bankgiro:    result.Record.Bankgiro,
		Plusgiro:    result.Record.Plusgiro,
		DueDate:     result.Record.DueDate,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveInvoice(invoice); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}

	return invoice, nil
}

// CreateParams holds the fields of a manually entered invoice
type CreateParams struct {
	Issuer   string
	Amount   *decimal.Decimal
	OCR      string
	Bankgiro string
	Plusgiro string
	DueDate  string // YYYY-MM-DD, empty for none
}

// CreateInvoice persists a manually entered invoice
func (s *Service) CreateInvoice(params CreateParams) (*Invoice, error) {
	now := s.timeSource.Now()

	invoice := &Invoice{
		ID:        s.idGenerator.Generate(),
		Issuer:    params.Issuer,
		Amount:    params.Amount,
		OCR:       params.OCR,
		Bankgiro:  params.Bankgiro,
		Plusgiro:  params.Plusgiro,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if params.DueDate != "" {
		due, err := time.Parse("2006-01-02", params.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", params.DueDate)
		}
		invoice.DueDate = &due
	}

	if err := s.db.SaveInvoice(invoice); err != nil {
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}
	return invoice, nil
}

// UpdateParams holds the updatable invoice fields; nil means unchanged
type UpdateParams struct {
	Issuer   *string
	Amount   *decimal.Decimal
	OCR      *string
	Bankgiro *string
	Plusgiro *string
	DueDate  *string // YYYY-MM-DD, empty string clears the date
	Paid     *bool
}

// UpdateInvoice applies a partial update to an invoice
func (s *Service) UpdateInvoice(id string, params UpdateParams) (*Invoice, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	if params.Issuer != nil {
		invoice.Issuer = *params.Issuer
	}
	if params.Amount != nil {
		invoice.Amount = params.Amount
	}
	if params.OCR != nil {
		invoice.OCR = *params.OCR
	}
	if params.Bankgiro != nil {
		invoice.Bankgiro = *params.Bankgiro
	}
	if params.Plusgiro != nil {
		invoice.Plusgiro = *params.Plusgiro
	}
	if params.DueDate != nil {
		if *params.DueDate == "" {
			invoice.DueDate = nil
		} else {
			due, err := time.Parse("2006-01-02", *params.DueDate)
			if err != nil {
				return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", *params.DueDate)
			}
			invoice.DueDate = &due
		}
	}
	if params.Paid != nil {
		invoice.Paid = *params.Paid
	}
	invoice.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveInvoice(invoice); err != nil {
		return nil, fmt.Errorf("saving invoice to database: %w", err)
	}
	return invoice, nil
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (*Invoice, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}
	return invoice, nil
}

// ListInvoices returns all invoices
func (s *Service) ListInvoices() ([]*Invoice, error) {
	invoices, err := s.db.ListInvoices()
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, nil
}

// DeleteInvoice removes an invoice and its stored document
func (s *Service) DeleteInvoice(id string) error {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return fmt.Errorf("getting invoice for deletion: %w", err)
	}

	if invoice.Filename != "" {
		if err := s.storage.Delete(invoice.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", invoice.Filename, "error", err)
		}
	}

	if err := s.db.DeleteInvoice(id); err != nil {
		return fmt.Errorf("deleting invoice from database: %w", err)
	}
	return nil
}

// GetInvoiceFile retrieves the stored document for an invoice
func (s *Service) GetInvoiceFile(id string) ([]byte, string, error) {
	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice: %w", err)
	}
	if invoice.Filename == "" {
		return nil, "", fmt.Errorf("invoice %s has no document", id)
	}

	data, err := s.storage.Get(invoice.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting invoice file: %w", err)
	}

	return data, invoice.ContentType, nil
}
