package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypeJSON = "application/json"
)

// VarianceReportWriter writes a variance workbook for a count.
type VarianceReportWriter interface {
	WriteVarianceReport(w io.Writer, ic *inventory.InventoryCount, summary inventory.VarianceSummary) error
}

// CountSheetReader parses a filled-in count sheet.
type CountSheetReader interface {
	ReadCountSheet(r io.Reader) ([]CountSheetRow, error)
}

// CountSheetRenderer renders a printable count sheet.
type CountSheetRenderer interface {
	RenderCountSheet(ctx context.Context, ic *inventory.InventoryCount) ([]byte, error)
}

// ArchiveLinker hands out download links for stored archives.
type ArchiveLinker interface {
	DownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// ErrNotArchived is returned when a count has no archive yet.
var ErrNotArchived = shared.NewDomainError("NOT_ARCHIVED", "Count has not been archived yet")

// Document is a generated file
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CountDocumentService produces and ingests count documents.
type CountDocumentService struct {
	countRepo inventory.InventoryCountRepository
	counts    *CountService
	reports   VarianceReportWriter
	reader    CountSheetReader
	sheets    CountSheetRenderer
	archives  ArchiveLinker
}

// DocumentOption configures a CountDocumentService.
type DocumentOption func(*CountDocumentService)

// WithArchiveLinks enables archive download links.
func WithArchiveLinks(l ArchiveLinker) DocumentOption {
	return func(s *CountDocumentService) { s.archives = l }
}

// NewCountDocumentService creates a new CountDocumentService. sheets may be
// nil when no PDF renderer is configured.
func NewCountDocumentService(
	countRepo inventory.InventoryCountRepository,
	counts *CountService,
	reports VarianceReportWriter,
	reader CountSheetReader,
	sheets CountSheetRenderer,
	opts ...DocumentOption,
) *CountDocumentService {
	s := &CountDocumentService{
		countRepo: countRepo,
		counts:    counts,
		reports:   reports,
		reader:    reader,
		sheets:    sheets,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VarianceReport builds the xlsx variance report of a count.
func (s *CountDocumentService) VarianceReport(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	data, err := buildVarianceReport(s.reports, ic)
	if err != nil {
		return nil, err
	}
	return &Document{
		Filename:    fmt.Sprintf("%s-variances.xlsx", ic.CountNumber),
		ContentType: ContentTypeXLSX,
		Data:        data,
	}, nil
}

// CountSheet renders the printable PDF count sheet of a count.
func (s *CountDocumentService) CountSheet(ctx context.Context, tenantID, id uuid.UUID) (*Document, error) {
	if s.sheets == nil {
		return nil, ErrRendererUnavailable
	}
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	data, err := s.sheets.RenderCountSheet(ctx, ic)
	if err != nil {
		return nil, fmt.Errorf("render count sheet %s: %w", ic.CountNumber, err)
	}
	return &Document{
		Filename:    fmt.Sprintf("%s-sheet.pdf", ic.CountNumber),
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

// ImportSheet reads an uploaded count sheet and records its quantities.
func (s *CountDocumentService) ImportSheet(ctx context.Context, tenantID, id uuid.UUID, actor Actor, r io.Reader) (*ImportResult, error) {
	rows, err := s.reader.ReadCountSheet(r)
	if err != nil {
		return nil, err
	}
	return s.counts.ImportCounts(ctx, tenantID, id, actor, rows)
}

// ArchiveLink returns a time-limited link to the archived snapshot of a
// decided count.
func (s *CountDocumentService) ArchiveLink(ctx context.Context, tenantID, id uuid.UUID) (*ArchiveLinkResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if ic.ArchivedAt == nil || ic.ArchiveKey == "" || s.archives == nil {
		return nil, ErrNotArchived
	}
	url, expiresAt, err := s.archives.DownloadURL(ctx, ic.ArchiveKey, 0)
	if err != nil {
		return nil, fmt.Errorf("archive link %s: %w", ic.CountNumber, err)
	}
	return &ArchiveLinkResponse{CountID: ic.ID, Key: ic.ArchiveKey, URL: url, ExpiresAt: expiresAt}, nil
}

func buildVarianceReport(w VarianceReportWriter, ic *inventory.InventoryCount) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.WriteVarianceReport(&buf, ic, ic.Variances()); err != nil {
		return nil, fmt.Errorf("write variance report %s: %w", ic.CountNumber, err)
	}
	return buf.Bytes(), nil
}
