package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/metrics"
	"github.com/mamadbah2/warehouse/internal/pricing"
	repo "github.com/mamadbah2/warehouse/internal/repository/sheets"
)

const (
	ledgerDataRange = "Outflow!A:I"
	ledgerIDRange   = "Outflow!A:A"
	maxExportSpan   = 366 * 24 * time.Hour
)

// ErrSheetsDisabled is returned by ExportDaily when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("ledger spreadsheet not configured")

var ledgerHeader = []interface{}{
	"id", "outflow_date", "name", "mobile_number", "item_type", "area_stored", "quantity", "unit_price", "total_price",
}

// OutflowSource lists outflow records by outflow date.
type OutflowSource interface {
	OutflowsBetween(ctx context.Context, from, to time.Time) ([]models.OutflowRecord, error)
}

// Service exports the outflow ledger as a workbook or into a shared spreadsheet.
type Service struct {
	source  OutflowSource
	sheets  repo.Repository
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewService wires a new reporting service instance. sheets may be nil.
func NewService(source OutflowSource, sheets repo.Repository, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, sheets: sheets, metrics: recorder, logger: logger}
}

// SheetsEnabled reports whether ExportDaily has a spreadsheet to write to.
func (s *Service) SheetsEnabled() bool {
	return s.sheets != nil
}

// ExportXLSX renders the outflow records whose outflow date lies in [from, to]
// as an xlsx workbook, oldest first.
func (s *Service) ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error) {
	from, to = pricing.CalendarDate(from), pricing.CalendarDate(to)
	if to.Before(from) {
		return nil, models.Invalid("to %s is before from %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}
	if to.Sub(from) > maxExportSpan {
		return nil, models.Invalid("export range must not exceed one year")
	}

	records, err := s.source.OutflowsBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		s.metrics.LedgerExport("xlsx", "error")
		return nil, fmt.Errorf("load outflow ledger: %w", err)
	}

	data, err := renderWorkbook(records)
	if err != nil {
		s.metrics.LedgerExport("xlsx", "error")
		return nil, err
	}

	s.metrics.LedgerExport("xlsx", "ok")
	s.logger.Info("ledger workbook exported",
		zap.String("from", from.Format(models.DateLayout)),
		zap.String("to", to.Format(models.DateLayout)),
		zap.Int("rows", len(records)),
	)
	return data, nil
}

func renderWorkbook(records []models.OutflowRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Outflow"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	header := ledgerHeader
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	var total float64
	row := 2
	for _, rec := range records {
		values := ledgerRow(rec)
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("locate row %d: %w", row, err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		total += rec.TotalPrice
		row++
	}

	if len(records) > 0 {
		cell, err := excelize.CoordinatesToCellName(len(ledgerHeader)-1, row)
		if err != nil {
			return nil, fmt.Errorf("locate totals: %w", err)
		}
		totals := []interface{}{"total", total}
		if err := f.SetSheetRow(sheet, cell, &totals); err != nil {
			return nil, fmt.Errorf("write totals: %w", err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportDaily appends the outflow records of day to the ledger spreadsheet.
// Records whose ID is already present in the sheet are skipped, so reruns are safe.
func (s *Service) ExportDaily(ctx context.Context, day time.Time) (int, error) {
	if s.sheets == nil {
		return 0, ErrSheetsDisabled
	}

	from := pricing.CalendarDate(day)
	records, err := s.source.OutflowsBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		s.metrics.LedgerExport("sheets", "error")
		return 0, fmt.Errorf("load outflow ledger: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	existing, err := s.sheets.ReadRange(ctx, ledgerIDRange)
	if err != nil {
		s.metrics.LedgerExport("sheets", "error")
		return 0, fmt.Errorf("load exported ids: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if len(row) > 0 {
			seen[fmt.Sprint(row[0])] = struct{}{}
		}
	}

	rows := make([][]interface{}, 0, len(records))
	if len(existing) == 0 {
		rows = append(rows, ledgerHeader)
	}
	appended := 0
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		rows = append(rows, ledgerRow(rec))
		appended++
	}
	if appended == 0 {
		s.logger.Debug("ledger already up to date", zap.String("day", from.Format(models.DateLayout)))
		return 0, nil
	}

	if err := s.sheets.AppendRows(ctx, ledgerDataRange, rows); err != nil {
		s.metrics.LedgerExport("sheets", "error")
		return 0, fmt.Errorf("append ledger rows: %w", err)
	}

	s.metrics.LedgerExport("sheets", "ok")
	s.logger.Info("ledger rows appended", zap.String("day", from.Format(models.DateLayout)), zap.Int("rows", appended))
	return appended, nil
}

func ledgerRow(rec models.OutflowRecord) []interface{} {
	return []interface{}{
		rec.ID,
		rec.OutflowDate.Format(models.DateLayout),
		rec.Name,
		rec.MobileNumber,
		rec.ItemTypeName,
		rec.AreaStored,
		rec.Quantity,
		rec.Price,
		rec.TotalPrice,
	}
}
