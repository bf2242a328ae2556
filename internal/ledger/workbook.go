package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/xuri/excelize/v2"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/parse"
)

const (
	sheetInvoices    = "Invoices"
	sheetSales       = "Sales"
	sheetSettlements = "Settlements"
	sheetRevenue     = "Revenue"
)

var invoiceHeaders = []string{
	"Order ID", "Date", "Price", "Item Name", "Delivery Address", "State", "Total Sold", "Logged At",
}

// catalogue seeds the Settlements sheet; settlement amounts are filled in
// by hand afterwards.
var catalogue = []string{
	"Voeux-Ambient",
	"Voeux-Diamond-464",
	"Voeux-Goldenbody",
	"Voeux-X80PREMIUM",
	"Voeux-Piano-Singleknob",
	"Voeux-TS7-264",
	"Voeux-6inch",
	"Voeux-Diamond-X80",
	"VOEUX-BLACKBODY",
	"Voeux-TS7-232",
	"Voeux-AmbientPremium",
	"Voeux-PianoDualKnob",
	"Voeux-SVX0377BT",
	"Voeux-MiddleKnob-Piano",
}

// Workbook is the XLSX ledger every processed invoice is appended to. It
// carries four sheets: the invoice log, a per-product sales counter, the
// hand-maintained settlement prices, and a revenue transaction log.
type Workbook struct {
	path   string
	logger *slog.Logger
}

func NewWorkbook(path string, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{path: path, logger: logger}
}

// Append logs one extracted record. The sales counter and revenue log are
// best-effort: their failure downgrades the Total Sold column to the
// sentinel but never fails the invoice append itself.
func (w *Workbook) Append(ctx context.Context, rec parse.Record) (string, error) {
	f, err := w.open()
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			w.logger.Warn("closing workbook", "error", cerr)
		}
	}()

	totalSold := constants.NotAvailable
	if rec.ItemName != constants.NotAvailable {
		if n, err := w.incrementSales(f, rec.ItemName); err != nil {
			w.logger.Error("sales count update failed", "item", rec.ItemName, "error", err)
		} else {
			totalSold = strconv.Itoa(n)
		}

		settlement := w.settlementPrice(f, rec.ItemName)
		if err := w.logRevenue(f, rec, settlement); err != nil {
			w.logger.Error("revenue log failed", "order_id", rec.OrderID, "error", err)
		}
	}

	row := []any{
		rec.OrderID, rec.Date, rec.Price, rec.ItemName,
		rec.DeliveryAddress, rec.DeliveryState, totalSold,
		time.Now().UTC().Format(time.RFC3339),
	}
	if err := appendRow(f, sheetInvoices, row); err != nil {
		return "", fmt.Errorf("append invoice row: %w", err)
	}

	if err := w.save(ctx, f); err != nil {
		return "", err
	}
	w.logger.Info("invoice appended to ledger", "order_id", rec.OrderID, "total_sold", totalSold)
	return totalSold, nil
}

// open loads the workbook from disk, creating it with all sheets and
// headers on first use.
func (w *Workbook) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); err == nil {
		f, err := excelize.OpenFile(w.path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		if err := w.ensureSheets(f); err != nil {
			_ = f.Close()
			return nil, err
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetInvoices); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	if err := w.ensureSheets(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func (w *Workbook) ensureSheets(f *excelize.File) error {
	if err := ensureSheet(f, sheetInvoices, invoiceHeaders); err != nil {
		return err
	}
	if err := ensureSheet(f, sheetSales, []string{"Product Name", "Total Items Sold", "Last Updated"}); err != nil {
		return err
	}
	if err := w.ensureSettlements(f); err != nil {
		return err
	}
	return w.ensureRevenue(f)
}

func ensureSheet(f *excelize.File, name string, headers []string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return setRow(f, name, 1, toAny(headers))
}

func (w *Workbook) ensureSettlements(f *excelize.File) error {
	idx, err := f.GetSheetIndex(sheetSettlements)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(sheetSettlements); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetSettlements, err)
	}
	if err := setRow(f, sheetSettlements, 1, []any{"Product Name", "Settlement Amount (Net Revenue)"}); err != nil {
		return err
	}
	for i, p := range catalogue {
		if err := setRow(f, sheetSettlements, i+2, []any{p, "0"}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) ensureRevenue(f *excelize.File) error {
	idx, err := f.GetSheetIndex(sheetRevenue)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(sheetRevenue); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheetRevenue, err)
	}
	if err := f.SetCellValue(sheetRevenue, "A1", "GRAND TOTAL NET REVENUE"); err != nil {
		return err
	}
	if err := f.SetCellFormula(sheetRevenue, "B1", "SUM(F3:F10000)"); err != nil {
		return err
	}
	return setRow(f, sheetRevenue, 2, []any{
		"Order ID", "Date", "Product Name", "Selling Price", "Settlement Price", "Net Revenue",
	})
}

// incrementSales bumps the per-product counter, creating the row with a
// count of 1 when the product is new. Returns the new count.
func (w *Workbook) incrementSales(f *excelize.File, product string) (int, error) {
	rows, err := f.GetRows(sheetSales)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 || !strings.EqualFold(rows[i][0], product) {
			continue
		}
		count := 0
		if len(rows[i]) > 1 {
			count, _ = strconv.Atoi(rows[i][1])
		}
		count++
		if err := setRow(f, sheetSales, i+1, []any{rows[i][0], count, now}); err != nil {
			return 0, err
		}
		return count, nil
	}
	if err := appendRow(f, sheetSales, []any{product, 1, now}); err != nil {
		return 0, err
	}
	return 1, nil
}

// settlementPrice looks a product up on the Settlements sheet; unknown
// products settle at zero.
func (w *Workbook) settlementPrice(f *excelize.File, product string) float64 {
	rows, err := f.GetRows(sheetSettlements)
	if err != nil {
		w.logger.Warn("reading settlements sheet", "error", err)
		return 0
	}
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) < 2 || !strings.EqualFold(rows[i][0], product) {
			continue
		}
		raw := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' {
				return r
			}
			return -1
		}, rows[i][1])
		v, _ := strconv.ParseFloat(raw, 64)
		return v
	}
	return 0
}

// logRevenue appends one transaction to the Revenue sheet. The settlement
// price is the net revenue: commission is already taken out of it.
func (w *Workbook) logRevenue(f *excelize.File, rec parse.Record, settlement float64) error {
	return appendRow(f, sheetRevenue, []any{
		rec.OrderID, rec.Date, rec.ItemName, rec.Price, settlement, settlement,
	})
}

func (w *Workbook) save(ctx context.Context, f *excelize.File) error {
	err := retry.Do(
		func() error { return f.SaveAs(w.path) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func appendRow(f *excelize.File, sheet string, values []any) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	return setRow(f, sheet, len(rows)+1, values)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
