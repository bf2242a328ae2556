package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/repository"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

type fakeExtractor struct {
	text  string
	mode  constants.SourceMode
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (textextract.Result, error) {
	f.calls++
	if f.err != nil {
		return textextract.Result{Mode: f.mode}, f.err
	}
	return textextract.Result{Text: f.text, Mode: f.mode, Pages: 1}, nil
}

const ocrText = `Order ID: OD123456789012345678
Invoice Date: 12-01-2026
Description: Voeux Bluetooth Speaker 5W
Total: ₹1,499.00
Shipping Address Name: John Doe, Hojai, Assam, 782435`

func newTestProcessor(t *testing.T, pdf, ocr *fakeExtractor) (*Processor, *repository.DB) {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &Processor{
		Files:    repository.NewInvoiceFileRepository(db, nil),
		Jobs:     repository.NewParseJobRepository(db, nil),
		Invoices: repository.NewInvoiceRepository(db, nil),
		PDF:      pdf,
		OCR:      ocr,
		Parser:   parse.NewParser(nil),
	}, db
}

func writeTestFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestProcessFileImageOCR(t *testing.T) {
	t.Parallel()

	ocr := &fakeExtractor{text: ocrText, mode: constants.ModeOCR}
	pdf := &fakeExtractor{}
	proc, db := newTestProcessor(t, pdf, ocr)
	path := writeTestFile(t, "invoice.png", []byte("fake image bytes"))

	res, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "OD123456789012345678", res.Record.OrderID)
	require.Equal(t, "Assam", res.Record.DeliveryState)
	require.False(t, res.Duplicate)
	require.Zero(t, pdf.calls)
	require.Equal(t, 1, ocr.calls)

	invoices, err := repository.NewInvoiceRepository(db, nil).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Equal(t, "OD123456789012345678", invoices[0].OrderID)
	require.Equal(t, string(constants.ModeOCR), invoices[0].SourceMode)
}

func TestProcessFilePDFLayout(t *testing.T) {
	t.Parallel()

	pdf := &fakeExtractor{text: "O D 4 3 6 5 0 6 3 1 2 3 2 9 4 8 6 1 0 0", mode: constants.ModeLayout}
	ocr := &fakeExtractor{}
	proc, _ := newTestProcessor(t, pdf, ocr)
	path := writeTestFile(t, "invoice.pdf", []byte("%PDF-1.4 fake"))

	res, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "OD436506312329486100", res.Record.OrderID)
	require.Equal(t, constants.NotAvailable, res.Record.Price)
	require.Zero(t, ocr.calls)
}

func TestProcessFilePDFFallsBackToOCR(t *testing.T) {
	t.Parallel()

	pdf := &fakeExtractor{err: errors.New("no text layer"), mode: constants.ModeLayout}
	ocr := &fakeExtractor{text: ocrText, mode: constants.ModeOCR}
	proc, _ := newTestProcessor(t, pdf, ocr)
	path := writeTestFile(t, "scanned.pdf", []byte("%PDF-1.4 fake"))

	res, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "OD123456789012345678", res.Record.OrderID)
	require.Equal(t, 1, pdf.calls)
	require.Equal(t, 1, ocr.calls)
}

func TestProcessFileDuplicateHash(t *testing.T) {
	t.Parallel()

	ocr := &fakeExtractor{text: ocrText, mode: constants.ModeOCR}
	proc, _ := newTestProcessor(t, &fakeExtractor{}, ocr)
	path := writeTestFile(t, "invoice.png", []byte("fake image bytes"))

	first, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := proc.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.True(t, second.Duplicate)
	require.Equal(t, first.FileID, second.FileID)
	require.NotEqual(t, first.JobID, second.JobID)
}

func TestProcessFileParseFailureRecorded(t *testing.T) {
	t.Parallel()

	ocr := &fakeExtractor{text: "Invoice Date: 12-01-2026 but nothing else useful", mode: constants.ModeOCR}
	proc, _ := newTestProcessor(t, &fakeExtractor{}, ocr)
	path := writeTestFile(t, "garbled.png", []byte("noise"))

	_, err := proc.ProcessFile(context.Background(), path)
	require.ErrorIs(t, err, parse.ErrMissingOrderID)
	require.True(t, IsParseFailure(err))
}

func TestProcessFileUnsupportedExtension(t *testing.T) {
	t.Parallel()

	proc, _ := newTestProcessor(t, &fakeExtractor{}, &fakeExtractor{})
	path := writeTestFile(t, "notes.txt", []byte("not an invoice"))

	_, err := proc.ProcessFile(context.Background(), path)
	require.Error(t, err)
	require.False(t, IsParseFailure(err))
}

func TestIsParseFailure(t *testing.T) {
	t.Parallel()

	require.True(t, IsParseFailure(parse.ErrInsufficientText))
	require.True(t, IsParseFailure(parse.ErrMissingOrderID))
	require.False(t, IsParseFailure(errors.New("disk on fire")))
	require.False(t, IsParseFailure(nil))
}
