package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/pipeline"
	"github.com/voeux/invoice-tracker/internal/repository"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

type stubExtractor struct {
	text string
	mode constants.SourceMode
}

func (s stubExtractor) Extract(ctx context.Context, path string) (textextract.Result, error) {
	return textextract.Result{Text: s.text, Mode: s.mode, Pages: 1}, nil
}

const ocrText = `Order ID: OD123456789012345678
Invoice Date: 12-01-2026
Description: Voeux Bluetooth Speaker 5W
Total: ₹1,499.00
Shipping Address Name: John Doe, Hojai, Assam, 782435`

func newTestServer(t *testing.T, ocrOut string) *Server {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	invoices := repository.NewInvoiceRepository(db, nil)
	proc := &pipeline.Processor{
		Files:    repository.NewInvoiceFileRepository(db, nil),
		Jobs:     repository.NewParseJobRepository(db, nil),
		Invoices: invoices,
		PDF:      stubExtractor{mode: constants.ModeLayout},
		OCR:      stubExtractor{text: ocrOut, mode: constants.ModeOCR},
		Parser:   parse.NewParser(nil),
	}
	cfg := common.ServerConfig{Addr: ":0", MaxUploadBytes: 1 << 20, ShutdownTimeout: time.Second}
	return New(cfg, proc, db, invoices, nil)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ocrText)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestUploadProcessesInvoice(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ocrText)
	body, contentType := multipartBody(t, "invoice", "invoice.png", []byte("fake image"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result pipeline.Result
	require.NoError(t, json.Unmarshal(data, &result))
	require.Equal(t, "OD123456789012345678", result.Record.OrderID)
	require.Equal(t, "Assam", result.Record.DeliveryState)
}

func TestUploadMissingFileField(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ocrText)
	body, contentType := multipartBody(t, "wrong-field", "invoice.png", []byte("fake"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadUnsupportedType(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ocrText)
	body, contentType := multipartBody(t, "invoice", "notes.txt", []byte("not an invoice"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "unsupported")
}

func TestUploadUnparseableInvoiceIsBadRequest(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, "Invoice Date: 12-01-2026 but no order anywhere")
	body, contentType := multipartBody(t, "invoice", "garbled.png", []byte("noise"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "MissingOrderIdentifier")
}

func TestListInvoices(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, ocrText)
	body, contentType := multipartBody(t, "invoice", "invoice.png", []byte("fake image"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	items, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
}
