package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/entity"
	"github.com/voeux/invoice-tracker/internal/ingest"
	"github.com/voeux/invoice-tracker/internal/ledger"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/repository"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

// Result is what ProcessFile hands back to callers (HTTP handlers, the
// batch CLI) for one invoice document.
type Result struct {
	FileID    string       `json:"file_id"`
	JobID     string       `json:"job_id"`
	Duplicate bool         `json:"duplicate"`
	Record    parse.Record `json:"record"`
	TotalSold string       `json:"total_sold"`
}

// Processor runs one invoice file through the full pipeline: register,
// extract text, parse fields, log to the ledger and the database.
type Processor struct {
	Log      *slog.Logger
	Files    repository.InvoiceFileRepository
	Jobs     repository.ParseJobRepository
	Invoices repository.InvoiceRepository
	PDF      textExtractor
	OCR      textExtractor
	Parser   *parse.Parser
	Ledger   *ledger.Workbook // optional; nil disables the XLSX log
}

type textExtractor interface {
	Extract(ctx context.Context, path string) (textextract.Result, error)
}

func (p *Processor) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}

// ProcessFile is the single entry point for both the upload handler and
// the batch CLI. Extraction failures are recorded on the job before
// being returned.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	log := p.logger().With("path", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	hash, err := ingest.HashFile(path)
	if err != nil {
		return nil, err
	}

	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		return nil, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported file extension %q", ext), common.ErrInvalidInput)
	}
	format := constants.MapExtToFormat(ext)

	file, existed, err := p.Files.GetOrCreate(ctx, &entity.InvoiceFile{
		SourcePath:  path,
		Filename:    filepath.Base(path),
		FileExt:     ext,
		FileSize:    info.Size(),
		ContentHash: hash,
	})
	if err != nil {
		return nil, err
	}
	if existed {
		log.Info("duplicate invoice file, reprocessing", "file_id", file.ID)
	}

	job, err := p.Jobs.Start(ctx, file.ID, format)
	if err != nil {
		return nil, err
	}
	res := &Result{FileID: file.ID.String(), JobID: job.ID.String(), Duplicate: existed, TotalSold: constants.NotAvailable}

	text, mode, err := p.extractText(ctx, path, format)
	if err != nil {
		reason := "UpstreamFailure"
		if ferr := p.Jobs.FinishFailure(ctx, job.ID, reason); ferr != nil {
			log.Error("recording extraction failure", "error", ferr)
		}
		return res, common.WrapError(err, "text extraction failed")
	}
	if err := p.Jobs.FinishTextOK(ctx, job.ID, text); err != nil {
		log.Warn("recording extracted text", "error", err)
	}

	record, err := p.Parser.Parse(text, mode)
	if err != nil {
		if ferr := p.Jobs.FinishFailure(ctx, job.ID, err.Error()); ferr != nil {
			log.Error("recording parse failure", "error", ferr)
		}
		return res, err
	}
	res.Record = record

	payload, err := json.Marshal(record)
	if err != nil {
		return res, fmt.Errorf("marshal record: %w", err)
	}
	if err := parse.ValidateRecordJSON(payload); err != nil {
		if ferr := p.Jobs.FinishFailure(ctx, job.ID, "SchemaValidationFailed"); ferr != nil {
			log.Error("recording schema failure", "error", ferr)
		}
		return res, common.WrapError(err, "extracted record failed schema validation")
	}
	if err := p.Jobs.FinishParseOK(ctx, job.ID, string(payload)); err != nil {
		log.Warn("recording parse success", "error", err)
	}

	if p.Ledger != nil {
		totalSold, lerr := p.Ledger.Append(ctx, record)
		if lerr != nil {
			log.Error("ledger append failed", "order_id", record.OrderID, "error", lerr)
		} else {
			res.TotalSold = totalSold
		}
	}

	inv := &entity.Invoice{
		FileID:          &file.ID,
		OrderID:         record.OrderID,
		Date:            record.Date,
		Price:           record.Price,
		ItemName:        record.ItemName,
		DeliveryAddress: record.DeliveryAddress,
		DeliveryState:   record.DeliveryState,
		SourceMode:      string(mode),
		TotalSold:       res.TotalSold,
	}
	if err := p.Invoices.Insert(ctx, inv); err != nil {
		return res, err
	}

	log.Info("invoice processed", "order_id", record.OrderID, "mode", mode)
	return res, nil
}

// IsParseFailure reports whether err is one of the deterministic parse
// rejections rather than an infrastructure fault.
func IsParseFailure(err error) bool {
	return errors.Is(err, parse.ErrInsufficientText) || errors.Is(err, parse.ErrMissingOrderID)
}

func (p *Processor) extractText(ctx context.Context, path string, format string) (string, constants.SourceMode, error) {
	switch format {
	case constants.PDF:
		out, err := p.PDF.Extract(ctx, path)
		if err == nil && strings.TrimSpace(out.Text) != "" {
			return out.Text, out.Mode, nil
		}
		if err != nil {
			p.logger().Warn("pdf text layer unavailable, falling back to ocr", "path", path, "error", err)
		}
		out, err = p.OCR.Extract(ctx, path)
		if err != nil {
			return "", "", err
		}
		return out.Text, out.Mode, nil
	case constants.IMAGE:
		out, err := p.OCR.Extract(ctx, path)
		if err != nil {
			return "", "", err
		}
		return out.Text, out.Mode, nil
	default:
		return "", "", common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("no extractor for format %q", format), common.ErrInvalidInput)
	}
}
