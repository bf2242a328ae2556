package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/voeux/invoice-tracker/constants"
)

// PDFLayoutExtractor reads a digitally generated PDF's text layer
// run-by-run. Runs are joined with single spaces, which is why layout
// text frequently arrives one glyph per token; the parser's layout rules
// are built around exactly that shape.
type PDFLayoutExtractor struct {
	logger *slog.Logger
}

func NewPDFLayoutExtractor(logger *slog.Logger) *PDFLayoutExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFLayoutExtractor{logger: logger}
}

func (e *PDFLayoutExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return Result{Mode: constants.ModeLayout}, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("opening pdf failed", "path", path, "error", err)
		return Result{Mode: constants.ModeLayout}, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("closing pdf", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	var warns []string
	pages := r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			warns = append(warns, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
	}

	e.logger.Debug("pdf text layer read", "path", path, "pages", pages, "chars", b.Len())

	return Result{
		Text:     b.String(),
		Mode:     constants.ModeLayout,
		Pages:    pages,
		Method:   "pdf-layout",
		Duration: time.Since(start),
		Warnings: warns,
	}, nil
}
