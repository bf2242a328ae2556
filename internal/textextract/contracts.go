package textextract

import (
	"context"
	"time"

	"github.com/voeux/invoice-tracker/constants"
)

// Extractor is Stage 1: invoice file -> raw text plus the source mode the
// parser should assume for it.
type Extractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Result struct {
	Text     string
	Mode     constants.SourceMode
	Pages    int
	Method   string // "pdf-layout" | "image-ocr"
	Duration time.Duration
	Warnings []string
}
