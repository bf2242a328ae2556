package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/voeux/invoice-tracker/constants"
)

type OCRConfig struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	// Timeout bounds the whole OCR attempt. The tesseract process is NOT
	// killed when it fires; a result arriving after the deadline is
	// simply discarded.
	Timeout time.Duration
}

// OCRExtractor recovers word-spaced text from invoice images.
type OCRExtractor struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewOCRExtractor(cfg OCRConfig, logger *slog.Logger) *OCRExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OCRExtractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

var reBoxNoise = regexp.MustCompile(`[|¦]+`)

// Extract races the OCR attempt against the configured timeout; whichever
// settles first decides the outcome.
func (e *OCRExtractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting image ocr", "path", path, "lang", e.cfg.TesseractLang)

	type ocrOut struct {
		text  string
		warns []string
		err   error
	}
	// Buffered so a late OCR result is dropped instead of leaking the goroutine.
	done := make(chan ocrOut, 1)
	go func() {
		txt, warns, err := e.tesseractOCR(ctx, path)
		done <- ocrOut{text: txt, warns: warns, err: err}
	}()

	timer := time.NewTimer(e.cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			e.logger.Error("image ocr failed", "path", path, "error", out.err)
			return Result{Mode: constants.ModeOCR, Warnings: out.warns}, out.err
		}
		return Result{
			Text:     out.text,
			Mode:     constants.ModeOCR,
			Pages:    1,
			Method:   "image-ocr",
			Duration: time.Since(start),
			Warnings: out.warns,
		}, nil
	case <-timer.C:
		e.logger.Error("image ocr timed out", "path", path, "timeout", e.cfg.Timeout)
		return Result{Mode: constants.ModeOCR}, fmt.Errorf("ocr timed out after %s", e.cfg.Timeout)
	case <-ctx.Done():
		return Result{Mode: constants.ModeOCR}, ctx.Err()
	}
}

func (e *OCRExtractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}
