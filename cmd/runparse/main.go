// runparse extracts and parses a single invoice file, printing the
// resulting record as JSON. Useful for tuning rules against a problem
// document without touching the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

func main() {
	var (
		showText = flag.Bool("text", false, "also print the extracted raw text to stderr")
		forceOCR = flag.Bool("ocr", false, "force OCR even for PDF input")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runparse [-text] [-ocr] <invoice.pdf|image>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	ctx := context.Background()

	var res textextract.Result
	var err error
	if !*forceOCR && constants.MapExtToFormat(filepath.Ext(path)) == constants.PDF {
		res, err = textextract.NewPDFLayoutExtractor(logger).Extract(ctx, path)
	} else {
		res, err = textextract.NewOCRExtractor(textextract.OCRConfig{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.Language,
			TessdataDir:   cfg.OCR.TessdataDir,
			Timeout:       cfg.OCR.Timeout,
		}, logger).Extract(ctx, path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "text extraction failed: %v\n", err)
		os.Exit(1)
	}
	if *showText {
		fmt.Fprintln(os.Stderr, res.Text)
	}

	record, err := parse.NewParser(logger).Parse(res.Text, res.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "encode record: %v\n", err)
		os.Exit(1)
	}
}
