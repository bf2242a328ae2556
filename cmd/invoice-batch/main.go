// invoice-batch processes a directory of invoice files against an
// embedded sqlite database and the XLSX ledger, optionally staying
// around to watch for new files.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/ingest"
	"github.com/voeux/invoice-tracker/internal/ledger"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/pipeline"
	"github.com/voeux/invoice-tracker/internal/repository"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

func main() {
	var (
		dir    = flag.String("dir", ".", "directory of invoice files to process")
		dbPath = flag.String("db", "invoices.db", "sqlite database path")
		out    = flag.String("out", "", "XLSX ledger path (default from LEDGER_PATH)")
		inMem  = flag.Bool("inmem", false, "use an in-memory database (dry run)")
		watch  = flag.Bool("watch", false, "keep watching the directory for new files")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	ledgerPath := cfg.Ledger.Path
	if *out != "" {
		ledgerPath = *out
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := *dbPath
	if *inMem {
		path = ":memory:"
	}
	db, err := repository.OpenSQLite(ctx, path, logger)
	if err != nil {
		logger.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	proc := &pipeline.Processor{
		Log:      logger,
		Files:    repository.NewInvoiceFileRepository(db, logger),
		Jobs:     repository.NewParseJobRepository(db, logger),
		Invoices: repository.NewInvoiceRepository(db, logger),
		PDF:      textextract.NewPDFLayoutExtractor(logger),
		OCR: textextract.NewOCRExtractor(textextract.OCRConfig{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.Language,
			TessdataDir:   cfg.OCR.TessdataDir,
			Timeout:       cfg.OCR.Timeout,
		}, logger),
		Parser: parse.NewParser(logger),
		Ledger: ledger.NewWorkbook(ledgerPath, logger),
	}

	files, err := ingest.CollectFiles(*dir, true)
	if err != nil {
		logger.Error("scanning directory failed", "dir", *dir, "error", err)
		os.Exit(1)
	}

	processed, failed := 0, 0
	handle := func(p string) {
		if _, err := proc.ProcessFile(ctx, p); err != nil {
			failed++
			logger.Error("invoice failed", "path", p, "error", err)
			return
		}
		processed++
	}
	for _, f := range files {
		handle(f)
	}
	logger.Info("batch complete", "processed", processed, "failed", failed, "ledger", ledgerPath)

	if *watch {
		if err := ingest.Watch(ctx, *dir, logger, handle); err != nil && ctx.Err() == nil {
			logger.Error("watcher exited", "error", err)
			os.Exit(1)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
