package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/ledger"
	"github.com/voeux/invoice-tracker/internal/parse"
	"github.com/voeux/invoice-tracker/internal/pipeline"
	"github.com/voeux/invoice-tracker/internal/repository"
	"github.com/voeux/invoice-tracker/internal/server"
	"github.com/voeux/invoice-tracker/internal/textextract"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	invoices := repository.NewInvoiceRepository(db, logger)
	proc := &pipeline.Processor{
		Log:      logger,
		Files:    repository.NewInvoiceFileRepository(db, logger),
		Jobs:     repository.NewParseJobRepository(db, logger),
		Invoices: invoices,
		PDF:      textextract.NewPDFLayoutExtractor(logger),
		OCR: textextract.NewOCRExtractor(textextract.OCRConfig{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.Language,
			TessdataDir:   cfg.OCR.TessdataDir,
			Timeout:       cfg.OCR.Timeout,
		}, logger),
		Parser: parse.NewParser(logger),
		Ledger: ledger.NewWorkbook(cfg.Ledger.Path, logger),
	}

	srv := server.New(cfg.Server, proc, db, invoices, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
