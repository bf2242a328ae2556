// daily-report mails yesterday's processed invoices as a CSV
// attachment. Meant to run from cron shortly after midnight IST.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/report"
	"github.com/voeux/invoice-tracker/internal/repository"
)

func main() {
	var sqlitePath = flag.String("sqlite", "", "read from a sqlite database instead of DB_URL")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		db  *repository.DB
		err error
	)
	if *sqlitePath != "" {
		db, err = repository.OpenSQLite(ctx, *sqlitePath, logger)
	} else {
		db, err = repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
	}
	if err != nil {
		logger.Error("opening database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	invoices := repository.NewInvoiceRepository(db, logger)
	reporter := report.NewReporter(cfg.Report, invoices, logger)
	if err := reporter.SendDaily(ctx, time.Now()); err != nil {
		logger.Error("daily report failed", "error", err)
		os.Exit(1)
	}
}
