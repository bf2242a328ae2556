package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	gomail "gopkg.in/gomail.v2"

	"github.com/voeux/invoice-tracker/internal/common"
	"github.com/voeux/invoice-tracker/internal/entity"
	"github.com/voeux/invoice-tracker/internal/repository"
)

var csvHeaders = []string{
	"Order ID", "Date", "Price", "Item Name", "Delivery Address", "State", "Total Sold", "Logged At",
}

// istZone is the reporting timezone: the report day rolls over at
// midnight IST, matching when the upstream cron fires.
var istZone = time.FixedZone("IST", 5*3600+1800)

// YesterdayWindow returns the [from, to) UTC instants covering yesterday
// in IST, relative to now.
func YesterdayWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(istZone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, istZone)
	return midnight.AddDate(0, 0, -1).UTC(), midnight.UTC()
}

// BuildCSV renders invoices as a CSV attachment body.
func BuildCSV(invoices []entity.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	wr := csv.NewWriter(&buf)
	if err := wr.Write(csvHeaders); err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		row := []string{
			inv.OrderID, inv.Date, inv.Price, inv.ItemName,
			inv.DeliveryAddress, inv.DeliveryState, inv.TotalSold,
			inv.LoggedAt.UTC().Format(time.RFC3339),
		}
		if err := wr.Write(row); err != nil {
			return nil, err
		}
	}
	wr.Flush()
	return buf.Bytes(), wr.Error()
}

// Sender delivers a rendered report; swapped out in tests.
type Sender interface {
	Send(subject, body, attachment string, csvData []byte) error
}

type smtpSender struct {
	cfg common.ReportConfig
}

func (s smtpSender) Send(subject, body, attachment string, csvData []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.Username)
	msg.SetHeader("To", s.cfg.Recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(attachment, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(csvData)
		return err
	}))

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	return d.DialAndSend(msg)
}

// Reporter mails the previous day's invoice log as a CSV attachment.
type Reporter struct {
	cfg      common.ReportConfig
	invoices repository.InvoiceRepository
	sender   Sender
	logger   *slog.Logger
}

func NewReporter(cfg common.ReportConfig, invoices repository.InvoiceRepository, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{cfg: cfg, invoices: invoices, sender: smtpSender{cfg: cfg}, logger: logger}
}

// SendDaily builds and mails yesterday's report. Sending is skipped (not
// failed) when there were no invoices.
func (r *Reporter) SendDaily(ctx context.Context, now time.Time) error {
	if r.cfg.Username == "" || r.cfg.Password == "" {
		return common.NewAppError("CONFIG_ERROR", "EMAIL_USER and EMAIL_PASS are required", common.ErrInvalidInput)
	}
	if r.cfg.Recipient == "" {
		return common.NewAppError("CONFIG_ERROR", "REPORT_TO is required", common.ErrInvalidInput)
	}

	from, to := YesterdayWindow(now)
	day := from.In(istZone).Format("2006-01-02")

	invoices, err := r.invoices.ListLoggedBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list invoices for report: %w", err)
	}
	if len(invoices) == 0 {
		r.logger.Info("no invoices logged yesterday, skipping report", "day", day)
		return nil
	}

	csvData, err := BuildCSV(invoices)
	if err != nil {
		return fmt.Errorf("build report csv: %w", err)
	}

	subject := fmt.Sprintf("Daily Invoice Report - %s", day)
	body := fmt.Sprintf("Attached is the daily invoice report for %s.\n\nTotal Invoices Processed: %d", day, len(invoices))
	attachment := fmt.Sprintf("invoices-%s.csv", day)

	if err := r.sender.Send(subject, body, attachment, csvData); err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	r.logger.Info("daily report sent", "day", day, "count", len(invoices))
	return nil
}
