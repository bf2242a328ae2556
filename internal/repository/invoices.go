package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voeux/invoice-tracker/internal/entity"
)

// InvoiceRepository stores accepted extraction results.
type InvoiceRepository interface {
	Insert(ctx context.Context, inv *entity.Invoice) error
	// ListLoggedBetween returns invoices with from <= logged_at < to.
	ListLoggedBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error)
	ListAll(ctx context.Context) ([]entity.Invoice, error)
}

type invoiceRepo struct {
	db  *DB
	log *slog.Logger
}

func NewInvoiceRepository(db *DB, log *slog.Logger) InvoiceRepository {
	if log == nil {
		log = slog.Default()
	}
	return &invoiceRepo{db: db, log: log}
}

func (r *invoiceRepo) Insert(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.LoggedAt.IsZero() {
		inv.LoggedAt = time.Now().UTC()
	}
	var fileID any
	if inv.FileID != nil {
		fileID = inv.FileID.String()
	}
	q := r.db.rebind(`INSERT INTO invoice
		(id, file_id, order_id, date, price, item_name, delivery_address, delivery_state, source_mode, total_sold, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		inv.ID.String(), fileID, inv.OrderID, inv.Date, inv.Price,
		inv.ItemName, inv.DeliveryAddress, inv.DeliveryState,
		inv.SourceMode, inv.TotalSold, formatTime(inv.LoggedAt))
	if err != nil {
		r.log.Error("inserting invoice", "order_id", inv.OrderID, "error", err)
		return fmt.Errorf("insert invoice: %w", err)
	}
	r.log.Info("invoice logged", "order_id", inv.OrderID, "state", inv.DeliveryState)
	return nil
}

func (r *invoiceRepo) ListLoggedBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error) {
	q := r.db.rebind(`SELECT id, file_id, order_id, date, price, item_name, delivery_address, delivery_state, source_mode, total_sold, logged_at
		FROM invoice WHERE logged_at >= ? AND logged_at < ? ORDER BY logged_at`)
	rows, err := r.db.QueryContext(ctx, q, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func (r *invoiceRepo) ListAll(ctx context.Context) ([]entity.Invoice, error) {
	q := `SELECT id, file_id, order_id, date, price, item_name, delivery_address, delivery_state, source_mode, total_sold, logged_at
		FROM invoice ORDER BY logged_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()
	return scanInvoices(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanInvoices(rows rowScanner) ([]entity.Invoice, error) {
	var out []entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var id, logged string
		var fileID *string
		if err := rows.Scan(&id, &fileID, &inv.OrderID, &inv.Date, &inv.Price,
			&inv.ItemName, &inv.DeliveryAddress, &inv.DeliveryState,
			&inv.SourceMode, &inv.TotalSold, &logged); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad invoice id %q: %w", id, err)
		}
		inv.ID = parsed
		if fileID != nil {
			if fid, err := uuid.Parse(*fileID); err == nil {
				inv.FileID = &fid
			}
		}
		inv.LoggedAt = parseTime(logged)
		out = append(out, inv)
	}
	return out, rows.Err()
}
