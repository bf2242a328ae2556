package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voeux/invoice-tracker/internal/entity"
)

// InvoiceFileRepository stores ingested source documents.
type InvoiceFileRepository interface {
	// GetOrCreate registers a file, deduplicating on content hash.
	// Returns the row and whether it already existed.
	GetOrCreate(ctx context.Context, f *entity.InvoiceFile) (*entity.InvoiceFile, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.InvoiceFile, error)
}

type invoiceFileRepo struct {
	db  *DB
	log *slog.Logger
}

func NewInvoiceFileRepository(db *DB, log *slog.Logger) InvoiceFileRepository {
	if log == nil {
		log = slog.Default()
	}
	return &invoiceFileRepo{db: db, log: log}
}

func (r *invoiceFileRepo) GetOrCreate(ctx context.Context, f *entity.InvoiceFile) (*entity.InvoiceFile, bool, error) {
	if existing, err := r.getByHash(ctx, f.ContentHash); err == nil {
		r.log.Debug("file already ingested", "file_id", existing.ID, "hash", f.ContentHash)
		return existing, true, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("lookup file by hash: %w", err)
	}

	row := *f
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}

	q := r.db.rebind(`INSERT INTO invoice_file
		(id, source_path, filename, file_ext, file_size, content_hash, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		row.ID.String(), row.SourcePath, row.Filename, row.FileExt,
		row.FileSize, row.ContentHash, formatTime(row.UploadedAt))
	if err != nil {
		r.log.Error("inserting invoice file", "path", row.SourcePath, "error", err)
		return nil, false, fmt.Errorf("insert file: %w", err)
	}
	return &row, false, nil
}

func (r *invoiceFileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.InvoiceFile, error) {
	q := r.db.rebind(`SELECT id, source_path, filename, file_ext, file_size, content_hash, uploaded_at
		FROM invoice_file WHERE id = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, q, id.String()))
}

func (r *invoiceFileRepo) getByHash(ctx context.Context, hash string) (*entity.InvoiceFile, error) {
	q := r.db.rebind(`SELECT id, source_path, filename, file_ext, file_size, content_hash, uploaded_at
		FROM invoice_file WHERE content_hash = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, q, hash))
}

func (r *invoiceFileRepo) scanOne(row *sql.Row) (*entity.InvoiceFile, error) {
	var f entity.InvoiceFile
	var id, uploaded string
	if err := row.Scan(&id, &f.SourcePath, &f.Filename, &f.FileExt, &f.FileSize, &f.ContentHash, &uploaded); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("bad file id %q: %w", id, err)
	}
	f.ID = parsed
	f.UploadedAt = parseTime(uploaded)
	return &f, nil
}
