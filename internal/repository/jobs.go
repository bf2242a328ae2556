package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/voeux/invoice-tracker/constants"
	"github.com/voeux/invoice-tracker/internal/entity"
)

// ParseJobRepository tracks extraction attempts.
type ParseJobRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, format string) (*entity.ParseJob, error)
	FinishTextOK(ctx context.Context, jobID uuid.UUID, rawText string) error
	FinishParseOK(ctx context.Context, jobID uuid.UUID, recordJSON string) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, reason string) error
}

type parseJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewParseJobRepository(db *DB, log *slog.Logger) ParseJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &parseJobRepo{db: db, log: log}
}

func (r *parseJobRepo) Start(ctx context.Context, fileID uuid.UUID, format string) (*entity.ParseJob, error) {
	job := &entity.ParseJob{
		ID:        uuid.New(),
		FileID:    fileID,
		Format:    format,
		Status:    string(constants.JobStatusRunning),
		StartedAt: time.Now().UTC(),
	}
	q := r.db.rebind(`INSERT INTO parse_job (id, file_id, format, status, started_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		job.ID.String(), job.FileID.String(), job.Format, job.Status, formatTime(job.StartedAt))
	if err != nil {
		r.log.Error("starting parse job", "file_id", fileID, "error", err)
		return nil, fmt.Errorf("start job: %w", err)
	}
	return job, nil
}

func (r *parseJobRepo) FinishTextOK(ctx context.Context, jobID uuid.UUID, rawText string) error {
	q := r.db.rebind(`UPDATE parse_job SET status = ?, raw_text = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q, string(constants.JobStatusTextOK), rawText, jobID.String())
	if err != nil {
		return fmt.Errorf("finish text stage: %w", err)
	}
	return nil
}

func (r *parseJobRepo) FinishParseOK(ctx context.Context, jobID uuid.UUID, recordJSON string) error {
	q := r.db.rebind(`UPDATE parse_job SET status = ?, record_json = ?, finished_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q,
		string(constants.JobStatusParseOK), recordJSON, formatTime(time.Now()), jobID.String())
	if err != nil {
		return fmt.Errorf("finish parse stage: %w", err)
	}
	return nil
}

func (r *parseJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, reason string) error {
	q := r.db.rebind(`UPDATE parse_job SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`)
	_, err := r.db.ExecContext(ctx, q,
		string(constants.JobStatusFailed), reason, formatTime(time.Now()), jobID.String())
	if err != nil {
		return fmt.Errorf("finish job failure: %w", err)
	}
	return nil
}
