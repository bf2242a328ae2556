package entity

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceFile is one ingested source document, deduplicated by content hash.
type InvoiceFile struct {
	ID          uuid.UUID
	SourcePath  string
	Filename    string
	FileExt     string
	FileSize    int64
	ContentHash string
	UploadedAt  time.Time
}

// ParseJob tracks one extraction attempt over a file.
type ParseJob struct {
	ID           uuid.UUID
	FileID       uuid.UUID
	Format       string // constants.PDF | constants.IMAGE
	Status       string // constants.JobStatus values
	RawText      string
	RecordJSON   string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Invoice is one accepted extraction result, ready to display verbatim.
type Invoice struct {
	ID              uuid.UUID
	FileID          *uuid.UUID
	OrderID         string
	Date            string
	Price           string
	ItemName        string
	DeliveryAddress string
	DeliveryState   string
	SourceMode      string
	TotalSold       string
	LoggedAt        time.Time
}
