package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
)

// Upload records one sales-history file ingest.
type Upload struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Filename     string             `gorm:"column:filename;not null"`
	ContentType  string             `gorm:"column:content_type;not null;default:''"`
	SizeBytes    int64              `gorm:"column:size_bytes;not null;default:0"`
	RowsIngested int                `gorm:"column:rows_ingested;not null;default:0"`
	RowsSkipped  int                `gorm:"column:rows_skipped;not null;default:0"`
	Status       enums.UploadStatus `gorm:"column:status;not null"`
	ErrorMessage *string            `gorm:"column:error_message"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
