package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
)

// Repository is the persistence surface for sales history and uploads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LatestSalesDate(ctx context.Context, userID uuid.UUID, storeNbr int) (time.Time, error)
	HistoryWindow(ctx context.Context, userID uuid.UUID, storeNbr int, from, to time.Time) ([]features.Row, error)
	UpsertRecords(ctx context.Context, rows []models.SalesRecord) (int, error)
	CreateUpload(ctx context.Context, upload *models.Upload) error
	UpdateUpload(ctx context.Context, upload *models.Upload) error
}
