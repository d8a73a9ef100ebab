package forecasts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
)

// Repository is the persistence surface for forecast rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertBatch(ctx context.Context, rows []models.Forecast) (int, error)
	ExpectedByProduct(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]ProductExpectation, error)
}

// ProductExpectation is one read-side rollup row: expected units for a
// product over a horizon window.
type ProductExpectation struct {
	Name     string  `json:"name"`
	Expected float64 `json:"expected"`
}
