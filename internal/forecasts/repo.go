package forecasts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a forecasts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertBatch writes the rows in one statement: new natural keys insert,
// existing keys get their mutable fields overwritten.
func (r *repository) UpsertBatch(ctx context.Context, rows []models.Forecast) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "store_nbr"},
			{Name: "item_nbr"},
			{Name: "prediction_date"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_sales",
			"item_name",
			"category",
			"item_class",
			"perishable",
			"store_name",
			"horizon",
			"model_version",
			"source_file",
			"updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ExpectedByProduct sums predicted sales per product name over the date
// window, descending, capped at limit. Rows without a name fall back to
// the item number.
func (r *repository) ExpectedByProduct(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]ProductExpectation, error) {
	var out []ProductExpectation
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			CASE WHEN item_name = '' THEN CAST(item_nbr AS TEXT) ELSE item_name END AS name,
			SUM(predicted_sales) AS expected
		FROM forecasts
		WHERE user_id = ? AND prediction_date >= ? AND prediction_date <= ?
		GROUP BY name
		ORDER BY expected DESC
		LIMIT ?`,
		userID, from, to, limit,
	).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
