package sales

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/internal/repo"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

type repository struct {
	repo.Base
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// LatestSalesDate anchors history loading on the newest row for the
// user's store rather than the wall clock, so demo datasets stay usable.
func (r *repository) LatestSalesDate(ctx context.Context, userID uuid.UUID, storeNbr int) (time.Time, error) {
	var latest sql.NullTime
	err := r.DB(ctx).
		Table("sales_records").
		Select("MAX(date)").
		Where("user_id = ? AND store_nbr = ?", userID, storeNbr).
		Scan(&latest).Error
	if err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, errors.New(errors.CodeNoData, "no sales history for store")
	}
	return latest.Time.UTC(), nil
}

type historyRow struct {
	Date        time.Time
	StoreNbr    int
	ItemNbr     int
	UnitSales   float64
	OnPromotion bool
	Category    string
	ItemClass   int
	Perishable  bool
	ItemName    string
}

// HistoryWindow loads the long-form history for one user/store between two
// dates inclusive, left-joining product attributes so rows keep their name
// and category even when the upload omitted them.
func (r *repository) HistoryWindow(ctx context.Context, userID uuid.UUID, storeNbr int, from, to time.Time) ([]features.Row, error) {
	var scanned []historyRow
	err := r.DB(ctx).Raw(`
		SELECT
			s.date AS date,
			s.store_nbr AS store_nbr,
			s.item_nbr AS item_nbr,
			s.unit_sales AS unit_sales,
			s.onpromotion AS on_promotion,
			COALESCE(s.category, p.family, '') AS category,
			COALESCE(s.item_class, p.class, 0) AS item_class,
			s.perishable AS perishable,
			COALESCE(p.item_name, '') AS item_name
		FROM sales_records s
		LEFT JOIN products p ON p.item_nbr = s.item_nbr
		WHERE s.user_id = ? AND s.store_nbr = ? AND s.date >= ? AND s.date <= ?
		ORDER BY s.date, s.item_nbr`,
		userID, storeNbr, from, to,
	).Scan(&scanned).Error
	if err != nil {
		return nil, err
	}

	rows := make([]features.Row, len(scanned))
	for i, h := range scanned {
		rows[i] = features.Row{
			Date:        h.Date,
			StoreNbr:    h.StoreNbr,
			ItemNbr:     h.ItemNbr,
			UnitSales:   h.UnitSales,
			OnPromotion: h.OnPromotion,
			Category:    h.Category,
			ItemClass:   h.ItemClass,
			Perishable:  h.Perishable,
			ItemName:    h.ItemName,
		}
	}
	return rows, nil
}

// UpsertRecords writes the batch in one statement: new natural keys insert,
// existing keys get the uploaded values overwritten.
func (r *repository) UpsertRecords(ctx context.Context, rows []models.SalesRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "date"},
			{Name: "store_nbr"},
			{Name: "item_nbr"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"unit_sales",
			"onpromotion",
			"category",
			"item_class",
			"perishable",
			"unit_price",
			"unit_cost",
			"upload_id",
			"updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *repository) CreateUpload(ctx context.Context, upload *models.Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	return r.DB(ctx).Create(upload).Error
}

func (r *repository) UpdateUpload(ctx context.Context, upload *models.Upload) error {
	return r.DB(ctx).Model(&models.Upload{}).
		Where("id = ?", upload.ID).
		Updates(map[string]any{
			"rows_ingested": upload.RowsIngested,
			"rows_skipped":  upload.RowsSkipped,
			"status":        upload.Status,
			"error_message": upload.ErrorMessage,
		}).Error
}
