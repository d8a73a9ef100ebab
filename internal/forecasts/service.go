package forecasts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/db"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
)

// Record is one enriched prediction ready for persistence.
type Record struct {
	UserID         uuid.UUID
	StoreNbr       int
	ItemNbr        int
	PredictionDate time.Time
	PredictedSales float64
	ItemName       string

	// Category carries the raw source code; humanized names stay in the
	// run result only.
	Category string

	ItemClass    int
	Perishable   bool
	StoreName    string
	Horizon      enums.Horizon
	ModelVersion string
	SourceFile   string
}

type naturalKey struct {
	userID   uuid.UUID
	storeNbr int
	itemNbr  int
	date     int64
}

// Service owns the forecast write path and the product rollup read path.
type Service struct {
	client *db.Client
	repo   Repository
	log    *logger.Logger
}

func NewService(client *db.Client, repo Repository, log *logger.Logger) *Service {
	return &Service{client: client, repo: repo, log: log}
}

// SaveBatch dedupes the batch on the natural key and upserts all survivors
// in a single transaction. Returns the number of rows written.
func (s *Service) SaveBatch(ctx context.Context, records []Record) (int, error) {
	rows := Dedupe(records)
	if len(rows) == 0 {
		return 0, nil
	}

	var saved int
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		n, txErr := s.repo.WithTx(tx).UpsertBatch(ctx, rows)
		saved = n
		return txErr
	})
	if err != nil {
		return 0, errors.Wrap(errors.CodePersistence, err, "upserting forecast batch")
	}

	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"rows_in":    len(records),
			"rows_saved": saved,
		}), "forecast batch persisted")
	}
	return saved, nil
}

// TopExpected rolls saved forecasts up to expected units per product over
// the horizon window anchored at reference. Results are descending and
// capped at limit.
func (s *Service) TopExpected(ctx context.Context, userID uuid.UUID, reference time.Time, horizon enums.Horizon, limit int) ([]ProductExpectation, error) {
	if !horizon.IsValid() {
		return nil, errors.New(errors.CodeValidation, "invalid horizon for rollup")
	}
	if limit <= 0 {
		limit = DefaultRollupLimit
	}

	from, to := HorizonWindow(reference, horizon)
	out, err := s.repo.ExpectedByProduct(ctx, userID, from, to, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodePersistence, err, "querying forecast rollup")
	}
	return out, nil
}

// DefaultRollupLimit caps the product rollup when the caller does not.
const DefaultRollupLimit = 12

// HorizonWindow maps a horizon to its inclusive date range relative to the
// reference day.
func HorizonWindow(reference time.Time, horizon enums.Horizon) (time.Time, time.Time) {
	day := reference.UTC().Truncate(24 * time.Hour)
	switch horizon {
	case enums.HorizonTomorrow:
		next := day.AddDate(0, 0, 1)
		return next, next
	case enums.Horizon7Days:
		return day.AddDate(0, 0, 1), day.AddDate(0, 0, 7)
	default:
		return day, day
	}
}

// Dedupe collapses records that share a natural key, keeping the last
// occurrence while preserving the position of the first. Prediction dates
// are normalized to UTC midnight so persisted rows compare cleanly.
func Dedupe(records []Record) []models.Forecast {
	rows := make([]models.Forecast, 0, len(records))
	seen := make(map[naturalKey]int, len(records))

	for _, rec := range records {
		date := rec.PredictionDate.UTC().Truncate(24 * time.Hour)
		key := naturalKey{
			userID:   rec.UserID,
			storeNbr: rec.StoreNbr,
			itemNbr:  rec.ItemNbr,
			date:     date.Unix(),
		}
		row := models.Forecast{
			UserID:         rec.UserID,
			StoreNbr:       rec.StoreNbr,
			ItemNbr:        rec.ItemNbr,
			PredictionDate: date,
			PredictedSales: rec.PredictedSales,
			ItemName:       rec.ItemName,
			Category:       rec.Category,
			ItemClass:      rec.ItemClass,
			Perishable:     rec.Perishable,
			StoreName:      rec.StoreName,
			Horizon:        string(rec.Horizon),
			ModelVersion:   rec.ModelVersion,
			SourceFile:     rec.SourceFile,
		}
		if ix, ok := seen[key]; ok {
			rows[ix] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}
	return rows
}
