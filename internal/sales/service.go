package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise-ai/shelfwise-backend/internal/features"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/logger"
)

const defaultHistoryDays = 60

// IngestResult summarizes one processed upload.
type IngestResult struct {
	UploadID     uuid.UUID
	RowsIngested int
	RowsSkipped  int
}

// Service owns sales-history loading and upload ingestion.
type Service struct {
	client      *db.Client
	repo        Repository
	historyDays int
	log         *logger.Logger
}

func NewService(client *db.Client, repo Repository, historyDays int, log *logger.Logger) *Service {
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	return &Service{client: client, repo: repo, historyDays: historyDays, log: log}
}

// History loads the trailing window of sales for one user/store, anchored
// on the newest row rather than the wall clock. Returns the rows plus the
// anchor date so the caller can derive its reference "today".
func (s *Service) History(ctx context.Context, userID uuid.UUID, storeNbr int) ([]features.Row, time.Time, error) {
	latest, err := s.repo.LatestSalesDate(ctx, userID, storeNbr)
	if err != nil {
		return nil, time.Time{}, err
	}

	from := latest.AddDate(0, 0, -s.historyDays)
	rows, err := s.repo.HistoryWindow(ctx, userID, storeNbr, from, latest)
	if err != nil {
		return nil, time.Time{}, errors.Wrap(errors.CodePersistence, err, "loading sales history")
	}
	if len(rows) == 0 {
		return nil, time.Time{}, errors.New(errors.CodeNoData, "no sales history in window")
	}

	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"store_nbr": storeNbr,
			"rows":      len(rows),
			"from":      from.Format("2006-01-02"),
			"to":        latest.Format("2006-01-02"),
		}), "sales history loaded")
	}
	return rows, latest, nil
}

// IngestFile validates and ingests one uploaded sales-history file. Rows
// sharing a (date, store, item) key collapse to the last occurrence, then
// everything lands in a single transactional upsert with a bookkeeping
// upload row.
func (s *Service) IngestFile(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte) (*IngestResult, error) {
	tbl, err := parseUpload(filename, data)
	if err != nil {
		s.recordFailedUpload(ctx, userID, filename, contentType, int64(len(data)), err)
		return nil, err
	}

	upload := &models.Upload{
		ID:          uuid.New(),
		UserID:      userID,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Status:      enums.UploadStatusPending,
	}

	records, skipped := s.buildRecords(ctx, tbl, userID, upload.ID)
	if len(records) == 0 {
		err := errors.New(errors.CodeValidation, "upload contained no ingestible rows")
		s.recordFailedUpload(ctx, userID, filename, contentType, int64(len(data)), err)
		return nil, err
	}

	var ingested int
	txErr := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if createErr := txRepo.CreateUpload(ctx, upload); createErr != nil {
			return createErr
		}
		n, upsertErr := txRepo.UpsertRecords(ctx, records)
		if upsertErr != nil {
			return upsertErr
		}
		ingested = n

		upload.RowsIngested = n
		upload.RowsSkipped = skipped
		upload.Status = enums.UploadStatusIngested
		return txRepo.UpdateUpload(ctx, upload)
	})
	if txErr != nil {
		wrapped := errors.Wrap(errors.CodePersistence, txErr, "ingesting sales upload")
		if s.log != nil {
			dump := errors.Dump(txErr)
			s.log.Error(s.log.WithFields(ctx, map[string]any{
				"pg_code":       dump.PGCode,
				"pg_constraint": dump.PGConstraint,
				"pg_table":      dump.PGTable,
				"pg_detail":     dump.PGDetail,
			}), "sales upload transaction failed", txErr)
		}
		s.recordFailedUpload(ctx, userID, filename, contentType, int64(len(data)), wrapped)
		return nil, wrapped
	}

	if s.log != nil {
		s.log.Info(s.log.WithFields(ctx, map[string]any{
			"upload_id":     upload.ID.String(),
			"rows_ingested": ingested,
			"rows_skipped":  skipped,
		}), "sales upload ingested")
	}
	return &IngestResult{UploadID: upload.ID, RowsIngested: ingested, RowsSkipped: skipped}, nil
}

type salesKey struct {
	date     int64
	storeNbr int
	itemNbr  int
}

// buildRecords coerces every record, skipping malformed rows, and collapses
// duplicate natural keys keep-last.
func (s *Service) buildRecords(ctx context.Context, tbl *table, userID, uploadID uuid.UUID) ([]models.SalesRecord, int) {
	rows := make([]models.SalesRecord, 0, len(tbl.records))
	seen := make(map[salesKey]int, len(tbl.records))
	skipped := 0

	for i, record := range tbl.records {
		parsed, err := tbl.parseRow(record)
		if err != nil {
			skipped++
			if s.log != nil {
				s.log.Warn(s.log.WithFields(ctx, map[string]any{
					"row":    i + 2,
					"reason": err.Error(),
				}), "skipping malformed upload row")
			}
			continue
		}

		row := models.SalesRecord{
			UserID:      userID,
			Date:        parsed.Date,
			StoreNbr:    parsed.StoreNbr,
			ItemNbr:     parsed.ItemNbr,
			UnitSales:   parsed.UnitSales,
			OnPromotion: parsed.OnPromotion,
			Category:    parsed.Category,
			ItemClass:   parsed.ItemClass,
			Perishable:  parsed.Perishable,
			UnitPrice:   parsed.UnitPrice,
			UnitCost:    parsed.UnitCost,
			UploadID:    &uploadID,
		}
		key := salesKey{date: parsed.Date.Unix(), storeNbr: parsed.StoreNbr, itemNbr: parsed.ItemNbr}
		if ix, ok := seen[key]; ok {
			rows[ix] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, skipped
}

// recordFailedUpload is best-effort bookkeeping outside the main
// transaction; a failure here must not mask the original error.
func (s *Service) recordFailedUpload(ctx context.Context, userID uuid.UUID, filename, contentType string, size int64, cause error) {
	message := cause.Error()
	upload := &models.Upload{
		ID:           uuid.New(),
		UserID:       userID,
		Filename:     filename,
		ContentType:  contentType,
		SizeBytes:    size,
		Status:       enums.UploadStatusFailed,
		ErrorMessage: &message,
	}
	if err := s.repo.CreateUpload(ctx, upload); err != nil && s.log != nil {
		s.log.Error(ctx, "recording failed upload", err)
	}
}
