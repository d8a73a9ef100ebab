package forecasts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
)

const createForecastsSQL = `
CREATE TABLE forecasts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	store_nbr INTEGER NOT NULL,
	item_nbr INTEGER NOT NULL,
	prediction_date DATETIME NOT NULL,
	predicted_sales REAL NOT NULL DEFAULT 0,
	item_name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	item_class INTEGER NOT NULL DEFAULT 0,
	perishable INTEGER NOT NULL DEFAULT 0,
	store_name TEXT NOT NULL DEFAULT '',
	horizon TEXT NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	source_file TEXT NOT NULL DEFAULT '',
	created_at DATETIME,
	updated_at DATETIME
);
CREATE UNIQUE INDEX ux_forecasts_natural ON forecasts (user_id, store_nbr, item_nbr, prediction_date);
`

func openForecastsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(createForecastsSQL).Error)
	return conn
}

func forecastRow(userID uuid.UUID, store, item int, date time.Time, sales float64, name string) models.Forecast {
	return models.Forecast{
		UserID:         userID,
		StoreNbr:       store,
		ItemNbr:        item,
		PredictionDate: date,
		PredictedSales: sales,
		ItemName:       name,
		Horizon:        "today",
	}
}

func TestUpsertBatchInserts(t *testing.T) {
	conn := openForecastsDB(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	date := time.Date(2017, 8, 16, 0, 0, 0, 0, time.UTC)

	saved, err := repo.UpsertBatch(context.Background(), []models.Forecast{
		forecastRow(userID, 1, 100, date, 5, "Milk"),
		forecastRow(userID, 1, 200, date, 3, "Bread"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	var count int64
	require.NoError(t, conn.Table("forecasts").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestUpsertBatchOverwritesExistingKey(t *testing.T) {
	conn := openForecastsDB(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	date := time.Date(2017, 8, 16, 0, 0, 0, 0, time.UTC)

	_, err := repo.UpsertBatch(context.Background(), []models.Forecast{
		forecastRow(userID, 1, 100, date, 5, "Milk"),
	})
	require.NoError(t, err)

	updated := forecastRow(userID, 1, 100, date, 9, "Whole Milk")
	updated.ModelVersion = "v2"
	_, err = repo.UpsertBatch(context.Background(), []models.Forecast{updated})
	require.NoError(t, err)

	var rows []models.Forecast
	require.NoError(t, conn.Table("forecasts").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.0, rows[0].PredictedSales)
	assert.Equal(t, "Whole Milk", rows[0].ItemName)
	assert.Equal(t, "v2", rows[0].ModelVersion)
}

func TestUpsertBatchEmptyIsNoop(t *testing.T) {
	conn := openForecastsDB(t)
	repo := NewRepository(conn)

	saved, err := repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, saved)
}

func TestExpectedByProductRollsUp(t *testing.T) {
	conn := openForecastsDB(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	other := uuid.New()
	day1 := time.Date(2017, 8, 16, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	rows := []models.Forecast{
		forecastRow(userID, 1, 100, day1, 5, "Milk"),
		forecastRow(userID, 2, 100, day1, 7, "Milk"),
		forecastRow(userID, 1, 200, day1, 4, "Bread"),
		forecastRow(userID, 1, 300, day1, 2, ""),
		// outside window and wrong user, both excluded
		forecastRow(userID, 1, 100, day2, 100, "Milk"),
		forecastRow(other, 1, 100, day1, 100, "Milk"),
	}
	_, err := repo.UpsertBatch(context.Background(), rows)
	require.NoError(t, err)

	out, err := repo.ExpectedByProduct(context.Background(), userID, day1, day1, 12)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Milk", out[0].Name)
	assert.Equal(t, 12.0, out[0].Expected)
	assert.Equal(t, "Bread", out[1].Name)
	assert.Equal(t, "300", out[2].Name, "blank names fall back to the item number")
}

func TestExpectedByProductHonorsLimit(t *testing.T) {
	conn := openForecastsDB(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	day := time.Date(2017, 8, 16, 0, 0, 0, 0, time.UTC)

	var rows []models.Forecast
	for i := 0; i < 5; i++ {
		rows = append(rows, forecastRow(userID, 1, 100+i, day, float64(i+1), fmt.Sprintf("Item %d", i)))
	}
	_, err := repo.UpsertBatch(context.Background(), rows)
	require.NoError(t, err)

	out, err := repo.ExpectedByProduct(context.Background(), userID, day, day, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Item 4", out[0].Name)
	assert.Equal(t, "Item 3", out[1].Name)
}
