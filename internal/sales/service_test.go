package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shelfwise-ai/shelfwise-backend/pkg/config"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/db/models"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/enums"
	"github.com/shelfwise-ai/shelfwise-backend/pkg/errors"
)

const uploadCSV = `date,store_nbr,item_nbr,unit_sales,onpromotion,category,item_class,perishable,unit_price,unit_cost
2017-08-14,1,100,5,0,DAIRY,1040,1,2.50,1.10
2017-08-15,1,100,7,1,DAIRY,1040,1,2.50,1.10
2017-08-15,1,200,3,0,GROCERY I,1002,0,,
`

func newSalesService(t *testing.T) (*Service, *db.Client) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		Driver: config.DriverSQLite,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().Exec(createSalesSchemaSQL).Error)
	return NewService(client, NewRepository(client.DB()), 60, nil), client
}

func TestIngestFileCSV(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()
	userID := uuid.New()

	result, err := svc.IngestFile(context.Background(), userID, "sales.csv", "text/csv", []byte(uploadCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowsIngested)
	assert.Zero(t, result.RowsSkipped)

	var rows []models.SalesRecord
	require.NoError(t, client.DB().Table("sales_records").Order("item_nbr, date").Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, 5.0, rows[0].UnitSales)
	require.NotNil(t, rows[0].Category)
	assert.Equal(t, "DAIRY", *rows[0].Category)
	require.NotNil(t, rows[0].UnitPrice)
	assert.Equal(t, "2.5", rows[0].UnitPrice.String())
	assert.Nil(t, rows[2].UnitPrice, "blank money cells stay null")

	var upload models.Upload
	require.NoError(t, client.DB().Table("uploads").Where("id = ?", result.UploadID).First(&upload).Error)
	assert.Equal(t, enums.UploadStatusIngested, upload.Status)
	assert.Equal(t, 3, upload.RowsIngested)
}

func TestIngestFileDuplicateKeysKeepLast(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	csv := `date,store_nbr,item_nbr,unit_sales,onpromotion,category,item_class,perishable
2017-08-15,1,100,5,0,DAIRY,1040,1
2017-08-15,1,100,9,1,DAIRY,1040,1
`
	result, err := svc.IngestFile(context.Background(), uuid.New(), "sales.csv", "text/csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsIngested)

	var rows []models.SalesRecord
	require.NoError(t, client.DB().Table("sales_records").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.0, rows[0].UnitSales, "later duplicate in the batch wins")
	assert.True(t, rows[0].OnPromotion)
}

func TestIngestFileSkipsMalformedRows(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	csv := `date,store_nbr,item_nbr,unit_sales,onpromotion,category,item_class,perishable
2017-08-15,1,100,5,0,DAIRY,1040,1
not-a-date,1,200,3,0,DAIRY,1040,1
2017-08-15,1,300,-4,0,DAIRY,1040,1
`
	result, err := svc.IngestFile(context.Background(), uuid.New(), "sales.csv", "text/csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsIngested)
	assert.Equal(t, 2, result.RowsSkipped)
}

func TestIngestFileMissingColumns(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	csv := "date,store_nbr,item_nbr\n2017-08-15,1,100\n"
	_, err := svc.IngestFile(context.Background(), uuid.New(), "sales.csv", "text/csv", []byte(csv))
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeValidation, typed.Code())

	var count int64
	require.NoError(t, client.DB().Table("uploads").Where("status = ?", enums.UploadStatusFailed).Count(&count).Error)
	assert.EqualValues(t, 1, count, "rejected uploads still leave a failed bookkeeping row")
}

func TestIngestFileUnsupportedFormat(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	_, err := svc.IngestFile(context.Background(), uuid.New(), "sales.pdf", "application/pdf", []byte("junk"))
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeValidation, typed.Code())
}

func TestIngestFileXLSX(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	header := []any{"Date", "Store_Nbr", "Item_Nbr", "Unit_Sales", "OnPromotion", "Category", "Item_Class", "Perishable"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []any{"2017-08-15", 1, 100, 5, 0, "DAIRY", 1040, 1}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, ingestErr := svc.IngestFile(context.Background(), uuid.New(), "sales.xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	require.NoError(t, ingestErr)
	assert.Equal(t, 1, result.RowsIngested)

	var rows []models.SalesRecord
	require.NoError(t, client.DB().Table("sales_records").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0].UnitSales)
}

func TestHistoryReturnsAnchorDate(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()
	userID := uuid.New()

	latest := time.Date(2017, 8, 15, 0, 0, 0, 0, time.UTC)
	repo := NewRepository(client.DB())
	_, err := repo.UpsertRecords(context.Background(), []models.SalesRecord{
		salesRow(userID, latest.AddDate(0, 0, -5), 1, 100, 3),
		salesRow(userID, latest, 1, 100, 5),
		// outside the 60 day window
		salesRow(userID, latest.AddDate(0, 0, -90), 1, 100, 99),
	})
	require.NoError(t, err)

	rows, anchor, err := svc.History(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.Equal(t, latest, anchor)
	assert.Len(t, rows, 2)
}

func TestHistoryNoData(t *testing.T) {
	svc, client := newSalesService(t)
	defer client.Close()

	_, _, err := svc.History(context.Background(), uuid.New(), 1)
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, errors.CodeNoData, typed.Code())
}
