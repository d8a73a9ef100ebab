package models

import (
	"time"

	"github.com/google/uuid"
)

// Forecast is a persisted model prediction for a store/item/date.
// The natural key (user, store, item, prediction date) backs the
// upsert path, so re-running a horizon refreshes rows in place.
type Forecast struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_forecasts_natural,priority:1"`
	StoreNbr       int       `gorm:"column:store_nbr;not null;uniqueIndex:ux_forecasts_natural,priority:2"`
	ItemNbr        int       `gorm:"column:item_nbr;not null;uniqueIndex:ux_forecasts_natural,priority:3"`
	PredictionDate time.Time `gorm:"column:prediction_date;type:date;not null;uniqueIndex:ux_forecasts_natural,priority:4"`
	PredictedSales float64   `gorm:"column:predicted_sales;not null;default:0"`
	ItemName       string    `gorm:"column:item_name;not null;default:''"`
	Category       string    `gorm:"column:category;not null;default:''"`
	ItemClass      int       `gorm:"column:item_class;not null;default:0"`
	Perishable     bool      `gorm:"column:perishable;not null;default:false"`
	StoreName      string    `gorm:"column:store_name;not null;default:''"`
	Horizon        string    `gorm:"column:horizon;not null"`
	ModelVersion   string    `gorm:"column:model_version;not null;default:''"`
	SourceFile     string    `gorm:"column:source_file;not null;default:''"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
