package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesRecord is one day of unit sales for a store/item pair. The item
// attribute columns ride along with each row because uploads carry them
// per line; nullable fields stay nil when the upload omitted them.
type SalesRecord struct {
	ID          int64            `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_sales_natural,priority:1"`
	Date        time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:ux_sales_natural,priority:2"`
	StoreNbr    int              `gorm:"column:store_nbr;not null;uniqueIndex:ux_sales_natural,priority:3"`
	ItemNbr     int              `gorm:"column:item_nbr;not null;uniqueIndex:ux_sales_natural,priority:4"`
	UnitSales   float64          `gorm:"column:unit_sales;not null;default:0"`
	OnPromotion bool             `gorm:"column:onpromotion;not null;default:false"`
	Category    *string          `gorm:"column:category"`
	ItemClass   *int             `gorm:"column:item_class"`
	Perishable  bool             `gorm:"column:perishable;not null;default:false"`
	UnitPrice   *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4)"`
	UnitCost    *decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,4)"`
	UploadID    *uuid.UUID       `gorm:"column:upload_id;type:uuid"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
