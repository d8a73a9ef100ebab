package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product carries the catalog attributes joined onto sales history
// before feature building.
type Product struct {
	ItemNbr    int             `gorm:"column:item_nbr;primaryKey"`
	ItemName   string          `gorm:"column:item_name;not null;default:''"`
	Family     string          `gorm:"column:family;not null;default:''"`
	Class      int             `gorm:"column:class;not null;default:0"`
	Perishable bool            `gorm:"column:perishable;not null;default:false"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null;default:0"`
	UnitCost   decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,4);not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
