package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingRule is the stored definition of one SKU's pricing policy. The
// definition columns are nullable because which of them a row needs depends
// on the kind; rows are only written after the definition compiled.
type PricingRule struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	SKUID              string           `gorm:"column:sku_id;uniqueIndex;not null" json:"sku_id"`
	Kind               string           `gorm:"not null" json:"kind"`
	Quantity           *int             `json:"quantity,omitempty"`
	DiscountedQuantity *int             `json:"discounted_quantity,omitempty"`
	BulkPrice          *decimal.Decimal `gorm:"type:numeric(20,6)" json:"bulk_price,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName pins the table name used by GORM.
func (PricingRule) TableName() string {
	return "pricing_rules"
}
