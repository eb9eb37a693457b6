package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

// Product represents the canonical supplier listing. Pricing is fully
// tier-driven; there is no flat unit price column.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID   uuid.UUID        `gorm:"column:supplier_id;type:uuid;not null"`
	SKU          string           `gorm:"column:sku;not null"`
	Name         string           `gorm:"column:name;not null"`
	Description  *string          `gorm:"column:description"`
	Category     *string          `gorm:"column:category"`
	Currency     enums.Currency   `gorm:"column:currency;type:text;not null;default:'SAR'"`
	PriceTiers   types.PriceTiers `gorm:"column:price_tiers;type:jsonb;serializer:json"`
	Colors       pq.StringArray   `gorm:"column:colors;type:text[];not null;default:ARRAY[]::text[]"`
	Sizes        pq.StringArray   `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	MainImageURL *string          `gorm:"column:main_image_url"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
