package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

// CartRecord is the single active cart owned by a buyer. Converted carts are
// kept for audit; a buyer has at most one active cart at a time.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null"`
	Status      enums.CartStatus `gorm:"column:status;type:cart_status;not null;default:'active'"`
	Currency    enums.Currency   `gorm:"column:currency;type:text;not null;default:'SAR'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
