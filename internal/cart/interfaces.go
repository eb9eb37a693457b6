package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
)

// CartRepository abstracts cart persistence so the service can run inside a
// shared transaction.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	DeleteSupplierItems(ctx context.Context, cartID, supplierID uuid.UUID) error
	CountItems(ctx context.Context, cartID uuid.UUID) (int64, error)
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}
