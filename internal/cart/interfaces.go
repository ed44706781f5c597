package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActive(ctx context.Context, storeID uuid.UUID, sessionID string) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Update(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error
}

// Broadcaster fans cart changes out to any listeners for the session.
// Other tabs of the same browser subscribe to keep their badge in sync.
type Broadcaster interface {
	CartChanged(ctx context.Context, sessionID string, storeID uuid.UUID, cartID uuid.UUID) error
}
