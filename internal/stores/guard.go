package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
)

// Guard answers ownership checks for other domains without exposing the
// full store service.
type Guard struct {
	repo storeRepository
}

// NewGuard builds an ownership guard over the store repository.
func NewGuard(repo storeRepository) (*Guard, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &Guard{repo: repo}, nil
}

// OwnsStore returns nil when the merchant owns the store.
func (g *Guard) OwnsStore(ctx context.Context, merchantID, storeID uuid.UUID) error {
	store, err := g.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != merchantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant")
	}
	return nil
}
