package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	"github.com/dmarquezg/storefront-backend/pkg/enums"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
	"github.com/dmarquezg/storefront-backend/pkg/types"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type storeRepository interface {
	Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Store, error)
	Update(ctx context.Context, store *models.Store) error
}

type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StoreSnapshotKey(slug string) string
}

// Service exposes store operations for the public storefront and the
// merchant admin panel.
type Service interface {
	Snapshot(ctx context.Context, slug string) (*StoreDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Create(ctx context.Context, merchantID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	Update(ctx context.Context, merchantID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	ListByOwner(ctx context.Context, merchantID uuid.UUID) ([]StoreDTO, error)
}

type service struct {
	repo        storeRepository
	cache       snapshotCache
	snapshotTTL time.Duration
}

// NewService builds a store service with the provided repository and cache.
func NewService(repo storeRepository, cache snapshotCache, snapshotTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if snapshotTTL <= 0 {
		snapshotTTL = time.Hour
	}
	return &service{
		repo:        repo,
		cache:       cache,
		snapshotTTL: snapshotTTL,
	}, nil
}

// CreateStoreInput captures the fields a merchant supplies for a new store.
type CreateStoreInput struct {
	Slug          string
	Name          string
	Description   *string
	WhatsAppPhone *string
	Currency      string
	DeliveryFee   decimal.Decimal
	Theme         *types.Theme
	Address       *types.Address
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name          *string
	Description   *string
	WhatsAppPhone *string
	DeliveryFee   *decimal.Decimal
	Theme         *types.Theme
	Address       *types.Address
	IsActive      *bool
}

// Snapshot serves the public storefront view for a slug, backed by a
// short-lived cache so repeat page loads skip the database.
func (s *service) Snapshot(ctx context.Context, slug string) (*StoreDTO, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store slug is required")
	}

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, s.cache.StoreSnapshotKey(slug)); err == nil && raw != "" {
			var dto StoreDTO
			if err := json.Unmarshal([]byte(raw), &dto); err == nil {
				return &dto, nil
			}
		}
	}

	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	dto := FromModel(store)
	if s.cache != nil {
		if raw, err := json.Marshal(dto); err == nil {
			_ = s.cache.Set(ctx, s.cache.StoreSnapshotKey(slug), string(raw), s.snapshotTTL)
		}
	}
	return dto, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) Create(ctx context.Context, merchantID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits, and dashes")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.DeliveryFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
	}

	currency := enums.CurrencyARS
	if strings.TrimSpace(input.Currency) != "" {
		parsed, err := enums.ParseCurrency(input.Currency)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
		}
		currency = parsed
	}

	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}

	store, err := s.repo.Create(ctx, CreateStoreDTO{
		Slug:          slug,
		Name:          name,
		Description:   input.Description,
		WhatsAppPhone: input.WhatsAppPhone,
		Currency:      currency,
		DeliveryFee:   input.DeliveryFee,
		Theme:         input.Theme,
		Address:       input.Address,
		OwnerID:       merchantID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, merchantID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != merchantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store belongs to another merchant")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		store.Name = name
	}
	if input.Description != nil {
		store.Description = cloneStringPtr(input.Description)
	}
	if input.WhatsAppPhone != nil {
		store.WhatsAppPhone = cloneStringPtr(input.WhatsAppPhone)
	}
	if input.DeliveryFee != nil {
		if input.DeliveryFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee cannot be negative")
		}
		store.DeliveryFee = *input.DeliveryFee
	}
	if input.Theme != nil {
		cpy := *input.Theme
		store.Theme = &cpy
	}
	if input.Address != nil {
		cpy := *input.Address
		store.Address = &cpy
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, s.cache.StoreSnapshotKey(store.Slug))
	}
	return FromModel(store), nil
}

func (s *service) ListByOwner(ctx context.Context, merchantID uuid.UUID) ([]StoreDTO, error) {
	rows, err := s.repo.FindByOwner(ctx, merchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	dtos := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}
