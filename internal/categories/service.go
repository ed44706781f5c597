package categories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmarquezg/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmarquezg/storefront-backend/pkg/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type categoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeGuard interface {
	OwnsStore(ctx context.Context, merchantID, storeID uuid.UUID) error
}

// CategoryDTO is the API shape for a category.
type CategoryDTO struct {
	ID       uuid.UUID `json:"id"`
	StoreID  uuid.UUID `json:"store_id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Position int       `json:"position"`
}

// CategoryInput captures fields for create and update.
type CategoryInput struct {
	Name     string
	Slug     string
	Position int
}

// Service exposes category operations.
type Service interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error)
	Create(ctx context.Context, merchantID, storeID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	Update(ctx context.Context, merchantID, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	Delete(ctx context.Context, merchantID, categoryID uuid.UUID) error
}

type service struct {
	repo  categoryRepository
	guard storeGuard
}

// NewService builds a category service.
func NewService(repo categoryRepository, guard storeGuard) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("store guard required")
	}
	return &service{repo: repo, guard: guard}, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]CategoryDTO, error) {
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, fromModel(&rows[i]))
	}
	return dtos, nil
}

func (s *service) Create(ctx context.Context, merchantID, storeID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	if err := s.guard.OwnsStore(ctx, merchantID, storeID); err != nil {
		return nil, err
	}
	name, slug, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		StoreID:  storeID,
		Name:     name,
		Slug:     slug,
		Position: input.Position,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	dto := fromModel(category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, merchantID, categoryID uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.loadOwned(ctx, merchantID, categoryID)
	if err != nil {
		return nil, err
	}
	name, slug, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	category.Name = name
	category.Slug = slug
	category.Position = input.Position
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
	}
	dto := fromModel(category)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, merchantID, categoryID uuid.UUID) error {
	category, err := s.loadOwned(ctx, merchantID, categoryID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, merchantID, categoryID uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if err := s.guard.OwnsStore(ctx, merchantID, category.StoreID); err != nil {
		return nil, err
	}
	return category, nil
}

func normalizeInput(input CategoryInput) (string, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits, and dashes")
	}
	return name, slug, nil
}

func fromModel(m *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:       m.ID,
		StoreID:  m.StoreID,
		Name:     m.Name,
		Slug:     m.Slug,
		Position: m.Position,
	}
}
