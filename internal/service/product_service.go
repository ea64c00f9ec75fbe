package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Page sizes for catalogue listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cache        Invalidator
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewProductService creates a new product service. Rules carry product
// names, so cache (which may be nil) is invalidated after updates and
// deletes.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cache Invalidator,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		validate:     newValidator(),
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves one page of products. Out-of-range paging values are
// clamped rather than rejected.
func (s *productService) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	filter.Limit = min(filter.Limit, MaxPageSize)
	filter.Offset = max(filter.Offset, 0)

	products, err := s.productRepo.GetAll(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Str("category_id", filter.CategoryID).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Str("category_id", filter.CategoryID).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Msg("listed products")

	return products, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves the products with the given IDs, ignoring duplicates.
// Missing products are simply absent from the result.
func (s *productService) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	ids = slices.DeleteFunc(slices.Compact(slices.Sorted(slices.Values(ids))), func(id string) bool { return id == "" })
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get products by IDs")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return products, nil
}

func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	id := uuid.NewString()
	if req != nil && strings.TrimSpace(req.ID) != "" {
		id = strings.TrimSpace(req.ID)
	}

	product, err := s.build(ctx, id, req)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, model.NewDomainError(model.ErrCodeAlreadyExists, fmt.Sprintf("product %s already exists", id))
		case errors.Is(err, repository.ErrReferenced):
			return nil, model.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Str("category_id", product.CategoryID).
		Msg("product created")

	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error) {
	if id == "" {
		return nil, model.ErrProductNotFound
	}

	product, err := s.build(ctx, id, req)
	if err != nil {
		return nil, err
	}

	ok, err := s.productRepo.Update(ctx, product)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, model.ErrCategoryNotFound
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if !ok {
		return nil, model.ErrProductNotFound
	}
	invalidateRules(s.cache)

	s.logger.Info().Str("product_id", id).Msg("product updated")
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	ok, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return model.NewDomainError(model.ErrCodeInUse, fmt.Sprintf("product %s appears on existing orders", id))
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !ok {
		return model.ErrProductNotFound
	}
	invalidateRules(s.cache)

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// build validates req and checks that its category exists.
func (s *productService) build(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "product body is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err, model.ErrCodeInvalidParameter)
	}
	if req.Price == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "price is required")
	}
	if req.Price.IsNegative() {
		return nil, model.NewDomainError(model.ErrCodeInvalidParameter, "price must not be negative")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "name is required")
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	return &model.Product{
		ID:          id,
		Name:        name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		CategoryID:  category.ID,
		Stock:       req.Stock,
	}, nil
}
