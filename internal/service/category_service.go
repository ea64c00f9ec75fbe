package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        Invalidator
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewCategoryService creates a new category service. cache may be nil.
func NewCategoryService(categoryRepo repository.CategoryRepository, cache Invalidator, logger zerolog.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		validate:     newValidator(),
		logger:       logger.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) GetAll(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*model.Category, error) {
	if id == "" {
		return nil, model.ErrCategoryNotFound
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("category_id", id).Msg("failed to get category")
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	return category, nil
}

func (s *categoryService) Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error) {
	id := uuid.NewString()
	if req != nil && strings.TrimSpace(req.ID) != "" {
		id = strings.TrimSpace(req.ID)
	}

	category, err := s.build(id, req)
	if err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.NewDomainError(model.ErrCodeAlreadyExists, fmt.Sprintf("category %s already exists", id))
		}
		s.logger.Error().Err(err).Str("category_id", id).Msg("failed to create category")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.logger.Info().Str("category_id", id).Msg("category created")
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, req *model.CategoryRequest) (*model.Category, error) {
	if id == "" {
		return nil, model.ErrCategoryNotFound
	}

	category, err := s.build(id, req)
	if err != nil {
		return nil, err
	}

	ok, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		s.logger.Error().Err(err).Str("category_id", id).Msg("failed to update category")
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	if !ok {
		return nil, model.ErrCategoryNotFound
	}
	invalidateRules(s.cache)

	s.logger.Info().Str("category_id", id).Msg("category updated")
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	ok, err := s.categoryRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return model.NewDomainError(model.ErrCodeInUse, fmt.Sprintf("category %s still has products", id))
		}
		s.logger.Error().Err(err).Str("category_id", id).Msg("failed to delete category")
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if !ok {
		return model.ErrCategoryNotFound
	}
	invalidateRules(s.cache)

	s.logger.Info().Str("category_id", id).Msg("category deleted")
	return nil
}

func (s *categoryService) build(id string, req *model.CategoryRequest) (*model.Category, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "category body is required")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err, model.ErrCodeInvalidParameter)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "name is required")
	}

	return &model.Category{ID: id, Name: name, Description: req.Description}, nil
}
