package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// CategoryServiceOptions groups dependencies for CategoryService.
type CategoryServiceOptions struct {
	Repo   core.CategoryRepository // Required: category repository
	Logger *slog.Logger            // Optional: structured logger
}

// CategoryService provides business logic for event categories.
type CategoryService struct {
	repo   core.CategoryRepository
	logger *slog.Logger
}

// NewCategoryService constructs a new CategoryService with validation.
func NewCategoryService(opts CategoryServiceOptions) (*CategoryService, error) {
	if opts.Repo == nil {
		return nil, errors.New("CategoryRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "category_service")
	}

	return &CategoryService{repo: opts.Repo, logger: logger}, nil
}

// Create adds a new category. Admin only at the route level.
func (s *CategoryService) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	cat, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "category created", "category_id", cat.ID, "name", cat.Name)
	}
	return cat, nil
}

// GetByID retrieves a category by its ID.
func (s *CategoryService) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return cat, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	cats, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Delete removes a category. Returns NotFound when the id does not exist.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("category %d not found", id)
	}
	return nil
}
