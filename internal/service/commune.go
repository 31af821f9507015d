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

// CommuneServiceOptions groups dependencies for CommuneService.
type CommuneServiceOptions struct {
	Repo   core.CommuneRepository // Required: commune repository
	Logger *slog.Logger           // Optional: structured logger
}

// CommuneService provides business logic for communes, the tenant unit of
// the platform.
type CommuneService struct {
	repo   core.CommuneRepository
	logger *slog.Logger
}

// NewCommuneService constructs a new CommuneService with validation.
func NewCommuneService(opts CommuneServiceOptions) (*CommuneService, error) {
	if opts.Repo == nil {
		return nil, errors.New("CommuneRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "commune_service")
	}

	return &CommuneService{repo: opts.Repo, logger: logger}, nil
}

// Create registers a new commune. Admin only at the route level.
func (s *CommuneService) Create(ctx context.Context, req *model.CreateCommuneRequest) (*model.Commune, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	commune, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create commune: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "commune created",
			"commune_id", commune.ID, "name", commune.Name, "population", commune.Population)
	}
	return commune, nil
}

// GetByID retrieves a commune by its ID.
func (s *CommuneService) GetByID(ctx context.Context, id int64) (*model.Commune, error) {
	commune, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get commune: %w", err)
	}
	return commune, nil
}

// List returns communes ordered by name with simple paging.
func (s *CommuneService) List(ctx context.Context, limit, offset int) ([]*model.Commune, error) {
	communes, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list communes: %w", err)
	}
	return communes, nil
}

// Update applies a partial update to a commune.
func (s *CommuneService) Update(
	ctx context.Context,
	id int64,
	req model.UpdateCommuneRequest,
) (*model.Commune, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	commune, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update commune: %w", err)
	}
	return commune, nil
}

// Delete removes a commune. Returns NotFound when the id does not exist.
func (s *CommuneService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete commune: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("commune %d not found", id)
	}
	return nil
}

// SuggestedPlan returns the billing plan matching the commune's population.
func (s *CommuneService) SuggestedPlan(ctx context.Context, id int64) (model.Plan, error) {
	commune, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Plan{}, fmt.Errorf("get commune: %w", err)
	}
	return model.PlanForPopulation(commune.Population), nil
}
