package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/core"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

// fakeCategoryRepo is a hand-written fake with pluggable behavior per method.
type fakeCategoryRepo struct {
	createFn  func(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error)
	getByIDFn func(ctx context.Context, id int64) (*model.Category, error)
	listFn    func(ctx context.Context) ([]*model.Category, error)
	deleteFn  func(ctx context.Context, id int64) (bool, error)
}

func (f *fakeCategoryRepo) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	if f.createFn == nil {
		panic("not implemented")
	}
	return f.createFn(ctx, req)
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	if f.getByIDFn == nil {
		panic("not implemented")
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeCategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	if f.listFn == nil {
		panic("not implemented")
	}
	return f.listFn(ctx)
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if f.deleteFn == nil {
		panic("not implemented")
	}
	return f.deleteFn(ctx, id)
}

var _ core.CategoryRepository = (*fakeCategoryRepo)(nil)

func newCategoryService(t *testing.T, repo *fakeCategoryRepo) *CategoryService {
	t.Helper()
	service, err := NewCategoryService(CategoryServiceOptions{Repo: repo})
	require.NoError(t, err)
	return service
}

func TestCategoryService_Create_Success(t *testing.T) {
	t.Parallel()
	repo := &fakeCategoryRepo{
		createFn: func(_ context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
			return &model.Category{ID: 1, Name: req.Name}, nil
		},
	}
	service := newCategoryService(t, repo)

	cat, err := service.Create(context.Background(), &model.CreateCategoryRequest{Name: "Concerts"})

	require.NoError(t, err)
	assert.Equal(t, "Concerts", cat.Name)
}

func TestCategoryService_Create_EmptyName(t *testing.T) {
	t.Parallel()
	service := newCategoryService(t, &fakeCategoryRepo{})

	_, err := service.Create(context.Background(), &model.CreateCategoryRequest{Name: " "})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCategoryService_List(t *testing.T) {
	t.Parallel()
	repo := &fakeCategoryRepo{
		listFn: func(_ context.Context) ([]*model.Category, error) {
			return []*model.Category{{ID: 1, Name: "Concerts"}, {ID: 2, Name: "Marchés"}}, nil
		},
	}
	service := newCategoryService(t, repo)

	cats, err := service.List(context.Background())

	require.NoError(t, err)
	require.Len(t, cats, 2)
}

func TestCategoryService_Delete_NotFound(t *testing.T) {
	t.Parallel()
	repo := &fakeCategoryRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return false, nil },
	}
	service := newCategoryService(t, repo)

	err := service.Delete(context.Background(), 42)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
