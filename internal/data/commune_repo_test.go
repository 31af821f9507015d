package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/testutil"
)

func TestCommuneRepo_CreateGetUpdateDelete(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCommuneRepo(db)

		name := uniqueName("Saint-Rémy")
		c, err := repo.Create(ctx, &model.CreateCommuneRequest{Name: "  " + name + "  ", Population: 3500})
		require.NoError(t, err)
		require.NotZero(t, c.ID)
		assert.Equal(t, name, c.Name, "name should be trimmed on insert")
		assert.Equal(t, 3500, c.Population)
		assert.False(t, c.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)

		byName, err := repo.GetByName(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, c.ID, byName.ID)

		updated, err := repo.Update(ctx, c.ID, model.UpdateCommuneRequest{
			Population: testutil.IntPtr(52000),
		})
		require.NoError(t, err)
		assert.Equal(t, 52000, updated.Population)
		assert.Equal(t, name, updated.Name, "unset fields keep their value")

		deleted, err := repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = repo.GetByID(ctx, c.ID)
		assert.True(t, apperrors.IsNotFound(err))

		deleted, err = repo.Delete(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, deleted, "second delete is a no-op")
	})
}

func TestCommuneRepo_DuplicateNameConflicts(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCommuneRepo(db)

		name := uniqueName("Beaulieu")
		_, err := repo.Create(ctx, &model.CreateCommuneRequest{Name: name, Population: 1200})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &model.CreateCommuneRequest{Name: name, Population: 9000})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "name", apperrors.GetField(err))
	})
}

func TestCommuneRepo_ListOrdersByName(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewCommuneRepo(db)

		for _, name := range []string{"zz-commune", "aa-commune", "mm-commune"} {
			_, err := repo.Create(ctx, &model.CreateCommuneRequest{Name: name, Population: 100})
			require.NoError(t, err)
		}

		list, err := repo.List(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "aa-commune", list[0].Name)
		assert.Equal(t, "mm-commune", list[1].Name)
		assert.Equal(t, "zz-commune", list[2].Name)

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "mm-commune", page[0].Name)
	})
}

func TestCommuneRepo_DeleteCascadesEvents(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		fx := setupEventFixtures(t, db)
		ev := createTestEvent(t, db, fx)

		deleted, err := NewCommuneRepo(db).Delete(ctx, fx.Commune.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = NewEventRepo(db).GetByID(ctx, ev.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
