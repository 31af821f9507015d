package data

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func createTestCommune(t *testing.T, db *sql.DB, population int) *model.Commune {
	t.Helper()
	c, err := NewCommuneRepo(db).Create(context.Background(), &model.CreateCommuneRequest{
		Name:       uniqueName("Saint-Martin"),
		Population: population,
	})
	require.NoError(t, err)
	return c
}

func createTestCategory(t *testing.T, db *sql.DB) *model.Category {
	t.Helper()
	c, err := NewCategoryRepo(db).Create(context.Background(), &model.CreateCategoryRequest{
		Name:        uniqueName("Concert"),
		Description: testutil.StringPtr("Concerts et spectacles"),
	})
	require.NoError(t, err)
	return c
}

func createTestProfile(t *testing.T, db *sql.DB, communeID int64) *model.Profile {
	t.Helper()
	userID := uniqueName("user")
	p, err := NewProfileRepo(db).Create(context.Background(), &model.CreateProfileRequest{
		UserID:    userID,
		Email:     userID + "@example.org",
		Role:      domainauth.RoleUser,
		CommuneID: &communeID,
	})
	require.NoError(t, err)
	return p
}

// eventFixtures creates the commune, category, and creator profile an event needs.
type eventFixtures struct {
	Commune  *model.Commune
	Category *model.Category
	Profile  *model.Profile
}

func setupEventFixtures(t *testing.T, db *sql.DB) eventFixtures {
	t.Helper()
	commune := createTestCommune(t, db, 4200)
	return eventFixtures{
		Commune:  commune,
		Category: createTestCategory(t, db),
		Profile:  createTestProfile(t, db, commune.ID),
	}
}

func createTestEvent(t *testing.T, db *sql.DB, fx eventFixtures) *model.Event {
	t.Helper()
	req := testutil.NewEventRequest().
		WithTitle(uniqueName("Fête")).
		WithCategory(fx.Category.ID).
		WithCommune(fx.Commune.ID).
		WithCreator(fx.Profile.UserID).
		Build()
	ev, err := NewEventRepo(db).Create(context.Background(), req)
	require.NoError(t, err)
	return ev
}
