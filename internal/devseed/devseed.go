// Package devseed populates a development database with a small but
// representative set of communes, categories, profiles, and events.
// Seeding is idempotent: rows that already exist are left alone.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/communeo/communeo-api/internal/data"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB            *sql.DB
	communes      *service.CommuneService
	categories    *service.CategoryService
	profiles      *service.ProfileService
	events        *service.EventService
	subscriptions *service.SubscriptionService
	communeRepo   *data.CommuneRepo
	categoryRepo  *data.CategoryRepo
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) (Services, error) {
	communeRepo := data.NewCommuneRepo(db)
	categoryRepo := data.NewCategoryRepo(db)

	communeService, err := service.NewCommuneService(service.CommuneServiceOptions{Repo: communeRepo})
	if err != nil {
		return Services{}, fmt.Errorf("commune service: %w", err)
	}
	categoryService, err := service.NewCategoryService(service.CategoryServiceOptions{Repo: categoryRepo})
	if err != nil {
		return Services{}, fmt.Errorf("category service: %w", err)
	}
	profileService, err := service.NewProfileService(service.ProfileServiceOptions{
		Repo: data.NewProfileRepo(db),
	})
	if err != nil {
		return Services{}, fmt.Errorf("profile service: %w", err)
	}
	eventService, err := service.NewEventService(service.EventServiceOptions{
		Repo: data.NewEventRepo(db),
	})
	if err != nil {
		return Services{}, fmt.Errorf("event service: %w", err)
	}
	subscriptionService, err := service.NewSubscriptionService(service.SubscriptionServiceOptions{
		Repo: data.NewSubscriptionRepo(db),
	})
	if err != nil {
		return Services{}, fmt.Errorf("subscription service: %w", err)
	}

	return Services{
		DB:            db,
		communes:      communeService,
		categories:    categoryService,
		profiles:      profileService,
		events:        eventService,
		subscriptions: subscriptionService,
		communeRepo:   communeRepo,
		categoryRepo:  categoryRepo,
	}, nil
}

// Run executes the full development seeding workflow against the provided DB.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	failures := 0
	failures += seedCategories(ctx, svcs, logger)

	communes, communeFailures := seedCommunes(ctx, svcs, logger)
	failures += communeFailures

	admin, err := seedAdmin(ctx, svcs, logger)
	if err != nil {
		return err
	}

	mayors, mayorFailures := seedMayors(ctx, svcs, communes, logger)
	failures += mayorFailures

	failures += seedEvents(ctx, svcs, admin, mayors, logger)
	failures += seedSubscriptions(ctx, svcs, communes, logger)

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func defaultCategories() []*model.CreateCategoryRequest {
	desc := func(s string) *string { return &s }
	return []*model.CreateCategoryRequest{
		{Name: "Concert", Description: desc("Concerts et spectacles musicaux")},
		{Name: "Marché", Description: desc("Marchés et foires")},
		{Name: "Atelier", Description: desc("Ateliers et formations")},
		{Name: "Fête votive", Description: desc("Fêtes de village et célébrations")},
		{Name: "Sport", Description: desc("Compétitions et rencontres sportives")},
		{Name: "Culture", Description: desc("Expositions, théâtre et patrimoine")},
	}
}

func seedCategories(ctx context.Context, svcs Services, logger *slog.Logger) int {
	failures := 0
	for _, req := range defaultCategories() {
		_, err := svcs.categories.Create(ctx, req)
		switch {
		case err == nil:
			logInfo(ctx, logger, "created category", "name", req.Name)
		case apperrors.IsConflict(err):
			logInfo(ctx, logger, "category already exists", "name", req.Name)
		default:
			logError(ctx, logger, "failed to create category", "name", req.Name, "error", err)
			failures++
		}
	}
	return failures
}

func defaultCommunes() []*model.CreateCommuneRequest {
	return []*model.CreateCommuneRequest{
		{Name: "Beaulieu-sur-Mer", Population: 3800},
		{Name: "Saint-Julien-les-Vignes", Population: 12500},
		{Name: "Montferrand", Population: 118000},
	}
}

// seedCommunes returns the seeded communes keyed by name so later stages can
// attach profiles and events to them.
func seedCommunes(ctx context.Context, svcs Services, logger *slog.Logger) (map[string]*model.Commune, int) {
	failures := 0
	communes := make(map[string]*model.Commune)

	for _, req := range defaultCommunes() {
		commune, err := svcs.communes.Create(ctx, req)
		if apperrors.IsConflict(err) {
			commune, err = svcs.communeRepo.GetByName(ctx, req.Name)
			if err == nil {
				logInfo(ctx, logger, "commune already exists", "name", req.Name)
			}
		} else if err == nil {
			logInfo(ctx, logger, "created commune", "name", req.Name, "population", req.Population)
		}
		if err != nil {
			logError(ctx, logger, "failed to seed commune", "name", req.Name, "error", err)
			failures++
			continue
		}
		communes[commune.Name] = commune
	}

	return communes, failures
}

func seedAdmin(ctx context.Context, svcs Services, logger *slog.Logger) (*model.Profile, error) {
	admin, err := svcs.profiles.EnsureProfile(ctx, "seed-admin", "admin@communeo.fr", domainauth.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("seed admin profile: %w", err)
	}
	logInfo(ctx, logger, "admin profile ready", "user_id", admin.UserID)
	return admin, nil
}

// seedMayors provisions one commune-scoped profile per commune and returns
// them keyed by commune name.
func seedMayors(
	ctx context.Context,
	svcs Services,
	communes map[string]*model.Commune,
	logger *slog.Logger,
) (map[string]*model.Profile, int) {
	failures := 0
	mayors := make(map[string]*model.Profile)

	for name, commune := range communes {
		userID := fmt.Sprintf("seed-mayor-%d", commune.ID)
		email := fmt.Sprintf("mairie-%d@communeo.fr", commune.ID)

		profile, err := svcs.profiles.EnsureProfile(ctx, userID, email, domainauth.RoleUser)
		if err != nil {
			logError(ctx, logger, "failed to provision mayor profile", "commune", name, "error", err)
			failures++
			continue
		}
		if profile.CommuneID == nil || *profile.CommuneID != commune.ID {
			communeID := commune.ID
			profile, err = svcs.profiles.Update(ctx, userID, model.UpdateProfileRequest{CommuneID: &communeID})
			if err != nil {
				logError(ctx, logger, "failed to assign mayor commune", "commune", name, "error", err)
				failures++
				continue
			}
		}
		logInfo(ctx, logger, "mayor profile ready", "commune", name, "user_id", profile.UserID)
		mayors[name] = profile
	}

	return mayors, failures
}

type eventSeedSpec struct {
	Commune     string
	Category    string
	Title       string
	Description string
	Location    string
	DaysAhead   int
	Hours       int
	IsFree      bool
	Price       float64
	Approve     bool
}

func defaultEventSeedSpecs() []eventSeedSpec {
	return []eventSeedSpec{
		{
			Commune:     "Beaulieu-sur-Mer",
			Category:    "Marché",
			Title:       "Marché nocturne du port",
			Description: "Producteurs locaux et artisanat sur le quai.",
			Location:    "Quai des pêcheurs",
			DaysAhead:   7,
			Hours:       5,
			IsFree:      true,
			Approve:     true,
		},
		{
			Commune:     "Beaulieu-sur-Mer",
			Category:    "Concert",
			Title:       "Concert d'été en plein air",
			Description: "Scène ouverte face à la mer.",
			Location:    "Place de la mairie",
			DaysAhead:   14,
			Hours:       3,
			IsFree:      false,
			Price:       12.50,
		},
		{
			Commune:     "Saint-Julien-les-Vignes",
			Category:    "Fête votive",
			Title:       "Fête de la Saint-Julien",
			Description: "Trois jours de festivités, bal et feu d'artifice.",
			Location:    "Centre-ville",
			DaysAhead:   21,
			Hours:       72,
			IsFree:      true,
		},
		{
			Commune:     "Montferrand",
			Category:    "Culture",
			Title:       "Nuit des musées",
			Description: "Ouverture nocturne gratuite des collections municipales.",
			Location:    "Musée municipal",
			DaysAhead:   30,
			Hours:       6,
			IsFree:      true,
		},
	}
}

// seedEvents creates sample events for communes that have none. One event is
// approved so the sync queue has something to push in development.
func seedEvents(
	ctx context.Context,
	svcs Services,
	admin *model.Profile,
	mayors map[string]*model.Profile,
	logger *slog.Logger,
) int {
	failures := 0

	categories, err := svcs.categories.List(ctx)
	if err != nil {
		logError(ctx, logger, "failed to list categories for event seeding", "error", err)
		return 1
	}
	categoryByName := make(map[string]int64, len(categories))
	for _, c := range categories {
		categoryByName[c.Name] = c.ID
	}

	adminActor := model.User{ID: admin.UserID, Email: admin.Email, Role: admin.Role}

	for _, spec := range defaultEventSeedSpecs() {
		mayor, ok := mayors[spec.Commune]
		if !ok {
			continue
		}
		categoryID, ok := categoryByName[spec.Category]
		if !ok {
			logError(ctx, logger, "seed category missing", "category", spec.Category)
			failures++
			continue
		}

		if exists, checkErr := communeHasEvent(ctx, svcs, adminActor, mayor, spec.Title); checkErr != nil {
			logError(ctx, logger, "failed to check existing events", "commune", spec.Commune, "error", checkErr)
			failures++
			continue
		} else if exists {
			logInfo(ctx, logger, "event already seeded", "title", spec.Title)
			continue
		}

		if seedErr := createSeedEvent(ctx, svcs, adminActor, mayor, spec, categoryID); seedErr != nil {
			logError(ctx, logger, "failed to seed event", "title", spec.Title, "error", seedErr)
			failures++
			continue
		}
		logInfo(ctx, logger, "created event", "title", spec.Title, "commune", spec.Commune, "approved", spec.Approve)
	}

	return failures
}

func communeHasEvent(
	ctx context.Context,
	svcs Services,
	adminActor model.User,
	mayor *model.Profile,
	title string,
) (bool, error) {
	page, err := svcs.events.List(ctx, adminActor, model.EventsListOptions{
		CommuneID: mayor.CommuneID,
		Limit:     100,
	})
	if err != nil {
		return false, err
	}
	for _, ev := range page.Events {
		if ev.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func createSeedEvent(
	ctx context.Context,
	svcs Services,
	adminActor model.User,
	mayor *model.Profile,
	spec eventSeedSpec,
	categoryID int64,
) error {
	mayorActor := model.User{
		ID:        mayor.UserID,
		Email:     mayor.Email,
		Role:      mayor.Role,
		CommuneID: mayor.CommuneID,
	}

	start := time.Now().AddDate(0, 0, spec.DaysAhead).Truncate(time.Hour)
	req := &model.CreateEventRequest{
		Title:       spec.Title,
		Description: spec.Description,
		Location:    spec.Location,
		DateStart:   start,
		DateEnd:     start.Add(time.Duration(spec.Hours) * time.Hour),
		CategoryID:  categoryID,
		IsFree:      spec.IsFree,
	}
	if !spec.IsFree {
		price := spec.Price
		req.Price = &price
	}

	ev, err := svcs.events.Create(ctx, mayorActor, req)
	if err != nil {
		return err
	}
	if spec.Approve {
		if _, err := svcs.events.Approve(ctx, adminActor, ev.ID); err != nil {
			return fmt.Errorf("approve seeded event: %w", err)
		}
	}
	return nil
}

// seedSubscriptions records an active subscription for each seeded commune
// that has none, on the tier matching its population.
func seedSubscriptions(
	ctx context.Context,
	svcs Services,
	communes map[string]*model.Commune,
	logger *slog.Logger,
) int {
	failures := 0

	for name, commune := range communes {
		_, err := svcs.subscriptions.ActiveForCommune(ctx, commune.ID)
		if err == nil {
			logInfo(ctx, logger, "subscription already active", "commune", name)
			continue
		}
		if !apperrors.IsNotFound(err) {
			logError(ctx, logger, "failed to check subscription", "commune", name, "error", err)
			failures++
			continue
		}

		plan := svcs.subscriptions.PlanForPopulation(commune.Population)
		now := time.Now()
		_, err = svcs.subscriptions.Record(ctx, &model.CreateSubscriptionRequest{
			CommuneID:          commune.ID,
			ProcessorSubID:     fmt.Sprintf("seed-sub-%d", commune.ID),
			Status:             model.SubscriptionActive,
			PlanID:             plan.ID,
			AmountMonthly:      plan.MonthlyPriceEUR * 100,
			Currency:           "EUR",
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		})
		if err != nil {
			logError(ctx, logger, "failed to record subscription", "commune", name, "error", err)
			failures++
			continue
		}
		logInfo(ctx, logger, "recorded subscription", "commune", name, "plan", plan.ID)
	}

	return failures
}

func logInfo(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.InfoContext(ctx, msg, args...)
	}
}

func logError(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.ErrorContext(ctx, msg, args...)
	}
}
