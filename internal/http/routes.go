package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/communeo/communeo-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          *service.AuthService
	Profiles      *service.ProfileService
	Events        *service.EventService
	Dashboard     *service.DashboardService
	Communes      *service.CommuneService
	Categories    *service.CategoryService
	Subscriptions *service.SubscriptionService
	Onboarding    *service.OnboardingService
	Invitations   *service.InvitationService
	Notifications *service.NotificationService
	CookieDomain  string
	Logger        *slog.Logger // Logger for HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	guards := routeGuards{Auth: services.Auth, Profiles: services.Profiles}

	var authHandlers *AuthHandlers
	if services.Auth != nil {
		authHandlers = &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: services.Logger}
		registerAuthRoutes(mux, authHandlers)
	}

	registerEventRoutes(mux, &EventHandlers{Svc: services.Events}, guards)
	registerDashboardRoutes(mux, &DashboardHandlers{Svc: services.Dashboard}, guards)
	registerCommuneRoutes(mux, &CommuneHandlers{Svc: services.Communes}, guards)
	registerCategoryRoutes(mux, &CategoryHandlers{Svc: services.Categories}, guards)
	registerSubscriptionRoutes(mux, &SubscriptionHandlers{Svc: services.Subscriptions}, guards)
	registerOnboardingRoutes(mux, &OnboardingHandlers{Svc: services.Onboarding}, guards)
	registerInvitationRoutes(mux, &InvitationHandlers{Svc: services.Invitations}, guards)
	registerProfileRoutes(mux, &ProfileHandlers{Svc: services.Profiles}, guards)
	registerNotificationRoutes(mux, &NotificationHandlers{Svc: services.Notifications}, guards)

	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("HEAD /health", healthHandler)

	registerAppShell(mux, guards)

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

// routeGuards bundles the auth dependencies the route guards need. Wrapping
// is nil-safe so tests can wire a bare mux without an auth stack.
type routeGuards struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
}

// authWrap returns a no-op wrapper when auth is nil, otherwise applies RequireAuthBrowser.
func (g routeGuards) authWrap() func(http.Handler) http.Handler {
	if g.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return RequireAuthBrowser(g.Auth, g.profileResolver())
}

// adminWrap returns a no-op wrapper when auth is nil, otherwise applies RequireAdminBrowser.
func (g routeGuards) adminWrap() func(http.Handler) http.Handler {
	if g.Auth == nil {
		return func(h http.Handler) http.Handler { return h }
	}
	return RequireAdminBrowser(g.Auth, g.profileResolver())
}

func (g routeGuards) profileResolver() ProfileResolver {
	// A typed nil *ProfileService must not reach the middleware as a
	// non-nil interface.
	if g.Profiles == nil {
		return nil
	}
	return g.Profiles
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.HandleFunc("GET /auth/signed-out", h.SignedOut)
}

func registerEventRoutes(mux *http.ServeMux, h *EventHandlers, g routeGuards) {
	wrap := g.authWrap()
	wrapAdmin := g.adminWrap()

	mux.Handle("POST /api/events", wrap(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/events", wrap(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/events/status-counts", wrap(http.HandlerFunc(h.StatusCounts)))
	mux.Handle("GET /api/events/{id}", wrap(http.HandlerFunc(h.GetByID)))
	mux.Handle("PUT /api/events/{id}", wrap(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/events/{id}", wrap(http.HandlerFunc(h.Delete)))

	// Moderation is an admin surface
	mux.Handle("POST /api/admin/events/{id}/approve", wrapAdmin(http.HandlerFunc(h.Approve)))
	mux.Handle("POST /api/admin/events/{id}/reject", wrapAdmin(http.HandlerFunc(h.Reject)))
}

func registerDashboardRoutes(mux *http.ServeMux, h *DashboardHandlers, g routeGuards) {
	wrap := g.authWrap()
	mux.Handle("GET /api/dashboard", wrap(http.HandlerFunc(h.Get)))
}

func registerCommuneRoutes(mux *http.ServeMux, h *CommuneHandlers, g routeGuards) {
	registerCRUD(mux, crudRoutes{
		Base:       "/api/admin/communes",
		Create:     h.Create,
		List:       h.List,
		GetByID:    h.GetByID,
		Update:     h.Update,
		Delete:     h.Delete,
		Middleware: g.adminWrap(),
	})
	mux.Handle("GET /api/admin/communes/{id}/suggested-plan", g.adminWrap()(http.HandlerFunc(h.SuggestedPlan)))
}

func registerCategoryRoutes(mux *http.ServeMux, h *CategoryHandlers, g routeGuards) {
	wrap := g.authWrap()
	wrapAdmin := g.adminWrap()

	// The category vocabulary is readable by any signed-in user; only
	// admins shape it.
	mux.Handle("GET /api/categories", wrap(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/admin/categories", wrapAdmin(http.HandlerFunc(h.Create)))
	mux.Handle("DELETE /api/admin/categories/{id}", wrapAdmin(http.HandlerFunc(h.Delete)))
}

func registerSubscriptionRoutes(mux *http.ServeMux, h *SubscriptionHandlers, g routeGuards) {
	wrapAdmin := g.adminWrap()

	// Pricing is public so communes can see the tiers before signing up.
	mux.HandleFunc("GET /api/billing/plans", h.Plans)

	mux.Handle("POST /api/admin/subscriptions", wrapAdmin(http.HandlerFunc(h.Record)))
	mux.Handle("GET /api/admin/subscriptions", wrapAdmin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/admin/subscriptions/{id}", wrapAdmin(http.HandlerFunc(h.GetByID)))
	mux.Handle("POST /api/admin/subscriptions/{id}/status", wrapAdmin(http.HandlerFunc(h.UpdateStatus)))
}

func registerOnboardingRoutes(mux *http.ServeMux, h *OnboardingHandlers, g routeGuards) {
	wrap := g.authWrap()
	mux.Handle("GET /api/onboarding", wrap(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/onboarding", wrap(http.HandlerFunc(h.Save)))
	mux.Handle("DELETE /api/onboarding", wrap(http.HandlerFunc(h.Reset)))
}

func registerInvitationRoutes(mux *http.ServeMux, h *InvitationHandlers, g routeGuards) {
	wrap := g.authWrap()
	wrapAdmin := g.adminWrap()

	// Public landing lookup: the invitee is not signed in yet.
	mux.HandleFunc("GET /invitation/{token}", h.Resolve)

	mux.Handle("POST /api/invitations/accept", wrap(http.HandlerFunc(h.Accept)))

	mux.Handle("POST /api/admin/invitations", wrapAdmin(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/admin/invitations", wrapAdmin(http.HandlerFunc(h.ListByCommune)))
	mux.Handle("DELETE /api/admin/invitations/{id}", wrapAdmin(http.HandlerFunc(h.Revoke)))
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers, g routeGuards) {
	wrap := g.authWrap()
	wrapAdmin := g.adminWrap()

	mux.Handle("GET /api/me", wrap(http.HandlerFunc(h.Me)))

	mux.Handle("GET /api/admin/profiles", wrapAdmin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/admin/profiles/{userID}", wrapAdmin(http.HandlerFunc(h.GetByUserID)))
	mux.Handle("PUT /api/admin/profiles/{userID}", wrapAdmin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/admin/profiles/{userID}", wrapAdmin(http.HandlerFunc(h.Delete)))
}

func registerNotificationRoutes(mux *http.ServeMux, h *NotificationHandlers, g routeGuards) {
	wrapAdmin := g.adminWrap()

	mux.Handle("GET /api/admin/notifications", wrapAdmin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/admin/notifications/unread-count", wrapAdmin(http.HandlerFunc(h.UnreadCount)))
	mux.Handle("POST /api/admin/notifications/{id}/read", wrapAdmin(http.HandlerFunc(h.MarkRead)))
	mux.Handle("DELETE /api/admin/notifications/{id}", wrapAdmin(http.HandlerFunc(h.Delete)))
}

// appShell is the minimal page served at /dashboard. The real frontend is a
// separate application mounted on the same origin in production; this shell
// keeps the route surface coherent when the API runs standalone.
const appShell = `<!DOCTYPE html>
<html lang="fr">
<head><meta charset="utf-8"><title>Communeo</title></head>
<body><div id="app" data-api-base="/api"></div></body>
</html>
`

// registerAppShell wires the authenticated browser entry point and the
// catch-all. Unmatched browser paths land on the dashboard; unmatched API
// paths answer 404 JSON.
func registerAppShell(mux *http.ServeMux, g routeGuards) {
	wrap := g.authWrap()

	mux.Handle("GET /dashboard", wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, appShell)
	})))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			WriteError(w, ErrorParams{
				Code:    http.StatusNotFound,
				ErrCode: "not_found",
				Err:     errNoSuchRoute,
			})
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
}

var errNoSuchRoute = errors.New("no such route")

// registerCRUD registers standard CRUD routes for a resource base path, applying mw if non-nil.
type crudRoutes struct {
	Base       string
	Create     http.HandlerFunc
	List       http.HandlerFunc
	GetByID    http.HandlerFunc
	Update     http.HandlerFunc
	Delete     http.HandlerFunc
	Middleware func(http.Handler) http.Handler
}

func registerCRUD(mux *http.ServeMux, cfg crudRoutes) {
	if cfg.Base == "" {
		panic("registerCRUD: Base must not be empty") //nolint:forbidigo // Fail fast during server setup.
	}
	if cfg.Create == nil ||
		cfg.List == nil ||
		cfg.GetByID == nil ||
		cfg.Update == nil ||
		cfg.Delete == nil {
		panic("registerCRUD: nil handler for base " + cfg.Base) //nolint:forbidigo // Fail fast during server setup.
	}

	wrap := func(h http.HandlerFunc) http.Handler {
		if cfg.Middleware != nil {
			return cfg.Middleware(h)
		}
		return h
	}
	mux.Handle("POST "+cfg.Base, wrap(cfg.Create))
	mux.Handle("GET "+cfg.Base, wrap(cfg.List))
	mux.Handle("GET "+cfg.Base+"/{id}", wrap(cfg.GetByID))
	mux.Handle("PUT "+cfg.Base+"/{id}", wrap(cfg.Update))
	mux.Handle("DELETE "+cfg.Base+"/{id}", wrap(cfg.Delete))
}
