package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/communeo/communeo-api/config"
	redisadapter "github.com/communeo/communeo-api/internal/adapters/redis"
	"github.com/communeo/communeo-api/internal/data"
	"github.com/communeo/communeo-api/internal/observability/statsd"
	"github.com/communeo/communeo-api/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth          *service.AuthService
	AuthState     *service.AuthStateService
	Profiles      *service.ProfileService
	Events        *service.EventService
	Dashboard     *service.DashboardService
	Communes      *service.CommuneService
	Categories    *service.CategoryService
	Subscriptions *service.SubscriptionService
	Onboarding    *service.OnboardingService
	Invitations   *service.InvitationService
	Notifications *service.NotificationService
	Metrics       statsd.Sink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB               *sql.DB
	Redis            redis.UniversalClient
	CommuneRepo      *data.CommuneRepo
	CategoryRepo     *data.CategoryRepo
	EventRepo        *data.EventRepo
	ProfileRepo      *data.ProfileRepo
	SubscriptionRepo *data.SubscriptionRepo
	InvitationRepo   *data.InvitationRepo
	NotificationRepo *data.NotificationRepo
	OnboardingRepo   *data.OnboardingRepo
	CacheRepo        *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	repos := &serviceRepositories{
		DB:               db,
		Redis:            redisClient,
		CommuneRepo:      data.NewCommuneRepo(db),
		CategoryRepo:     data.NewCategoryRepo(db),
		EventRepo:        data.NewEventRepo(db),
		ProfileRepo:      data.NewProfileRepo(db),
		SubscriptionRepo: data.NewSubscriptionRepo(db),
		InvitationRepo:   data.NewInvitationRepo(db),
		NotificationRepo: data.NewNotificationRepo(db),
		OnboardingRepo:   data.NewOnboardingRepo(db),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// DomainServicesOptions groups inputs for wiring the business services.
type DomainServicesOptions struct {
	Repos   *serviceRepositories
	Metrics statsd.Sink
	Config  *config.AppConfig
	Logger  *slog.Logger
}

// buildDomainServices wires business services using repositories and
// observability adapters. Auth-related services come back nil when auth is
// not configured; everything else is required.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil || opts.Repos == nil {
		return ServiceContainer{}, errors.New("service repositories are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}

	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	notificationSvc, err := service.NewNotificationService(service.NotificationServiceOptions{
		Repo:   opts.Repos.NotificationRepo,
		Logger: svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("notification service: %w", err)
	}

	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{
		Repo:          opts.Repos.ProfileRepo,
		Notifications: opts.Repos.NotificationRepo,
		Logger:        svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("profile service: %w", err)
	}

	eventSvc, err := service.NewEventService(service.EventServiceOptions{
		Repo:          opts.Repos.EventRepo,
		Notifications: opts.Repos.NotificationRepo,
		Logger:        svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("event service: %w", err)
	}

	communeSvc, err := service.NewCommuneService(service.CommuneServiceOptions{
		Repo:   opts.Repos.CommuneRepo,
		Logger: svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("commune service: %w", err)
	}

	categorySvc, err := service.NewCategoryService(service.CategoryServiceOptions{
		Repo:   opts.Repos.CategoryRepo,
		Logger: svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("category service: %w", err)
	}

	subscriptionSvc, err := service.NewSubscriptionService(service.SubscriptionServiceOptions{
		Repo:   opts.Repos.SubscriptionRepo,
		Logger: svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("subscription service: %w", err)
	}

	onboardingSvc, err := service.NewOnboardingService(service.OnboardingServiceOptions{
		Repo:   opts.Repos.OnboardingRepo,
		Logger: svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("onboarding service: %w", err)
	}

	invitationSvc, err := service.NewInvitationService(service.InvitationServiceOptions{
		Repo:     opts.Repos.InvitationRepo,
		Profiles: opts.Repos.ProfileRepo,
		Logger:   svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("invitation service: %w", err)
	}

	dashboardOpts := service.DashboardServiceOptions{
		Events:        eventSvc,
		Subscriptions: subscriptionSvc,
		Notifications: opts.Repos.NotificationRepo,
		Logger:        svcLogger,
	}
	if opts.Repos.CacheRepo != nil {
		dashboardOpts.Cache = opts.Repos.CacheRepo
		dashboardOpts.CacheTTL = appCfg.Cache.DashboardTTL
	}
	dashboardSvc, err := service.NewDashboardService(dashboardOpts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("dashboard service: %w", err)
	}

	authSvc := BuildAuthService(AuthConfig{
		Auth:        appCfg.Auth,
		RedisClient: opts.Repos.Redis,
		Profiles:    profileSvc,
		Logger:      svcLogger,
	})

	authStateSvc, err := buildAuthStateService(authSvc, profileSvc, opts.Repos.Redis, svcLogger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth state service: %w", err)
	}

	return ServiceContainer{
		Auth:          authSvc,
		AuthState:     authStateSvc,
		Profiles:      profileSvc,
		Events:        eventSvc,
		Dashboard:     dashboardSvc,
		Communes:      communeSvc,
		Categories:    categorySvc,
		Subscriptions: subscriptionSvc,
		Onboarding:    onboardingSvc,
		Invitations:   invitationSvc,
		Notifications: notificationSvc,
		Metrics:       opts.Metrics,
	}, nil
}

// buildAuthStateService wires the session-state merger on top of the same
// Redis change feed the auth service publishes to. Returns nil when auth is
// disabled; the merger has nothing to merge without sessions.
func buildAuthStateService(
	authSvc *service.AuthService,
	profiles *service.ProfileService,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) (*service.AuthStateService, error) {
	if authSvc == nil || redisClient == nil {
		return nil, nil
	}
	return service.NewAuthStateService(service.AuthStateServiceOptions{
		Events:   redisadapter.NewSessionEvents(redisClient, logger),
		Profiles: profiles,
		Sessions: authSvc,
		Logger:   logger,
	})
}

// NewServices builds the full service container from shared infrastructure.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obsCfg config.ObservabilityConfig
	if deps.Config != nil {
		obsCfg = deps.Config.Observability
	}
	metrics, err := BuildMetricsSink(obsCfg, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	repos := buildRepositories(deps.DB, deps.RedisClient)
	return buildDomainServices(&DomainServicesOptions{
		Repos:   repos,
		Metrics: metrics,
		Config:  deps.Config,
		Logger:  logger,
	})
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] || descriptor.start == nil {
		return nil
	}

	logger := deps.logger
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newAploSyncBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeAploSync,
		name: "aplo sync",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var aploCfg config.AploConfig
			var syncCfg config.AploSyncConfig
			if deps.cfg.Config != nil {
				aploCfg = deps.cfg.Config.Aplo
				syncCfg = deps.cfg.Config.AploSync
			}
			return RunAploSync(ctx, AploSyncRunnerConfig{
				DB:          deps.cfg.DB,
				RedisClient: deps.cfg.RedisClient,
				Aplo:        aploCfg,
				Sync:        syncCfg,
				Logger:      deps.logger,
				Metrics:     deps.cfg.Services.Metrics,
			})
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var reaperCfg config.ReaperConfig
			if deps.cfg.Config != nil {
				reaperCfg = deps.cfg.Config.Reaper
			}
			return RunReaper(ctx, ReaperRunnerConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  reaperCfg,
				Metrics: deps.cfg.Services.Metrics,
			})
		},
	}
}

// newAuthStateBackgroundService keeps the merged auth state current while
// the HTTP server runs. The start func is nil when auth is disabled, which
// launchBackground treats as not enabled.
func newAuthStateBackgroundService(deps *serviceStartupDeps) backgroundService {
	svc := backgroundService{
		mode: config.ServiceModeHTTP,
		name: "auth state merger",
	}
	if deps == nil || deps.cfg == nil || deps.cfg.Services.AuthState == nil {
		return svc
	}
	merger := deps.cfg.Services.AuthState
	svc.start = func(ctx context.Context) error {
		return merger.Run(ctx)
	}
	return svc
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newAuthStateBackgroundService(deps),
		newAploSyncBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	modes := []config.ServiceMode{
		config.ServiceModeHTTP,
		config.ServiceModeAploSync,
		config.ServiceModeReaper,
	}

	count := 0
	for _, mode := range modes {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running. The service context is already
	// canceled at this point, so the drain deadline gets its own context.
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
