package bootstrap

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/adapters/authroles"
	"github.com/communeo/communeo-api/internal/adapters/devauth"
	"github.com/communeo/communeo-api/internal/adapters/oidc"
	redisadapter "github.com/communeo/communeo-api/internal/adapters/redis"
	"github.com/communeo/communeo-api/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Profiles    *service.ProfileService
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store and change feed shared by both modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	sessionEvents := redisadapter.NewSessionEvents(cfg.RedisClient, cfg.Logger)

	// Role mapper is shared
	roleMapper := authroles.StaticRoleMapper{
		AdminGroup: cfg.Auth.AdminGroup,
		UserGroup:  cfg.Auth.UserGroup,
	}

	opts := service.AuthServiceOptions{
		Sessions: sessionStore,
		Roles:    roleMapper,
		Events:   sessionEvents,
		Logger:   cfg.Logger,
	}
	if cfg.Profiles != nil {
		opts.Profiles = cfg.Profiles
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, opts)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, opts)

	default:
		return nil
	}
}

func buildDevAuthService(cfg AuthConfig, opts service.AuthServiceOptions) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	opts.Provider = prov
	return service.NewAuthService(opts)
}

func buildOAuthService(cfg AuthConfig, opts service.AuthServiceOptions) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	opts.Provider = prov
	return service.NewAuthService(opts)
}
