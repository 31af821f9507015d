package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/communeo/communeo-api/internal/adapters/redis"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/service"
)

// mockAuthServiceForMiddleware is a test double for AuthServiceInterface.
type mockAuthServiceForMiddleware struct {
	getSessionFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

func (m *mockAuthServiceForMiddleware) GetSession(
	ctx context.Context,
	sessionID string,
) (*domainauth.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, sessionID)
	}
	return &domainauth.Session{
		ID:        sessionID,
		UserID:    "user-1",
		Email:     "mairie@saint-andre.fr",
		Role:      domainauth.RoleUser,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// Implement other methods to satisfy the interface.
func (m *mockAuthServiceForMiddleware) BeginLogin(
	_ctx context.Context,
	_redirectURL string,
) (*service.BeginLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) CompleteLogin(
	_ctx context.Context,
	_input service.CompleteLoginInput,
) (*service.CompleteLoginResult, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAuthServiceForMiddleware) Logout(_ctx context.Context, _sessionID string) error {
	return errors.New("not implemented")
}

// mockProfileResolver is a test double for ProfileResolver.
type mockProfileResolver struct {
	resolveFunc func(ctx context.Context, userID string) (*model.Profile, error)
}

func (m *mockProfileResolver) Resolve(ctx context.Context, userID string) (*model.Profile, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, userID)
	}
	return nil, nil
}

func adminResolver() *mockProfileResolver {
	return &mockProfileResolver{
		resolveFunc: func(_ context.Context, userID string) (*model.Profile, error) {
			return &model.Profile{UserID: userID, Role: domainauth.RoleAdmin}, nil
		},
	}
}

func apiRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func browserRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	return req
}

func TestRequireAuthBrowser_Success(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{}
	communeID := int64(7)
	resolver := &mockProfileResolver{
		resolveFunc: func(_ context.Context, userID string) (*model.Profile, error) {
			return &model.Profile{UserID: userID, Role: domainauth.RoleUser, CommuneID: &communeID}, nil
		},
	}
	middleware := RequireAuthBrowser(mockSvc, resolver)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r.Context())
		require.NotNil(t, session)
		assert.Equal(t, "sess-1", session.ID)

		actor, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "user-1", actor.ID)
		require.NotNil(t, actor.CommuneID)
		assert.Equal(t, int64(7), *actor.CommuneID)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/events")))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthBrowser_NoSessionAPI(t *testing.T) {
	middleware := RequireAuthBrowser(&mockAuthServiceForMiddleware{}, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, apiRequest("/api/events"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestRequireAuthBrowser_NoSessionBrowserRedirects(t *testing.T) {
	middleware := RequireAuthBrowser(&mockAuthServiceForMiddleware{}, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, browserRequest("/dashboard"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login?redirect_uri=%2Fdashboard", w.Header().Get("Location"))
}

func TestRequireAuthBrowser_InvalidSessionReadsAsSignedOut(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, apperrors.NotFound("session not found")
		},
	}
	middleware := RequireAuthBrowser(mockSvc, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/events")))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthBrowser_StoreUnavailable(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(context.Context, string) (*domainauth.Session, error) {
			return nil, apperrors.Unavailable("session store down")
		},
	}
	middleware := RequireAuthBrowser(mockSvc, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(browserRequest("/dashboard")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "session_store_unavailable")
}

func TestRequireAuthBrowser_ProfileFailureFallsBack(t *testing.T) {
	resolver := &mockProfileResolver{
		resolveFunc: func(context.Context, string) (*model.Profile, error) {
			return nil, errors.New("profile store down")
		},
	}
	middleware := RequireAuthBrowser(&mockAuthServiceForMiddleware{}, resolver)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, domainauth.RoleUser, actor.Role)
		assert.Nil(t, actor.CommuneID)
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/events")))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminBrowser_AdminPasses(t *testing.T) {
	middleware := RequireAdminBrowser(&mockAuthServiceForMiddleware{}, adminResolver())

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetUserFromContext(r.Context())
		require.True(t, ok)
		assert.True(t, actor.IsAdmin())
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/admin/communes")))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminBrowser_NonAdminAPI(t *testing.T) {
	middleware := RequireAdminBrowser(&mockAuthServiceForMiddleware{}, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/admin/communes")))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")
}

func TestRequireAdminBrowser_NonAdminBrowserRedirectsToDashboard(t *testing.T) {
	middleware := RequireAdminBrowser(&mockAuthServiceForMiddleware{}, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(browserRequest("/admin/anything")))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

// The provisional session role never grants admin on its own; the profile is
// authoritative.
func TestRequireAdminBrowser_SessionRoleAloneIsNotEnough(t *testing.T) {
	mockSvc := &mockAuthServiceForMiddleware{
		getSessionFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			return &domainauth.Session{
				ID:        sessionID,
				UserID:    "user-1",
				Role:      domainauth.RoleAdmin,
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	resolver := &mockProfileResolver{
		resolveFunc: func(context.Context, string) (*model.Profile, error) {
			return nil, nil
		},
	}
	middleware := RequireAdminBrowser(mockSvc, resolver)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(apiRequest("/api/admin/communes")))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminBrowser_NoSessionBrowserRedirectsToLogin(t *testing.T) {
	middleware := RequireAdminBrowser(&mockAuthServiceForMiddleware{}, adminResolver())

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, browserRequest("/admin/anything"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login?redirect_uri=%2Fadmin%2Fanything", w.Header().Get("Location"))
}

// A dead Redis behind the real session store and auth service must surface
// as 503, never as a signed-out redirect.
func TestRequireAuthBrowser_RealStoreOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Sessions: redisadapter.NewSessionStore(client),
	})
	middleware := RequireAuthBrowser(authSvc, nil)

	handler := middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler should not be called")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, withSession(browserRequest("/dashboard")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "session_store_unavailable")
	assert.Empty(t, w.Header().Get("Location"), "an outage must not redirect to login")
}
