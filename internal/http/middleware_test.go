package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecover_CatchesPanic(t *testing.T) {
	handler := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLogging_PreservesStatus(t *testing.T) {
	handler := Logging(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestBrowserDetection_APIPathIsNeverABrowser(t *testing.T) {
	var sawBrowser bool
	handler := BrowserDetection()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sawBrowser = IsBrowserRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Accept", "text/html")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, sawBrowser)
}

func TestBrowserDetection_HTMLAcceptIsABrowser(t *testing.T) {
	var sawBrowser bool
	handler := BrowserDetection()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sawBrowser = IsBrowserRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, sawBrowser)
}

func TestBrowserDetection_NoAcceptHeaderDefaultsToBrowser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	assert.True(t, IsBrowserRequest(req))
}
