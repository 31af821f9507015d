package aplo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communeo/communeo-api/config"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
)

func testEvent() *model.Event {
	price := 12.5
	return &model.Event{
		ID:          42,
		Title:       "Marché nocturne",
		Description: "Marché de producteurs locaux",
		DateStart:   time.Date(2026, 7, 14, 18, 0, 0, 0, time.UTC),
		DateEnd:     time.Date(2026, 7, 14, 23, 0, 0, 0, time.UTC),
		Location:    "Place de la Mairie",
		Address:     "1 Place de la Mairie, 17000 La Rochelle",
		IsFree:      false,
		Price:       &price,
		CommuneID:   7,
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.AploConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Publish_Success(t *testing.T) {
	var gotAuth string
	var gotPayload publishPayload

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/events", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"event":{"id":"aplo-evt-9001"}}}`))
	}))

	id, err := client.Publish(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "aplo-evt-9001", id)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, int64(42), gotPayload.ExternalID)
	assert.Equal(t, "Marché nocturne", gotPayload.Title)
	require.NotNil(t, gotPayload.Price)
	assert.InDelta(t, 12.5, *gotPayload.Price, 0.001)
}

func TestClient_Publish_NumericRemoteID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"event":{"id":12345}}}`))
	}))

	id, err := client.Publish(context.Background(), testEvent())
	require.NoError(t, err)
	assert.Equal(t, "12345", id)
}

func TestClient_Publish_ServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestClient_Publish_RateLimitIsUnavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestClient_Publish_RejectionIsValidation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"missing venue"}`))
	}))

	_, err := client.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "missing venue")
}

func TestClient_Publish_BadCredentialsIsPermission(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.True(t, apperrors.IsPermission(err))
}

func TestClient_Publish_MissingRemoteID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"event":{}}}`))
	}))

	_, err := client.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing event id")
}

func TestClient_Publish_NilEvent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not be sent")
	}))

	_, err := client.Publish(context.Background(), nil)
	require.Error(t, err)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(config.AploConfig{APIKey: "k"}, nil)
	require.Error(t, err)

	_, err = NewClient(config.AploConfig{BaseURL: "https://api.aplo.fr"}, nil)
	require.Error(t, err)
}

func TestExtractRemoteID_BadJSON(t *testing.T) {
	_, err := extractRemoteID([]byte("not json"))
	require.Error(t, err)
}
