package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/communeo/communeo-api/internal/core"
	domainauth "github.com/communeo/communeo-api/internal/domain/auth"
	"github.com/communeo/communeo-api/internal/domain/model"
	apperrors "github.com/communeo/communeo-api/internal/errors"
	"github.com/communeo/communeo-api/internal/mocks"
	"github.com/communeo/communeo-api/internal/service"
)

func newEventHandlers(t *testing.T) (*EventHandlers, *mocks.MockEventRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	repo := mocks.NewMockEventRepository(ctrl)
	svc := service.MustNewEventService(service.EventServiceOptions{Repo: repo})
	return &EventHandlers{Svc: svc}, repo
}

func communeUser(communeID int64) model.User {
	return model.User{
		ID:        "user-1",
		Email:     "mairie@saint-andre.fr",
		Role:      domainauth.RoleUser,
		CommuneID: &communeID,
	}
}

func adminUser() model.User {
	return model.User{ID: "admin-1", Email: "admin@communeo.fr", Role: domainauth.RoleAdmin}
}

func requestAs(req *http.Request, actor model.User) *http.Request {
	return req.WithContext(SetUserInContext(req.Context(), actor))
}

func TestEventCreate_Success(t *testing.T) {
	h, repo := newEventHandlers(t)

	starts := time.Date(2026, 6, 21, 18, 0, 0, 0, time.UTC)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateEventRequest) (*model.Event, error) {
			assert.Equal(t, int64(7), req.CommuneID)
			assert.Equal(t, "user-1", req.CreatorID)
			return &model.Event{
				ID:        1,
				Title:     req.Title,
				CommuneID: req.CommuneID,
				CreatorID: req.CreatorID,
				Status:    model.EventStatusPending,
			}, nil
		}).Times(1)

	body := `{"title":"Fête de la musique","description":"Concerts gratuits dans le centre-ville",` +
		`"commune_id":999,"category_id":3,"is_free":true,` +
		`"date_start":"` + starts.Format(time.RFC3339) + `","date_end":"` + starts.Add(4*time.Hour).Format(time.RFC3339) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Fête de la musique")
}

func TestEventCreate_ValidationError(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":""}`))
	w := httptest.NewRecorder()
	h.Create(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestEventCreate_InvalidJSON(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Create(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_json")
}

func TestEventCreate_NoActor(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventGetByID_OtherCommuneHiddenAsNotFound(t *testing.T) {
	h, repo := newEventHandlers(t)

	repo.EXPECT().GetByID(gomock.Any(), int64(42)).Return(&model.Event{
		ID:        42,
		CommuneID: 99,
		CreatorID: "someone-else",
		Status:    model.EventStatusPending,
	}, nil).Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/events/42", nil)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	h.GetByID(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestEventGetByID_BadID(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events/abc", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.GetByID(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_path")
}

func TestEventList_ReturnsPage(t *testing.T) {
	h, repo := newEventHandlers(t)

	repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts model.EventsListOptions) ([]*model.Event, error) {
			// Non-admin listings are pinned to the actor's commune.
			require.NotNil(t, opts.CommuneID)
			assert.Equal(t, int64(7), *opts.CommuneID)
			assert.Equal(t, 10, opts.Limit)
			return []*model.Event{{ID: 1, Title: "Marché de Noël", CommuneID: 7}}, nil
		}).Times(1)
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(23, nil).Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/events?limit=10", nil)
	w := httptest.NewRecorder()
	h.List(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":23`)
	assert.Contains(t, w.Body.String(), "Marché de Noël")
}

func TestEventList_InvalidStatusFilter(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/events?status=bogus", nil)
	w := httptest.NewRecorder()
	h.List(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_query")
}

func TestEventApprove_Success(t *testing.T) {
	h, repo := newEventHandlers(t)

	repo.EXPECT().GetByID(gomock.Any(), int64(5)).Return(&model.Event{
		ID:     5,
		Status: model.EventStatusPending,
	}, nil).Times(1)
	repo.EXPECT().SetStatus(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params core.SetEventStatusParams) (*model.Event, error) {
			assert.Equal(t, model.EventStatusApproved, params.Status)
			assert.Equal(t, "admin-1", params.ReviewedBy)
			return &model.Event{ID: 5, Status: model.EventStatusApproved}, nil
		}).Times(1)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/events/5/approve", nil)
	req.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Approve(w, requestAs(req, adminUser()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(model.EventStatusApproved))
}

func TestEventReject_NonAdminForbidden(t *testing.T) {
	h, _ := newEventHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/events/5/reject", nil)
	req.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Reject(w, requestAs(req, communeUser(7)))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "permission_denied")
}

func TestEventDelete_NotFound(t *testing.T) {
	h, repo := newEventHandlers(t)

	repo.EXPECT().GetByID(gomock.Any(), int64(12)).Return(nil, apperrors.NotFoundf("event 12 not found")).Times(1)

	req := httptest.NewRequest(http.MethodDelete, "/api/events/12", nil)
	req.SetPathValue("id", "12")
	w := httptest.NewRecorder()
	h.Delete(w, requestAs(req, adminUser()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventStatusCounts_Admin(t *testing.T) {
	h, repo := newEventHandlers(t)

	repo.EXPECT().StatusCounts(gomock.Any(), gomock.Nil()).Return(&model.EventStatusCounts{
		Pending:  2,
		Approved: 5,
	}, nil).Times(1)

	req := httptest.NewRequest(http.MethodGet, "/api/events/status-counts", nil)
	w := httptest.NewRecorder()
	h.StatusCounts(w, requestAs(req, adminUser()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending":2`)
}
