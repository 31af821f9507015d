package httpx

import (
	"errors"
	"net/http"

	"github.com/communeo/communeo-api/internal/domain/model"
	"github.com/communeo/communeo-api/internal/service"
)

// InvitationHandlers provides HTTP handlers for team invitations.
type InvitationHandlers struct {
	Svc *service.InvitationService
}

// Resolve handles the public invitation landing lookup. The page shows who
// is invited to which commune before the visitor signs in, so only the
// non-sensitive fields are returned.
// GET /invitation/{token}.
func (h *InvitationHandlers) Resolve(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("invitation token is required"),
		})
		return
	}

	inv, err := h.Svc.Resolve(r.Context(), token)
	if err != nil {
		WriteServiceError(w, err, "resolve_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"email":      inv.Email,
		"commune_id": inv.CommuneID,
		"role":       inv.Role,
		"expires_at": inv.ExpiresAt,
	})
}

// Accept handles HTTP requests to consume an invitation for the signed-in
// user. The accepted invitation provisions or updates the user's profile.
// POST /api/invitations/accept.
func (h *InvitationHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	profile, err := h.Svc.Accept(r.Context(), req.Token, actor.ID)
	if err != nil {
		WriteServiceError(w, err, "accept_failed")
		return
	}

	WriteJSON(w, http.StatusOK, profile)
}

// Create handles HTTP requests to issue an invitation.
// POST /api/admin/invitations.
func (h *InvitationHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateInvitationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, err, "create_failed")
		return
	}

	WriteJSON(w, http.StatusCreated, inv)
}

// ListByCommune handles HTTP requests to list a commune's invitations.
// GET /api/admin/invitations?commune_id=<id>.
func (h *InvitationHandlers) ListByCommune(w http.ResponseWriter, r *http.Request) {
	communeID := int64(parseIntQuery(r, "commune_id", 0))
	if communeID <= 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_query",
			Err:     errors.New("commune_id must be a positive integer"),
		})
		return
	}

	invs, err := h.Svc.ListByCommune(r.Context(), communeID)
	if err != nil {
		WriteServiceError(w, err, "list_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"invitations": invs})
}

// Revoke handles HTTP requests to withdraw an unused invitation.
// DELETE /api/admin/invitations/{id}.
func (h *InvitationHandlers) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}

	if err := h.Svc.Revoke(r.Context(), id); err != nil {
		WriteServiceError(w, err, "revoke_failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
