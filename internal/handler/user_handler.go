package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-auth/internal/middleware"
	"storefront-auth/internal/model"
	"storefront-auth/internal/service"
	"storefront-auth/pkg/apierror"
)

type UserHandler struct {
	service *service.AuthService
}

func NewUserHandler(service *service.AuthService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Authentication Invalid"))
		return
	}

	user, err := h.service.GetUserByID(r.Context(), sessionUser.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// RevokeSessions is the operator revocation path: it invalidates the target
// user's refresh token record without deleting it, so refresh revalidation
// and new logins both fail until the record is removed by a fresh logout.
func (h *UserHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.RevokeUserSessions(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Msg: "user sessions revoked"})
}

// Get serves a single user, gated on admin-or-owner.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionUser, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Authentication Invalid"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := service.CheckPermissions(sessionUser, id); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
