package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"storefront-auth/internal/middleware"
	"storefront-auth/internal/model"
	"storefront-auth/internal/service"
	"storefront-auth/internal/token"
	"storefront-auth/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
	codec   *token.Codec
	policy  token.CookiePolicy
}

func NewAuthHandler(service *service.AuthService, codec *token.Codec, policy token.CookiePolicy) *AuthHandler {
	return &AuthHandler{service: service, codec: codec, policy: policy}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.RegisterResponse{
		Msg:               "Success! Please check your email to verify account",
		VerificationToken: user.VerificationToken,
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := h.service.VerifyEmail(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Msg: "Email Verified"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	user, refreshToken, err := h.service.Login(r.Context(), payload, clientMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if err := token.AttachSessionCookies(w, h.codec, user, refreshToken, h.policy); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthenticated("Authentication Invalid"))
		return
	}

	if err := h.service.Logout(r.Context(), user.UserID); err != nil {
		writeError(w, err)
		return
	}

	token.ClearSessionCookies(w, h.policy.Secure)
	writeJSON(w, http.StatusOK, model.MessageResponse{Msg: "user logged out!"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	// Identical response whether or not the account exists.
	writeJSON(w, http.StatusOK, model.MessageResponse{Msg: "Please check your email for reset password link"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := h.service.ResetPassword(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Msg: "Password has been reset"})
}

func clientMeta(r *http.Request) model.ClientMeta {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	return model.ClientMeta{IP: ip, UserAgent: r.UserAgent()}
}
