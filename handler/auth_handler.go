package handler

import (
	"errors"
	"go-session-api/common"
	"go-session-api/logger"
	"go-session-api/model"
	"go-session-api/service"
	"net/http"
	"time"
)

// AuthHandler serves registration, login and the refresh-token life cycle.
type AuthHandler struct {
	sessions service.ISessionService
	users    service.IUserService

	cookieTTL    time.Duration
	secureCookie bool
	trustProxy   bool
}

func NewAuthHandler(sessions service.ISessionService, users service.IUserService, cookieTTL time.Duration, secureCookie, trustProxy bool) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		users:        users,
		cookieTTL:    cookieTTL,
		secureCookie: secureCookie,
		trustProxy:   trustProxy,
	}
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionTokenError is serviceError for the refresh-cookie routes, where a
// vanished device is an authentication failure rather than a missing resource.
func sessionTokenError(err error) *common.AppError {
	if errors.Is(err, service.ErrDeviceNotFound) {
		return common.NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	}
	return serviceError(err)
}

// Register godoc
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Param        user body model.RegisterRequest true "New user"
// @Success      204
// @Failure      400  {object}  common.AppError
// @Router       /auth/registration [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.RegisterRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.users.Register(r.Context(), req); err != nil {
		return serviceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Login godoc
// @Summary      Log in and open a device session
// @Description  Returns an access token and sets the refresh token as an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials body model.LoginRequest true "Credentials"
// @Success      200  {object}  model.TokenPair
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	pair, err := h.sessions.Login(r.Context(), service.LoginCommand{
		LoginOrEmail: req.LoginOrEmail,
		Password:     req.Password,
		IP:           clientIP(r, h.trustProxy),
		Title:        r.UserAgent(),
	})
	if err != nil {
		return serviceError(err)
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, pair)
	return nil
}

// RefreshToken godoc
// @Summary      Rotate the token pair of the current device
// @Tags         auth
// @Produce      json
// @Success      200  {object}  model.TokenPair
// @Failure      401  {object}  common.AppError
// @Router       /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) *common.AppError {
	payload, ok := refreshPayloadFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
	}

	pair, err := h.sessions.RefreshToken(r.Context(), service.RefreshCommand{
		UserID:   payload.UserID,
		DeviceID: payload.DeviceID,
		IssuedAt: payload.IssuedAt,
	})
	if err != nil {
		return sessionTokenError(err)
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, pair)
	return nil
}

// Logout godoc
// @Summary      Log out from the current device
// @Tags         auth
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	payload, ok := refreshPayloadFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
	}

	err := h.sessions.Logout(r.Context(), service.LogoutCommand{
		UserID:   payload.UserID,
		DeviceID: payload.DeviceID,
		IssuedAt: payload.IssuedAt,
	})
	if err != nil {
		return sessionTokenError(err)
	}

	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.MeView
// @Failure      401  {object}  common.AppError
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	me, err := h.users.Me(r.Context(), userID)
	if err != nil {
		return serviceError(err)
	}

	logger.Log.WithField("user_id", userID).Debug("Me request served")
	writeJSON(w, http.StatusOK, me)
	return nil
}
