package handler

import (
	"context"
	"crypto/subtle"
	"go-session-api/common"
	"go-session-api/config"
	"go-session-api/model"
	"go-session-api/service"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserIDKey         contextKey = "userID"
	RefreshPayloadKey contextKey = "refreshPayload"

	RefreshTokenCookie = "refreshToken"
)

// AuthMiddleware guards routes with a bearer access token and puts the user
// id into the request context.
func AuthMiddleware(tokens service.ITokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil).Send(w, requestFields(r))
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil).Send(w, requestFields(r))
				return
			}

			userID, ok := tokens.VerifyAccessToken(headerParts[1])
			if !ok {
				common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil).Send(w, requestFields(r))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RefreshTokenMiddleware guards routes with the refresh token cookie. Only
// the signature and expiry are checked here; the fingerprint check belongs
// to the use case.
func RefreshTokenMiddleware(tokens service.ITokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(RefreshTokenCookie)
			if err != nil || cookie.Value == "" {
				common.NewAppError(http.StatusUnauthorized, "Refresh token is required", nil).Send(w, requestFields(r))
				return
			}

			payload, ok := tokens.VerifyRefreshToken(cookie.Value)
			if !ok {
				common.NewAppError(http.StatusUnauthorized, "Invalid or expired refresh token", nil).Send(w, requestFields(r))
				return
			}

			ctx := context.WithValue(r.Context(), RefreshPayloadKey, payload)
			ctx = context.WithValue(ctx, UserIDKey, payload.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware guards the /sa routes with HTTP basic auth.
func AdminMiddleware(admin config.AdminConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(username), []byte(admin.Username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(password), []byte(admin.Password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="sa"`)
				common.NewAppError(http.StatusUnauthorized, "Admin credentials are required", nil).Send(w, requestFields(r))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func refreshPayloadFrom(r *http.Request) (model.RefreshTokenPayload, bool) {
	payload, ok := r.Context().Value(RefreshPayloadKey).(model.RefreshTokenPayload)
	return payload, ok
}
