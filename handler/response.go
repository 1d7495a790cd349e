package handler

import (
	"encoding/json"
	"errors"
	"go-session-api/common"
	"go-session-api/service"
	"net"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// clientIP returns the socket address of the peer. With trustProxy set the
// first X-Forwarded-For hop wins, since the proxy in front is trusted to
// write it.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// serviceError maps use case errors to HTTP responses. Every kind of
// authentication failure becomes a plain 401.
func serviceError(err error) *common.AppError {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrFingerprintMismatch),
		errors.Is(err, service.ErrUserNotFound):
		return common.NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, service.ErrForbidden):
		return common.NewAppError(http.StatusForbidden, "Forbidden", err)
	case errors.Is(err, service.ErrDeviceNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrUserAlreadyExists), errors.Is(err, service.ErrInvalidBanReason):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
