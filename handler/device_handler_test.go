package handler

import (
	"errors"
	"go-session-api/common"
	"go-session-api/model"
	"go-session-api/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var currentDevice = model.RefreshTokenPayload{UserID: 1, DeviceID: "current", IssuedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

func TestDeviceHandler_ListDevices(t *testing.T) {
	sessions := new(mockSessionService)
	lastActive := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cmd := service.ListDevicesCommand{UserID: 1, DeviceID: "current", IssuedAt: currentDevice.IssuedAt}
	sessions.On("ListDevices", mock.Anything, cmd).Return([]*model.Device{
		{DeviceID: "current", UserID: 1, LastActiveDate: lastActive, IP: "10.0.0.1", Title: "firefox"},
	}, nil).Once()
	h := NewDeviceHandler(sessions)

	req := withRefreshPayload(httptest.NewRequest(http.MethodGet, "/security/devices", nil), currentDevice)
	rec := httptest.NewRecorder()
	ErrorHandlingMiddleware(h.ListDevices).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"deviceId":"current","lastActiveDate":"2026-03-01T00:00:00Z","ip":"10.0.0.1","title":"firefox"}]`, rec.Body.String())
}

// Every device route answers 401 when the presented session is stale or gone.
func TestDeviceHandler_RejectedSession(t *testing.T) {
	for _, err := range []error{service.ErrFingerprintMismatch, service.ErrTokenInvalid, service.ErrUserNotFound} {
		t.Run(err.Error(), func(t *testing.T) {
			sessions := new(mockSessionService)
			sessions.On("ListDevices", mock.Anything, mock.Anything).Return(nil, err).Once()
			sessions.On("RevokeAllOtherDevices", mock.Anything, mock.Anything).Return(err).Once()
			sessions.On("RevokeDevice", mock.Anything, mock.Anything).Return(err).Once()
			h := NewDeviceHandler(sessions)

			routes := []struct {
				method  string
				handler func(http.ResponseWriter, *http.Request) *common.AppError
			}{
				{http.MethodGet, h.ListDevices},
				{http.MethodDelete, h.DeleteOtherDevices},
				{http.MethodDelete, h.DeleteDevice},
			}
			for _, route := range routes {
				req := withRefreshPayload(httptest.NewRequest(route.method, "/security/devices", nil), currentDevice)
				req.SetPathValue("deviceId", "other")
				rec := httptest.NewRecorder()
				ErrorHandlingMiddleware(route.handler).ServeHTTP(rec, req)

				assert.Equal(t, http.StatusUnauthorized, rec.Code)
			}
			sessions.AssertExpectations(t)
		})
	}
}

func TestDeviceHandler_DeleteOtherDevices(t *testing.T) {
	sessions := new(mockSessionService)
	sessions.On("RevokeAllOtherDevices", mock.Anything, service.RevokeAllOtherDevicesCommand{
		UserID:   1,
		DeviceID: "current",
		IssuedAt: currentDevice.IssuedAt,
	}).Return(nil).Once()
	h := NewDeviceHandler(sessions)

	req := withRefreshPayload(httptest.NewRequest(http.MethodDelete, "/security/devices", nil), currentDevice)
	rec := httptest.NewRecorder()
	ErrorHandlingMiddleware(h.DeleteOtherDevices).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	sessions.AssertExpectations(t)
}

func TestDeviceHandler_DeleteDevice(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"another user's device", service.ErrForbidden, http.StatusForbidden},
		{"unknown device", service.ErrDeviceNotFound, http.StatusNotFound},
		{"storage failure", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sessions := new(mockSessionService)
			sessions.On("RevokeDevice", mock.Anything, service.RevokeDeviceCommand{
				UserID:         1,
				DeviceID:       "current",
				IssuedAt:       currentDevice.IssuedAt,
				TargetDeviceID: "other",
			}).Return(tc.err).Once()
			h := NewDeviceHandler(sessions)

			req := withRefreshPayload(httptest.NewRequest(http.MethodDelete, "/security/devices/other", nil), currentDevice)
			req.SetPathValue("deviceId", "other")
			rec := httptest.NewRecorder()
			ErrorHandlingMiddleware(h.DeleteDevice).ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			sessions.AssertExpectations(t)
		})
	}
}
