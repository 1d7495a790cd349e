package handler

import (
	"go-session-api/common"
	"go-session-api/service"
	"net/http"
)

// DeviceHandler lists and revokes the sessions of the refresh-token owner.
type DeviceHandler struct {
	sessions service.ISessionService
}

func NewDeviceHandler(sessions service.ISessionService) *DeviceHandler {
	return &DeviceHandler{sessions: sessions}
}

// ListDevices godoc
// @Summary      List active devices of the current user
// @Tags         devices
// @Produce      json
// @Success      200  {array}   model.Device
// @Failure      401  {object}  common.AppError
// @Router       /security/devices [get]
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) *common.AppError {
	payload, ok := refreshPayloadFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
	}

	devices, err := h.sessions.ListDevices(r.Context(), service.ListDevicesCommand{
		UserID:   payload.UserID,
		DeviceID: payload.DeviceID,
		IssuedAt: payload.IssuedAt,
	})
	if err != nil {
		return serviceError(err)
	}

	writeJSON(w, http.StatusOK, devices)
	return nil
}

// DeleteOtherDevices godoc
// @Summary      Terminate every session except the current one
// @Tags         devices
// @Success      204
// @Failure      401  {object}  common.AppError
// @Router       /security/devices [delete]
func (h *DeviceHandler) DeleteOtherDevices(w http.ResponseWriter, r *http.Request) *common.AppError {
	payload, ok := refreshPayloadFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
	}

	err := h.sessions.RevokeAllOtherDevices(r.Context(), service.RevokeAllOtherDevicesCommand{
		UserID:   payload.UserID,
		DeviceID: payload.DeviceID,
		IssuedAt: payload.IssuedAt,
	})
	if err != nil {
		return serviceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// DeleteDevice godoc
// @Summary      Terminate one session
// @Tags         devices
// @Param        deviceId path string true "Device ID"
// @Success      204
// @Failure      401  {object}  common.AppError
// @Failure      403  {object}  common.AppError "Device belongs to another user"
// @Failure      404  {object}  common.AppError
// @Router       /security/devices/{deviceId} [delete]
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) *common.AppError {
	payload, ok := refreshPayloadFrom(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid refresh token", nil)
	}

	err := h.sessions.RevokeDevice(r.Context(), service.RevokeDeviceCommand{
		UserID:         payload.UserID,
		DeviceID:       payload.DeviceID,
		IssuedAt:       payload.IssuedAt,
		TargetDeviceID: r.PathValue("deviceId"),
	})
	if err != nil {
		return serviceError(err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
