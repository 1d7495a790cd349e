package model

import "time"

// Device is one authenticated client session. LastActiveDate doubles as the
// fingerprint of the only refresh token currently valid for the device.
type Device struct {
	DeviceID       string    `json:"deviceId"`
	UserID         int       `json:"-"`
	LastActiveDate time.Time `json:"lastActiveDate"`
	IP             string    `json:"ip"`
	Title          string    `json:"title"`
}
