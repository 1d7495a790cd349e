package model

import "github.com/golang-jwt/jwt/v5"

// AccessClaims carries only the registered claims; the user id is the subject.
type AccessClaims struct {
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	DeviceID string `json:"deviceId"`
	jwt.RegisteredClaims
}
