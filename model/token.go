// file: model/token.go

package model

import "time"

// TokenPair is what login and refresh hand back to the HTTP layer.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"-"`
}

// RefreshTokenPayload is the verified content of a refresh token.
type RefreshTokenPayload struct {
	UserID   int
	DeviceID string
	IssuedAt time.Time
}
