package service

import (
	"fmt"
	"go-session-api/config"
	"go-session-api/logger"
	"go-session-api/model"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ITokenService issues and verifies access and refresh tokens.
// Verification never returns an error: every failure is reported as ok == false.
type ITokenService interface {
	IssueAccessToken(userID int) (string, error)
	IssueRefreshToken(userID int, deviceID string, issuedAt time.Time) (string, error)
	VerifyAccessToken(token string) (int, bool)
	VerifyRefreshToken(token string) (model.RefreshTokenPayload, bool)
	GetIssuedAt(token string) (time.Time, bool)
}

type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

func (s *TokenService) IssueAccessToken(userID int) (string, error) {
	now := s.now()
	claims := &model.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// IssueRefreshToken signs a refresh token whose "iat" is issuedAt, which must
// be the device fingerprint the token is bound to.
func (s *TokenService) IssueRefreshToken(userID int, deviceID string, issuedAt time.Time) (string, error) {
	claims := &model.RefreshClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.refreshTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign refresh token")
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) bool {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		logger.Log.WithError(err).Debug("Token verification failed")
		return false
	}
	return true
}

func (s *TokenService) VerifyAccessToken(tokenString string) (int, bool) {
	claims := &model.AccessClaims{}
	if !s.parse(tokenString, claims, s.accessSecret) {
		return 0, false
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func (s *TokenService) VerifyRefreshToken(tokenString string) (model.RefreshTokenPayload, bool) {
	claims := &model.RefreshClaims{}
	if !s.parse(tokenString, claims, s.refreshSecret) {
		return model.RefreshTokenPayload{}, false
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || claims.DeviceID == "" || claims.IssuedAt == nil {
		return model.RefreshTokenPayload{}, false
	}
	return model.RefreshTokenPayload{
		UserID:   userID,
		DeviceID: claims.DeviceID,
		IssuedAt: claims.IssuedAt.Time.UTC(),
	}, true
}

// GetIssuedAt checks the refresh token signature and returns its "iat",
// without looking at the device it names.
func (s *TokenService) GetIssuedAt(tokenString string) (time.Time, bool) {
	claims := &model.RefreshClaims{}
	if !s.parse(tokenString, claims, s.refreshSecret) || claims.IssuedAt == nil {
		return time.Time{}, false
	}
	return claims.IssuedAt.Time.UTC(), true
}
