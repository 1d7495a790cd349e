package service

import (
	"go-session-api/logger"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// AuthService hashes and checks user passwords.
type AuthService struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService falls back to bcrypt.DefaultCost for out-of-range costs.
func NewAuthService(cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{cost: cost}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPasswordNoUser spends the same bcrypt work as CheckPasswordHash for a
// login that matched no user, so both paths take about as long. It always
// reports false.
func (s *AuthService) CheckPasswordNoUser(password string) bool {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("no-such-user"), s.cost)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to prepare placeholder password hash")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
	}
	return false
}
