package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid login or password")
	ErrTokenInvalid        = errors.New("token is invalid or expired")
	ErrFingerprintMismatch = errors.New("refresh token is no longer valid for this device")
	ErrDeviceNotFound      = errors.New("device not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrForbidden           = errors.New("device belongs to another user")
	ErrUserAlreadyExists   = errors.New("user with this login or email already exists")
	ErrInvalidBanReason    = errors.New("ban reason must be at least 20 characters")
	ErrStorage             = errors.New("storage failure")
)

// storageErr wraps a low-level failure so callers only ever see ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
