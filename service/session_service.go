// file: service/session_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"go-session-api/logger"
	"go-session-api/model"
	"go-session-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

type LoginCommand struct {
	LoginOrEmail string
	Password     string
	IP           string
	Title        string
}

// RefreshCommand and LogoutCommand carry the verified content of the
// refresh token presented by the client.
type RefreshCommand struct {
	UserID   int
	DeviceID string
	IssuedAt time.Time
}

type LogoutCommand struct {
	UserID   int
	DeviceID string
	IssuedAt time.Time
}

// RevokeDeviceCommand deletes TargetDeviceID. DeviceID and IssuedAt come
// from the caller's refresh token.
type RevokeDeviceCommand struct {
	UserID         int
	DeviceID       string
	IssuedAt       time.Time
	TargetDeviceID string
}

// RevokeAllOtherDevicesCommand keeps DeviceID and deletes the rest.
type RevokeAllOtherDevicesCommand struct {
	UserID   int
	DeviceID string
	IssuedAt time.Time
}

type ListDevicesCommand struct {
	UserID   int
	DeviceID string
	IssuedAt time.Time
}

// ISessionService is the session life cycle exposed to the HTTP layer.
type ISessionService interface {
	Login(ctx context.Context, cmd LoginCommand) (*model.TokenPair, error)
	RefreshToken(ctx context.Context, cmd RefreshCommand) (*model.TokenPair, error)
	Logout(ctx context.Context, cmd LogoutCommand) error
	RevokeDevice(ctx context.Context, cmd RevokeDeviceCommand) error
	RevokeAllOtherDevices(ctx context.Context, cmd RevokeAllOtherDevicesCommand) error
	ListDevices(ctx context.Context, cmd ListDevicesCommand) ([]*model.Device, error)
}

// SessionService runs the device state machine:
// anonymous -> authenticated (login) -> refreshed* -> logged out.
type SessionService struct {
	users     repository.IUserRepository
	devices   repository.IDeviceRepository
	tokens    ITokenService
	passwords *AuthService

	cache    ICacheClient
	cacheTTL time.Duration
}

// NewSessionService wires the session use cases. cache may be nil.
func NewSessionService(users repository.IUserRepository, devices repository.IDeviceRepository, tokens ITokenService, passwords *AuthService, cache ICacheClient, cacheTTL time.Duration) *SessionService {
	return &SessionService{
		users:     users,
		devices:   devices,
		tokens:    tokens,
		passwords: passwords,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// issuePair signs an access/refresh pair bound to the device fingerprint and
// records the refresh token as the user's revocation marker.
func (s *SessionService) issuePair(ctx context.Context, userID int, deviceID string, fingerprint time.Time) (*model.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(userID, deviceID, fingerprint)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, storageErr("update refresh token", err)
	}
	return &model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *SessionService) Login(ctx context.Context, cmd LoginCommand) (*model.TokenPair, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"login_or_email": cmd.LoginOrEmail,
		"ip":             cmd.IP,
	})

	user, err := s.users.GetUserByLoginOrEmail(ctx, cmd.LoginOrEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.passwords.CheckPasswordNoUser(cmd.Password)
			log.Warn("Login rejected: unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, storageErr("get user", err)
	}
	if !s.passwords.CheckPasswordHash(cmd.Password, user.PasswordHash) {
		log.Warn("Login rejected: wrong password")
		return nil, ErrInvalidCredentials
	}
	if user.BanInfo.IsBanned {
		log.Warn("Login rejected: user is banned")
		return nil, ErrInvalidCredentials
	}

	device, err := s.devices.Create(ctx, user.ID, cmd.IP, cmd.Title)
	if err != nil {
		return nil, storageErr("create device", err)
	}
	invalidateDevices(ctx, s.cache, user.ID)

	pair, err := s.issuePair(ctx, user.ID, device.DeviceID, device.LastActiveDate)
	if err != nil {
		if _, delErr := s.devices.DeleteByID(ctx, device.DeviceID, user.ID); delErr != nil {
			log.WithError(delErr).Error("Failed to remove device after token issue failure")
		}
		invalidateDevices(ctx, s.cache, user.ID)
		return nil, err
	}

	log.WithField("device_id", device.DeviceID).Info("User logged in")
	return pair, nil
}

// loadOwnedDevice resolves the user and the device named by a refresh token
// and checks that the token still carries the device's current fingerprint.
func (s *SessionService) loadOwnedDevice(ctx context.Context, userID int, deviceID string, issuedAt time.Time) (*model.User, *model.Device, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, storageErr("get user", err)
	}

	device, err := s.devices.FindByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrDeviceNotFound
		}
		return nil, nil, storageErr("get device", err)
	}
	if device.UserID != user.ID {
		return nil, nil, ErrTokenInvalid
	}
	if !issuedAt.Equal(device.LastActiveDate) {
		return nil, nil, ErrFingerprintMismatch
	}
	return user, device, nil
}

// authenticate checks a refresh token presented to the device routes. A
// token whose device is gone is just an invalid token there.
func (s *SessionService) authenticate(ctx context.Context, userID int, deviceID string, issuedAt time.Time) (*model.User, error) {
	user, _, err := s.loadOwnedDevice(ctx, userID, deviceID, issuedAt)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if user.BanInfo.IsBanned {
		return nil, ErrTokenInvalid
	}
	return user, nil
}

// RefreshToken rotates the pair of a device. The fingerprint moves with a
// compare-and-swap, so of two concurrent refreshes with the same token only
// one succeeds.
func (s *SessionService) RefreshToken(ctx context.Context, cmd RefreshCommand) (*model.TokenPair, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":   cmd.UserID,
		"device_id": cmd.DeviceID,
	})

	user, device, err := s.loadOwnedDevice(ctx, cmd.UserID, cmd.DeviceID, cmd.IssuedAt)
	if err != nil {
		log.WithError(err).Warn("Refresh rejected")
		return nil, err
	}
	if user.BanInfo.IsBanned {
		return nil, ErrTokenInvalid
	}

	next, err := s.devices.UpdateLastActiveDate(ctx, device.DeviceID, device.LastActiveDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Refresh rejected: fingerprint moved concurrently")
			return nil, ErrFingerprintMismatch
		}
		return nil, storageErr("update device", err)
	}
	invalidateDevices(ctx, s.cache, user.ID)

	pair, err := s.issuePair(ctx, user.ID, device.DeviceID, next)
	if err != nil {
		// The client never sees the new pair, so give its token back.
		restored, restoreErr := s.devices.RestoreLastActiveDate(ctx, device.DeviceID, next, device.LastActiveDate)
		if restoreErr != nil || !restored {
			log.WithError(restoreErr).Error("Failed to restore device fingerprint after token issue failure")
		}
		invalidateDevices(ctx, s.cache, user.ID)
		return nil, err
	}
	return pair, nil
}

// Logout removes the device and clears the user's revocation marker. The
// delete is conditioned on the fingerprint, so a logout racing a refresh of
// the same token fails with ErrFingerprintMismatch.
func (s *SessionService) Logout(ctx context.Context, cmd LogoutCommand) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":   cmd.UserID,
		"device_id": cmd.DeviceID,
	})

	user, device, err := s.loadOwnedDevice(ctx, cmd.UserID, cmd.DeviceID, cmd.IssuedAt)
	if err != nil {
		log.WithError(err).Warn("Logout rejected")
		return err
	}

	deleted, err := s.devices.DeleteSession(ctx, device.DeviceID, user.ID, device.LastActiveDate)
	if err != nil {
		return storageErr("delete device", err)
	}
	if !deleted {
		log.Warn("Logout rejected: fingerprint moved concurrently")
		return ErrFingerprintMismatch
	}
	invalidateDevices(ctx, s.cache, user.ID)

	if err := s.users.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		return storageErr("clear refresh token", err)
	}

	log.Info("User logged out")
	return nil
}

// RevokeDevice deletes one device of the caller. The caller's own token must
// still be current; an unknown target is ErrDeviceNotFound.
func (s *SessionService) RevokeDevice(ctx context.Context, cmd RevokeDeviceCommand) error {
	if _, err := s.authenticate(ctx, cmd.UserID, cmd.DeviceID, cmd.IssuedAt); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":   cmd.UserID,
			"device_id": cmd.DeviceID,
		}).WithError(err).Warn("Device revoke rejected")
		return err
	}

	device, err := s.devices.FindByID(ctx, cmd.TargetDeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDeviceNotFound
		}
		return storageErr("get device", err)
	}
	if device.UserID != cmd.UserID {
		logger.Log.WithFields(logrus.Fields{
			"user_id":   cmd.UserID,
			"device_id": cmd.TargetDeviceID,
		}).Warn("Permission denied for deleting another user's device")
		return ErrForbidden
	}

	deleted, err := s.devices.DeleteByID(ctx, device.DeviceID, cmd.UserID)
	if err != nil {
		return storageErr("delete device", err)
	}
	if !deleted {
		return ErrDeviceNotFound
	}
	invalidateDevices(ctx, s.cache, cmd.UserID)
	return nil
}

func (s *SessionService) RevokeAllOtherDevices(ctx context.Context, cmd RevokeAllOtherDevicesCommand) error {
	if _, err := s.authenticate(ctx, cmd.UserID, cmd.DeviceID, cmd.IssuedAt); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":   cmd.UserID,
			"device_id": cmd.DeviceID,
		}).WithError(err).Warn("Revoke of other devices rejected")
		return err
	}

	n, err := s.devices.DeleteAllExcept(ctx, cmd.UserID, cmd.DeviceID)
	if err != nil {
		return storageErr("delete other devices", err)
	}
	invalidateDevices(ctx, s.cache, cmd.UserID)

	logger.Log.WithFields(logrus.Fields{
		"user_id":        cmd.UserID,
		"kept_device_id": cmd.DeviceID,
		"deleted":        n,
	}).Info("Other devices revoked")
	return nil
}

// ListDevices lists the caller's active devices, using a cache-aside
// strategy when a cache is configured. The token is checked against the
// database before the cache is consulted.
func (s *SessionService) ListDevices(ctx context.Context, cmd ListDevicesCommand) ([]*model.Device, error) {
	if _, err := s.authenticate(ctx, cmd.UserID, cmd.DeviceID, cmd.IssuedAt); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id":   cmd.UserID,
			"device_id": cmd.DeviceID,
		}).WithError(err).Warn("Device list rejected")
		return nil, err
	}

	userID := cmd.UserID
	key := devicesCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var devices []*model.Device
			if err := json.Unmarshal([]byte(cached), &devices); err == nil {
				return devices, nil
			}
		}
	}

	devices, err := s.devices.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr("list devices", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(devices); err == nil {
			s.cache.Set(ctx, key, data, s.cacheTTL)
		}
	}
	return devices, nil
}
