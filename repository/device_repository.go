// file: repository/device_repository.go

package repository

import (
	"context"
	"database/sql"
	"go-session-api/logger"
	"go-session-api/model"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IDeviceRepository defines the contract for device (session) storage.
type IDeviceRepository interface {
	FindByID(ctx context.Context, deviceID string) (*model.Device, error)
	FindAllByUserID(ctx context.Context, userID int) ([]*model.Device, error)
	Create(ctx context.Context, userID int, ip, title string) (*model.Device, error)
	UpdateLastActiveDate(ctx context.Context, deviceID string, expected time.Time) (time.Time, error)
	RestoreLastActiveDate(ctx context.Context, deviceID string, current, previous time.Time) (bool, error)
	DeleteByID(ctx context.Context, deviceID string, userID int) (bool, error)
	DeleteSession(ctx context.Context, deviceID string, userID int, lastActiveDate time.Time) (bool, error)
	DeleteAllExcept(ctx context.Context, userID int, deviceID string) (int64, error)
	DeleteAllByUserID(ctx context.Context, userID int) (int64, error)
}

// DeviceRepository implements IDeviceRepository on PostgreSQL.
type DeviceRepository struct {
	DB *sql.DB

	now   func() time.Time
	newID func() string
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{DB: db, now: time.Now, newID: uuid.NewString}
}

// fingerprint is the stored form of a timestamp: UTC, whole seconds, which
// is the precision of the JWT "iat" claim.
func fingerprint(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FindByID returns sql.ErrNoRows if the device does not exist.
func (r *DeviceRepository) FindByID(ctx context.Context, deviceID string) (*model.Device, error) {
	log := logger.Log.WithField("device_id", deviceID)
	log.Debug("Executing query to get device by ID")

	if _, err := uuid.Parse(deviceID); err != nil {
		return nil, sql.ErrNoRows
	}

	device := &model.Device{}
	query := `SELECT device_id, user_id, last_active_date, ip, title FROM devices WHERE device_id = $1`
	err := r.DB.QueryRowContext(ctx, query, deviceID).Scan(&device.DeviceID, &device.UserID, &device.LastActiveDate, &device.IP, &device.Title)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute get device by ID query")
		}
		return nil, err
	}
	device.LastActiveDate = device.LastActiveDate.UTC()
	return device, nil
}

func (r *DeviceRepository) FindAllByUserID(ctx context.Context, userID int) ([]*model.Device, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Debug("Executing query to get devices by user ID")

	query := `SELECT device_id, user_id, last_active_date, ip, title FROM devices WHERE user_id = $1 ORDER BY last_active_date DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for devices by user ID")
		return nil, err
	}
	defer rows.Close()

	devices := []*model.Device{}
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.DeviceID, &d.UserID, &d.LastActiveDate, &d.IP, &d.Title); err != nil {
			log.WithError(err).Error("Failed to scan device row")
			return nil, err
		}
		d.LastActiveDate = d.LastActiveDate.UTC()
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

// Create registers a new device with a fresh id and the current time as
// its fingerprint.
func (r *DeviceRepository) Create(ctx context.Context, userID int, ip, title string) (*model.Device, error) {
	device := &model.Device{
		DeviceID:       r.newID(),
		UserID:         userID,
		LastActiveDate: fingerprint(r.now()),
		IP:             ip,
		Title:          title,
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"device_id": device.DeviceID,
	})
	log.Info("Executing query to create a new device")

	query := `INSERT INTO devices (device_id, user_id, last_active_date, ip, title) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, device.DeviceID, device.UserID, device.LastActiveDate, device.IP, device.Title)
	if err != nil {
		log.WithError(err).Error("Failed to execute create device query")
		return nil, err
	}
	return device, nil
}

// UpdateLastActiveDate moves the fingerprint forward only if it still equals
// expected, and returns the new value. The new value is strictly later than
// expected even when both fall in the same second. sql.ErrNoRows means the
// device is gone or another request already rotated it.
func (r *DeviceRepository) UpdateLastActiveDate(ctx context.Context, deviceID string, expected time.Time) (time.Time, error) {
	expected = fingerprint(expected)
	next := fingerprint(r.now())
	if !next.After(expected) {
		next = expected.Add(time.Second)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"device_id": deviceID,
		"expected":  expected,
		"next":      next,
	})
	log.Debug("Executing conditional update of device last active date")

	var updated time.Time
	query := `UPDATE devices SET last_active_date = $3 WHERE device_id = $1 AND last_active_date = $2 RETURNING last_active_date`
	err := r.DB.QueryRowContext(ctx, query, deviceID, expected, next).Scan(&updated)
	if err != nil {
		if err != sql.ErrNoRows {
			log.WithError(err).Error("Failed to execute update device last active date query")
		}
		return time.Time{}, err
	}
	return updated.UTC(), nil
}

// RestoreLastActiveDate moves the fingerprint back to previous if it still
// equals current. It undoes a rotation whose tokens never reached the client.
func (r *DeviceRepository) RestoreLastActiveDate(ctx context.Context, deviceID string, current, previous time.Time) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"device_id": deviceID,
		"current":   current,
		"previous":  previous,
	})
	log.Warn("Executing query to restore device last active date")

	query := `UPDATE devices SET last_active_date = $3 WHERE device_id = $1 AND last_active_date = $2`
	res, err := r.DB.ExecContext(ctx, query, deviceID, fingerprint(current), fingerprint(previous))
	if err != nil {
		log.WithError(err).Error("Failed to execute restore device last active date query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByID deletes the device only when it belongs to userID.
func (r *DeviceRepository) DeleteByID(ctx context.Context, deviceID string, userID int) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"device_id": deviceID,
		"user_id":   userID,
	})
	log.Info("Executing query to delete a device")

	query := `DELETE FROM devices WHERE device_id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, deviceID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete device query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteSession deletes the device only while its fingerprint still equals
// lastActiveDate, so a token rotated away concurrently cannot remove it.
func (r *DeviceRepository) DeleteSession(ctx context.Context, deviceID string, userID int, lastActiveDate time.Time) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"device_id": deviceID,
		"user_id":   userID,
	})
	log.Info("Executing query to delete a device session")

	query := `DELETE FROM devices WHERE device_id = $1 AND user_id = $2 AND last_active_date = $3`
	res, err := r.DB.ExecContext(ctx, query, deviceID, userID, fingerprint(lastActiveDate))
	if err != nil {
		log.WithError(err).Error("Failed to execute delete device session query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *DeviceRepository) DeleteAllExcept(ctx context.Context, userID int, deviceID string) (int64, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        userID,
		"kept_device_id": deviceID,
	})
	log.Info("Executing query to delete all other devices of a user")

	query := `DELETE FROM devices WHERE user_id = $1 AND device_id <> $2`
	res, err := r.DB.ExecContext(ctx, query, userID, deviceID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete other devices query")
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAllByUserID drops every session of a user. Used when banning.
func (r *DeviceRepository) DeleteAllByUserID(ctx context.Context, userID int) (int64, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to delete all devices of a user")

	query := `DELETE FROM devices WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete devices query")
		return 0, err
	}
	return res.RowsAffected()
}
