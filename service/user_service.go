package service

import (
	"context"
	"database/sql"
	"errors"
	"go-session-api/logger"
	"go-session-api/model"
	"go-session-api/repository"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const minBanReasonLength = 20

type IUserService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	CreateUser(ctx context.Context, req model.RegisterRequest) (*model.UserView, error)
	ListUsers(ctx context.Context, q model.UserQuery) (*model.Paginated[model.UserView], error)
	BanUser(ctx context.Context, userID int, req model.BanUserRequest) error
	Me(ctx context.Context, userID int) (*model.MeView, error)
}

// UserService handles user-related business logic.
type UserService struct {
	userRepo   repository.IUserRepository
	deviceRepo repository.IDeviceRepository
	passwords  *AuthService
	cache      ICacheClient

	now func() time.Time
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(userRepo repository.IUserRepository, deviceRepo repository.IDeviceRepository, passwords *AuthService, cache ICacheClient) *UserService {
	return &UserService{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		passwords:  passwords,
		cache:      cache,
		now:        time.Now,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *UserService) create(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Login:        req.Login,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storageErr("create user", err)
	}
	logger.Log.WithField("user_id", user.ID).Info("User created")
	return user, nil
}

// Register is the public sign-up.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := s.create(ctx, req)
	return err
}

// CreateUser is the admin variant of Register and returns the created user.
func (s *UserService) CreateUser(ctx context.Context, req model.RegisterRequest) (*model.UserView, error) {
	user, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}
	view := user.View()
	return &view, nil
}

func (s *UserService) ListUsers(ctx context.Context, q model.UserQuery) (*model.Paginated[model.UserView], error) {
	q = q.Normalize()
	users, total, err := s.userRepo.FindAllUsers(ctx, q)
	if err != nil {
		return nil, storageErr("list users", err)
	}

	items := make([]model.UserView, 0, len(users))
	for _, u := range users {
		items = append(items, u.View())
	}
	return &model.Paginated[model.UserView]{
		PagesCount: (total + q.PageSize - 1) / q.PageSize,
		Page:       q.PageNumber,
		PageSize:   q.PageSize,
		TotalCount: total,
		Items:      items,
	}, nil
}

// BanUser sets or lifts a ban. Banning also ends every session of the user.
func (s *UserService) BanUser(ctx context.Context, userID int, req model.BanUserRequest) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":   userID,
		"is_banned": req.IsBanned,
	})

	ban := model.BanInfo{IsBanned: req.IsBanned}
	if req.IsBanned {
		if len(req.BanReason) < minBanReasonLength {
			return ErrInvalidBanReason
		}
		now := s.now().UTC()
		reason := req.BanReason
		ban.BanDate = &now
		ban.BanReason = &reason
	}

	if err := s.userRepo.UpdateBanInfo(ctx, userID, ban); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return storageErr("update ban info", err)
	}

	if req.IsBanned {
		n, err := s.deviceRepo.DeleteAllByUserID(ctx, userID)
		if err != nil {
			return storageErr("delete devices", err)
		}
		if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
			return storageErr("clear refresh token", err)
		}
		invalidateDevices(ctx, s.cache, userID)
		log = log.WithField("revoked_devices", n)
	}

	log.Info("User ban info updated")
	return nil
}

func (s *UserService) Me(ctx context.Context, userID int) (*model.MeView, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("get user", err)
	}
	return &model.MeView{
		UserID: user.View().ID,
		Login:  user.Login,
		Email:  user.Email,
	}, nil
}
