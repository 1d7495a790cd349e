// service/user_service_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"go-session-api/model"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(users *mockUserRepo, devices *mockDeviceRepo, cache ICacheClient) *UserService {
	return NewUserService(users, devices, NewAuthService(bcrypt.MinCost), cache)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	req := model.RegisterRequest{Login: "alice", Email: "alice@example.com", Password: "secret1"}

	t.Run("success", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Login == "alice" && u.Email == "alice@example.com" &&
				bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
		})).Return(nil).Once()

		err := newTestUserService(users, nil, nil).Register(ctx, req)

		assert.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("duplicate login or email", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("CreateUser", mock.Anything, mock.Anything).Return(&pq.Error{Code: "23505"}).Once()

		err := newTestUserService(users, nil, nil).Register(ctx, req)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("repository error", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("CreateUser", mock.Anything, mock.Anything).Return(errors.New("database error")).Once()

		err := newTestUserService(users, nil, nil).Register(ctx, req)
		assert.ErrorIs(t, err, ErrStorage)
	})
}

func TestUserService_CreateUser(t *testing.T) {
	users := new(mockUserRepo)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	users.On("CreateUser", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		u := args.Get(1).(*model.User)
		u.ID = 7
		u.CreatedAt = createdAt
	}).Return(nil).Once()

	view, err := newTestUserService(users, nil, nil).CreateUser(context.Background(),
		model.RegisterRequest{Login: "bob", Email: "bob@example.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "7", view.ID)
	assert.Equal(t, "bob", view.Login)
	assert.Equal(t, createdAt, view.CreatedAt)
	assert.False(t, view.BanInfo.IsBanned)
}

func TestUserService_ListUsers(t *testing.T) {
	users := new(mockUserRepo)
	q := model.UserQuery{PageNumber: 2, PageSize: 5}
	found := []*model.User{{ID: 6, Login: "u6"}, {ID: 7, Login: "u7"}}
	users.On("FindAllUsers", mock.Anything, q.Normalize()).Return(found, 12, nil).Once()

	page, err := newTestUserService(users, nil, nil).ListUsers(context.Background(), q)

	require.NoError(t, err)
	assert.Equal(t, 3, page.PagesCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
	assert.Equal(t, 12, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "6", page.Items[0].ID)
	users.AssertExpectations(t)
}

func TestUserService_BanUser(t *testing.T) {
	ctx := context.Background()
	reason := "spamming in every single comment"
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)

	t.Run("ban ends every session", func(t *testing.T) {
		users := new(mockUserRepo)
		devices := new(mockDeviceRepo)
		cache := new(mockCache)
		users.On("UpdateBanInfo", mock.Anything, 5, mock.MatchedBy(func(b model.BanInfo) bool {
			return b.IsBanned && b.BanReason != nil && *b.BanReason == reason &&
				b.BanDate != nil && b.BanDate.Equal(now)
		})).Return(nil).Once()
		devices.On("DeleteAllByUserID", mock.Anything, 5).Return(int64(3), nil).Once()
		users.On("UpdateRefreshToken", mock.Anything, 5, "").Return(nil).Once()
		cache.On("Del", mock.Anything, []string{"devices:5"}).Return(redis.NewIntResult(1, nil)).Once()

		s := newTestUserService(users, devices, cache)
		s.now = func() time.Time { return now }
		err := s.BanUser(ctx, 5, model.BanUserRequest{IsBanned: true, BanReason: reason})

		assert.NoError(t, err)
		users.AssertExpectations(t)
		devices.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unban clears ban info", func(t *testing.T) {
		users := new(mockUserRepo)
		devices := new(mockDeviceRepo)
		users.On("UpdateBanInfo", mock.Anything, 5, model.BanInfo{}).Return(nil).Once()

		err := newTestUserService(users, devices, nil).BanUser(ctx, 5, model.BanUserRequest{IsBanned: false})

		assert.NoError(t, err)
		users.AssertExpectations(t)
		devices.AssertNotCalled(t, "DeleteAllByUserID", mock.Anything, mock.Anything)
	})

	t.Run("short reason", func(t *testing.T) {
		users := new(mockUserRepo)
		err := newTestUserService(users, nil, nil).BanUser(ctx, 5, model.BanUserRequest{IsBanned: true, BanReason: "too short"})

		assert.ErrorIs(t, err, ErrInvalidBanReason)
		users.AssertNotCalled(t, "UpdateBanInfo", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("UpdateBanInfo", mock.Anything, 9, mock.Anything).Return(sql.ErrNoRows).Once()

		err := newTestUserService(users, nil, nil).BanUser(ctx, 9, model.BanUserRequest{IsBanned: true, BanReason: reason})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_Me(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", mock.Anything, 3).Return(&model.User{ID: 3, Login: "carol", Email: "carol@example.com"}, nil).Once()

		me, err := newTestUserService(users, nil, nil).Me(ctx, 3)

		require.NoError(t, err)
		assert.Equal(t, &model.MeView{UserID: "3", Login: "carol", Email: "carol@example.com"}, me)
	})

	t.Run("not found", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("GetUserByID", mock.Anything, 3).Return(nil, sql.ErrNoRows).Once()

		_, err := newTestUserService(users, nil, nil).Me(ctx, 3)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
