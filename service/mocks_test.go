// file: service/mocks_test.go

package service

import (
	"context"
	"database/sql"
	"go-session-api/model"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// testClock is a settable time source shared by the token service and the
// fake device store.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// --- testify mocks ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByLoginOrEmail(ctx context.Context, loginOrEmail string) (*model.User, error) {
	args := m.Called(ctx, loginOrEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, userID int, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateBanInfo(ctx context.Context, userID int, ban model.BanInfo) error {
	args := m.Called(ctx, userID, ban)
	return args.Error(0)
}

func (m *mockUserRepo) FindAllUsers(ctx context.Context, q model.UserQuery) ([]*model.User, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.User), args.Int(1), args.Error(2)
}

type mockDeviceRepo struct{ mock.Mock }

func (m *mockDeviceRepo) FindByID(ctx context.Context, deviceID string) (*model.Device, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Device), args.Error(1)
}

func (m *mockDeviceRepo) FindAllByUserID(ctx context.Context, userID int) ([]*model.Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Device), args.Error(1)
}

func (m *mockDeviceRepo) Create(ctx context.Context, userID int, ip, title string) (*model.Device, error) {
	args := m.Called(ctx, userID, ip, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Device), args.Error(1)
}

func (m *mockDeviceRepo) UpdateLastActiveDate(ctx context.Context, deviceID string, expected time.Time) (time.Time, error) {
	args := m.Called(ctx, deviceID, expected)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockDeviceRepo) RestoreLastActiveDate(ctx context.Context, deviceID string, current, previous time.Time) (bool, error) {
	args := m.Called(ctx, deviceID, current, previous)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRepo) DeleteByID(ctx context.Context, deviceID string, userID int) (bool, error) {
	args := m.Called(ctx, deviceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRepo) DeleteSession(ctx context.Context, deviceID string, userID int, lastActiveDate time.Time) (bool, error) {
	args := m.Called(ctx, deviceID, userID, lastActiveDate)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeviceRepo) DeleteAllExcept(ctx context.Context, userID int, deviceID string) (int64, error) {
	args := m.Called(ctx, userID, deviceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDeviceRepo) DeleteAllByUserID(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockCache) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

// --- in-memory stores for multi-step session scenarios ---

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: map[int]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == user.Login || u.Email == user.Email {
			return &pq.Error{Code: "23505"}
		}
	}
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.nextID++
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByLoginOrEmail(_ context.Context, loginOrEmail string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Login == loginOrEmail || u.Email == loginOrEmail {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, userID int, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshToken = refreshToken
	return nil
}

func (r *fakeUserRepo) UpdateBanInfo(_ context.Context, userID int, ban model.BanInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.BanInfo = ban
	return nil
}

func (r *fakeUserRepo) FindAllUsers(_ context.Context, _ model.UserQuery) ([]*model.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, len(users), nil
}

// fakeDeviceRepo mirrors the compare-and-swap semantics of DeviceRepository.
type fakeDeviceRepo struct {
	mu      sync.Mutex
	now     func() time.Time
	devices map[string]*model.Device
}

func newFakeDeviceRepo(now func() time.Time) *fakeDeviceRepo {
	return &fakeDeviceRepo{now: now, devices: map[string]*model.Device{}}
}

func (r *fakeDeviceRepo) FindByID(_ context.Context, deviceID string) (*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeviceRepo) FindAllByUserID(_ context.Context, userID int) ([]*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	devices := []*model.Device{}
	for _, d := range r.devices {
		if d.UserID == userID {
			cp := *d
			devices = append(devices, &cp)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].DeviceID < devices[j].DeviceID })
	return devices, nil
}

func (r *fakeDeviceRepo) Create(_ context.Context, userID int, ip, title string) (*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := &model.Device{
		DeviceID:       uuid.NewString(),
		UserID:         userID,
		LastActiveDate: r.now().UTC().Truncate(time.Second),
		IP:             ip,
		Title:          title,
	}
	r.devices[d.DeviceID] = d
	cp := *d
	return &cp, nil
}

func (r *fakeDeviceRepo) UpdateLastActiveDate(_ context.Context, deviceID string, expected time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	expected = expected.UTC().Truncate(time.Second)
	if !ok || !d.LastActiveDate.Equal(expected) {
		return time.Time{}, sql.ErrNoRows
	}
	next := r.now().UTC().Truncate(time.Second)
	if !next.After(expected) {
		next = expected.Add(time.Second)
	}
	d.LastActiveDate = next
	return next, nil
}

func (r *fakeDeviceRepo) RestoreLastActiveDate(_ context.Context, deviceID string, current, previous time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok || !d.LastActiveDate.Equal(current.UTC().Truncate(time.Second)) {
		return false, nil
	}
	d.LastActiveDate = previous.UTC().Truncate(time.Second)
	return true, nil
}

func (r *fakeDeviceRepo) DeleteSession(_ context.Context, deviceID string, userID int, lastActiveDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok || d.UserID != userID || !d.LastActiveDate.Equal(lastActiveDate.UTC().Truncate(time.Second)) {
		return false, nil
	}
	delete(r.devices, deviceID)
	return true, nil
}

func (r *fakeDeviceRepo) DeleteByID(_ context.Context, deviceID string, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(r.devices, deviceID)
	return true, nil
}

func (r *fakeDeviceRepo) DeleteAllExcept(_ context.Context, userID int, deviceID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, d := range r.devices {
		if d.UserID == userID && id != deviceID {
			delete(r.devices, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeDeviceRepo) DeleteAllByUserID(_ context.Context, userID int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, d := range r.devices {
		if d.UserID == userID {
			delete(r.devices, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeDeviceRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}
