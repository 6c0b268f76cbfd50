package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/orders"
)

type fakeSessionStore struct {
	sessions map[int64]*Session
	attempts map[int64]int // неудачные попытки
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[int64]*Session{}, attempts: map[int64]int{}}
}

func (s *fakeSessionStore) CreateSession(_ context.Context, session *Session) error {
	s.sessions[session.UserID] = session
	return nil
}

func (s *fakeSessionStore) GetActiveSession(_ context.Context, userID int64) (*Session, error) {
	sess, ok := s.sessions[userID]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, common.ErrNotAdmin
	}
	return sess, nil
}

func (s *fakeSessionStore) DeactivateSession(_ context.Context, userID int64) error {
	delete(s.sessions, userID)
	return nil
}

func (s *fakeSessionStore) UpdateActivity(context.Context, int64) error { return nil }

func (s *fakeSessionStore) LogAttempt(_ context.Context, userID int64, success bool) error {
	if !success {
		s.attempts[userID]++
	}
	return nil
}

func (s *fakeSessionStore) GetRecentAttempts(_ context.Context, userID int64, _ time.Duration) (int, error) {
	return s.attempts[userID], nil
}

func (s *fakeSessionStore) CountPendingDeposits(context.Context) (int, error) { return 2, nil }

type fakeCounters struct{}

func (fakeCounters) Count(context.Context) (int, error) { return 42, nil }
func (fakeCounters) Stats(context.Context) (*orders.Stats, error) {
	return &orders.Stats{Total: 10, TotalRevenue: 55, Today: 3}, nil
}
func (fakeCounters) StockStats(context.Context) (*catalog.StockStats, error) {
	return &catalog.StockStats{Total: 20, Available: 15, Sold: 5}, nil
}

func newAdminService(t *testing.T, store *fakeSessionStore) *Service {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	return NewService(store, fakeCounters{}, fakeCounters{}, fakeCounters{}, []int64{99}, hash)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	svc := newAdminService(t, store)

	err := svc.Login(ctx, 1, "s3cret")
	assert.ErrorIs(t, err, common.ErrNotAdmin, "чужим вход закрыт даже с верным паролем")

	err = svc.Login(ctx, 99, "wrong")
	assert.ErrorIs(t, err, common.ErrWrongPassword)
	assert.False(t, svc.HasActiveSession(ctx, 99))

	require.NoError(t, svc.Login(ctx, 99, "s3cret"))
	assert.True(t, svc.HasActiveSession(ctx, 99))

	require.NoError(t, svc.Logout(ctx, 99))
	assert.False(t, svc.HasActiveSession(ctx, 99))
}

func TestLogin_Lockout(t *testing.T) {
	ctx := context.Background()
	store := newFakeSessionStore()
	svc := newAdminService(t, store)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, svc.Login(ctx, 99, "wrong"), common.ErrWrongPassword)
	}

	// Четвёртая попытка блокируется до проверки пароля.
	err := svc.Login(ctx, 99, "s3cret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrWrongPassword)
	assert.False(t, svc.HasActiveSession(ctx, 99))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("пароль-123")
	require.NoError(t, err)
	assert.True(t, verifyPassword("пароль-123", hash))
	assert.False(t, verifyPassword("другой", hash))
	assert.False(t, verifyPassword("пароль-123", "не-хеш"))
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t, newFakeSessionStore())

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{
		Users: 42, Orders: 10, OrdersToday: 3, Revenue: 55,
		StockTotal: 20, StockAvailable: 15, StockSold: 5, PendingDeps: 2,
	}, d)
}
