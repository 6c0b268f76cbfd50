package referral

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
	"shop-bot/internal/features/users"
)

type fakeConfigStore struct {
	cfg *Config
}

func (f *fakeConfigStore) GetConfig(context.Context) (*Config, error) { return f.cfg, nil }

func (f *fakeConfigStore) UpdateConfig(_ context.Context, c *Config) error {
	f.cfg = c
	return nil
}

type fakeUsers struct {
	byID map[int64]*users.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByReferralCode(_ context.Context, code string) (*users.User, error) {
	for _, u := range f.byID {
		if strings.EqualFold(u.ReferralCode, code) {
			return u, nil
		}
	}
	return nil, common.ErrInvalidReferralCode
}

func (f *fakeUsers) SetReferrer(_ context.Context, userID, referrerID int64) (bool, error) {
	u, ok := f.byID[userID]
	if !ok {
		return false, common.ErrUserNotFound
	}
	if u.ReferredBy != nil {
		return false, nil
	}
	u.ReferredBy = &referrerID
	return true, nil
}

func (f *fakeUsers) ListReferrals(_ context.Context, referrerID int64) ([]*users.User, error) {
	var list []*users.User
	for _, u := range f.byID {
		if u.ReferredBy != nil && *u.ReferredBy == referrerID {
			list = append(list, u)
		}
	}
	return list, nil
}

// fakeWallet помнит начисления и суммарные пополнения по пользователям.
type fakeWallet struct {
	credits  map[int64]float64
	deposits map[int64]float64
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{credits: make(map[int64]float64), deposits: make(map[int64]float64)}
}

func (f *fakeWallet) AddCredits(_ context.Context, userID int64, amount float64, _, _ string) error {
	f.credits[userID] += amount
	return nil
}

func (f *fakeWallet) TotalDeposits(_ context.Context, userID int64) (float64, error) {
	return f.deposits[userID], nil
}

func (f *fakeWallet) TotalByType(_ context.Context, userID int64, _ string) (float64, error) {
	return f.credits[userID], nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func setup(cfg Config) (*Service, *fakeUsers, *fakeWallet) {
	dir := &fakeUsers{byID: map[int64]*users.User{
		100: {ID: 100, FirstName: "Анна", ReferralCode: "2SABC"},
		200: {ID: 200, FirstName: "Боб", ReferralCode: "5KXYZ"},
	}}
	w := newFakeWallet()
	svc := NewService(&fakeConfigStore{}, dir, w, cfg, "shop_bot", testLogger())
	return svc, dir, w
}

func TestProcessReferral(t *testing.T) {
	ctx := context.Background()
	svc, dir, w := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 5})

	referrer, err := svc.ProcessReferral(ctx, 200, "2sabc")
	require.NoError(t, err)
	assert.Equal(t, int64(100), referrer.ID)
	require.NotNil(t, dir.byID[200].ReferredBy)
	assert.Equal(t, int64(100), *dir.byID[200].ReferredBy)

	// Приглашённый получил свой бонус сразу, пригласивший ждёт порога.
	assert.Equal(t, 0.5, w.credits[200])
	assert.Zero(t, w.credits[100])
}

func TestProcessReferral_Errors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 5})

	_, err := svc.ProcessReferral(ctx, 200, "NOSUCH")
	assert.ErrorIs(t, err, common.ErrInvalidReferralCode)

	_, err = svc.ProcessReferral(ctx, 100, "2SABC")
	assert.ErrorIs(t, err, common.ErrSelfReferral)

	_, err = svc.ProcessReferral(ctx, 200, "2SABC")
	require.NoError(t, err)
	_, err = svc.ProcessReferral(ctx, 200, "2SABC")
	assert.ErrorIs(t, err, common.ErrAlreadyReferred)
}

func TestProcessReferral_ZeroThresholdPaysImmediately(t *testing.T) {
	ctx := context.Background()
	svc, _, w := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 0})

	_, err := svc.ProcessReferral(ctx, 200, "2SABC")
	require.NoError(t, err)
	assert.Equal(t, 1.0, w.credits[100])
	assert.Equal(t, 0.5, w.credits[200])

	// Последующие пополнения повторной выплаты не дают.
	w.deposits[200] = 50
	require.NoError(t, svc.ProcessReferrerBonus(ctx, 200, 50))
	assert.Equal(t, 1.0, w.credits[100])
}

func TestProcessReferrerBonus_ThresholdCrossing(t *testing.T) {
	ctx := context.Background()
	svc, _, w := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 5})

	_, err := svc.ProcessReferral(ctx, 200, "2SABC")
	require.NoError(t, err)
	w.credits[100] = 0 // обнуляем следы привязки для наглядности

	// Пополнение 3: само меньше порога, выплаты нет.
	w.deposits[200] = 3
	require.NoError(t, svc.ProcessReferrerBonus(ctx, 200, 3))
	assert.Zero(t, w.credits[100])

	// Пополнение 5: не меньше порога, а сумма до него (3) порога
	// не достигала — единственная выплата.
	w.deposits[200] = 8
	require.NoError(t, svc.ProcessReferrerBonus(ctx, 200, 5))
	assert.Equal(t, 1.0, w.credits[100])

	// Дальнейшие крупные пополнения порог уже не пересекают.
	w.deposits[200] = 28
	require.NoError(t, svc.ProcessReferrerBonus(ctx, 200, 20))
	assert.Equal(t, 1.0, w.credits[100])
}

func TestProcessReferrerBonus_NoReferrer(t *testing.T) {
	ctx := context.Background()
	svc, _, w := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 5})

	w.deposits[200] = 10
	require.NoError(t, svc.ProcessReferrerBonus(ctx, 200, 10))
	assert.Empty(t, w.credits)
}

func TestGetInfo(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(Config{ReferrerBonus: 1, RefereeBonus: 0.5, MinDepositForBonus: 5})

	_, err := svc.ProcessReferral(ctx, 200, "2SABC")
	require.NoError(t, err)

	info, err := svc.GetInfo(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "2SABC", info.Code)
	assert.Equal(t, "https://t.me/shop_bot?start=ref_2SABC", info.Link)
	assert.Equal(t, 1, info.Referrals)
	assert.Equal(t, 5.0, info.MinDeposit)
}

func TestUpdateConfig_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(Config{})

	err := svc.UpdateConfig(ctx, &Config{ReferrerBonus: -1})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	require.NoError(t, svc.UpdateConfig(ctx, &Config{ReferrerBonus: 2, RefereeBonus: 1, MinDepositForBonus: 10}))
	cfg, err := svc.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.ReferrerBonus)
}
