package deposits

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
	"shop-bot/internal/features/events"
	"shop-bot/internal/payment"
)

type fakeDepositStore struct {
	deposits map[int64]*PendingDeposit
	nextID   int64
}

func newFakeDepositStore() *fakeDepositStore {
	return &fakeDepositStore{deposits: make(map[int64]*PendingDeposit), nextID: 1}
}

func (s *fakeDepositStore) Create(_ context.Context, d *PendingDeposit) (int64, error) {
	id := s.nextID
	s.nextID++
	cp := *d
	cp.ID = id
	s.deposits[id] = &cp
	return id, nil
}

func (s *fakeDepositStore) GetByCode(_ context.Context, code string) (*PendingDeposit, error) {
	for _, d := range s.deposits {
		if d.PaymentCode == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, common.ErrDepositNotFound
}

func (s *fakeDepositStore) GetByID(_ context.Context, id int64) (*PendingDeposit, error) {
	d, ok := s.deposits[id]
	if !ok {
		return nil, common.ErrDepositNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *fakeDepositStore) ListPending(_ context.Context) ([]*PendingDeposit, error) {
	var list []*PendingDeposit
	for _, d := range s.deposits {
		if d.Status == StatusPending {
			cp := *d
			list = append(list, &cp)
		}
	}
	return list, nil
}

func (s *fakeDepositStore) TransitionFromPending(_ context.Context, id int64, status string) (bool, error) {
	d, ok := s.deposits[id]
	if !ok || d.Status != StatusPending {
		return false, nil
	}
	d.Status = status
	return true, nil
}

// fakeGateway отвечает на проверки по заранее заданным кодам
// и считает обращения к провайдеру.
type fakeGateway struct {
	name       string
	currency   string
	configured bool
	paidCodes  map[string]bool
	checkCalls int
}

func (g *fakeGateway) Name() string       { return g.name }
func (g *fakeGateway) Currency() string   { return g.currency }
func (g *fakeGateway) IsConfigured() bool { return g.configured }

func (g *fakeGateway) CheckPayment(_ context.Context, code string, amount float64) *payment.MatchedPayment {
	g.checkCalls++
	if g.paidCodes[code] {
		return &payment.MatchedPayment{Reference: "tx-1", Amount: amount, Currency: g.currency}
	}
	return nil
}

func (g *fakeGateway) Instructions(amount float64, code string) payment.Instructions {
	return payment.Instructions{Method: g.name, Amount: amount, Currency: g.currency, Code: code}
}

type fakeWalletDeposit struct {
	credited map[int64]float64
	calls    int
}

func (f *fakeWalletDeposit) Deposit(_ context.Context, userID int64, amount float64, _, _ string) error {
	if f.credited == nil {
		f.credited = make(map[int64]float64)
	}
	f.credited[userID] += amount
	f.calls++
	return nil
}

type fakeReferralBonus struct {
	calls []float64
}

func (f *fakeReferralBonus) ProcessReferrerBonus(_ context.Context, _ int64, amount float64) error {
	f.calls = append(f.calls, amount)
	return nil
}

type fakeDepositBonuses struct {
	refs []string
}

func (f *fakeDepositBonuses) ProcessAutoEvents(_ context.Context, _ int64, _ string, _ float64, ref *string) []events.ClaimedBonus {
	if ref != nil {
		f.refs = append(f.refs, *ref)
	}
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Notify(_ int64, text string) { f.sent = append(f.sent, text) }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type fixture struct {
	svc      *Service
	store    *fakeDepositStore
	binance  *fakeGateway
	bank     *fakeGateway
	wallet   *fakeWalletDeposit
	referral *fakeReferralBonus
	bonuses  *fakeDepositBonuses
	notifier *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		store:    newFakeDepositStore(),
		binance:  &fakeGateway{name: payment.MethodBinance, currency: "USDT", configured: true, paidCodes: map[string]bool{}},
		bank:     &fakeGateway{name: payment.MethodBank, currency: "VND", configured: true, paidCodes: map[string]bool{}},
		wallet:   &fakeWalletDeposit{},
		referral: &fakeReferralBonus{},
		bonuses:  &fakeDepositBonuses{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewService(f.store, []payment.Gateway{f.binance, f.bank},
		f.wallet, f.referral, f.bonuses, f.notifier, 25000, 15*time.Minute, testLogger())
	return f
}

func TestCreateDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)
	assert.Len(t, created.Deposit.PaymentCode, 8)
	assert.Equal(t, "USDT", created.Deposit.Currency)
	assert.Equal(t, StatusPending, created.Deposit.Status)
	assert.Equal(t, created.Deposit.PaymentCode, created.Instructions.Code)

	_, err = f.svc.CreateDeposit(ctx, 7, 0, payment.MethodBinance, 700)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	f.bank.configured = false
	_, err = f.svc.CreateDeposit(ctx, 7, 100000, payment.MethodBank, 700)
	assert.ErrorIs(t, err, common.ErrGatewayNotConfigured)
}

func TestCheckDeposit_ExpiredWithoutGatewayCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)
	f.store.deposits[created.Deposit.ID].ExpiresAt = time.Now().Add(-time.Second)

	res, err := f.svc.CheckDeposit(ctx, created.Deposit.PaymentCode)
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, StatusExpired, res.Deposit.Status)
	assert.Zero(t, f.binance.checkCalls, "провайдер не опрашивался")
	assert.Zero(t, f.wallet.calls)
}

func TestCheckDeposit_ConfirmOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)
	f.binance.paidCodes[created.Deposit.PaymentCode] = true

	res, err := f.svc.CheckDeposit(ctx, created.Deposit.PaymentCode)
	require.NoError(t, err)
	assert.True(t, res.Confirmed)
	assert.Equal(t, 10.0, res.Credited)
	assert.Equal(t, 10.0, f.wallet.credited[7])
	assert.Equal(t, []float64{10}, f.referral.calls)
	assert.Equal(t, []string{"deposit:1"}, f.bonuses.refs)

	// Повторная проверка видит закрытую заявку и ничего не зачисляет.
	res, err = f.svc.CheckDeposit(ctx, created.Deposit.PaymentCode)
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, 1, f.wallet.calls)
	assert.Len(t, f.referral.calls, 1)
}

func TestCheckDeposit_BankConvertsVND(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 250000, payment.MethodBank, 700)
	require.NoError(t, err)
	f.bank.paidCodes[created.Deposit.PaymentCode] = true

	res, err := f.svc.CheckDeposit(ctx, created.Deposit.PaymentCode)
	require.NoError(t, err)
	require.True(t, res.Confirmed)
	assert.Equal(t, 10.0, res.Credited, "250000 VND по курсу 25000")
	assert.Equal(t, 10.0, f.wallet.credited[7])
	assert.Equal(t, []float64{10}, f.referral.calls, "рефералка видит сумму после конвертации")
}

func TestCheckPendingDeposits_Sweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	paid, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)
	unpaid, err := f.svc.CreateDeposit(ctx, 8, 5, payment.MethodBinance, 800)
	require.NoError(t, err)
	expired, err := f.svc.CreateDeposit(ctx, 9, 3, payment.MethodBinance, 900)
	require.NoError(t, err)

	f.binance.paidCodes[paid.Deposit.PaymentCode] = true
	f.store.deposits[expired.Deposit.ID].ExpiresAt = time.Now().Add(-time.Minute)

	confirmed := f.svc.CheckPendingDeposits(ctx)
	require.Len(t, confirmed, 1)
	assert.Equal(t, paid.Deposit.ID, confirmed[0].Deposit.ID)
	assert.Equal(t, 10.0, f.wallet.credited[7])
	assert.Len(t, f.notifier.sent, 1)
	assert.Contains(t, f.notifier.sent[0], "Deposit confirmed")

	assert.Equal(t, StatusExpired, f.store.deposits[expired.Deposit.ID].Status)
	assert.Equal(t, StatusPending, f.store.deposits[unpaid.Deposit.ID].Status)

	// Следующий проход не зачисляет подтверждённое повторно.
	confirmed = f.svc.CheckPendingDeposits(ctx)
	assert.Empty(t, confirmed)
	assert.Equal(t, 1, f.wallet.calls)
}

func TestCheckDeposit_LosesRaceToSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)
	f.binance.paidCodes[created.Deposit.PaymentCode] = true

	// Фоновая сверка успела первой.
	require.Len(t, f.svc.CheckPendingDeposits(ctx), 1)

	res, err := f.svc.CheckDeposit(ctx, created.Deposit.PaymentCode)
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, 1, f.wallet.calls, "двойного зачисления нет")
}

func TestCancelDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.svc.CreateDeposit(ctx, 7, 10, payment.MethodBinance, 700)
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelDeposit(ctx, created.Deposit.PaymentCode))
	assert.Equal(t, StatusCancelled, f.store.deposits[created.Deposit.ID].Status)

	err = f.svc.CancelDeposit(ctx, created.Deposit.PaymentCode)
	assert.ErrorIs(t, err, common.ErrDepositNotPending)

	err = f.svc.CancelDeposit(ctx, "NOSUCH")
	assert.ErrorIs(t, err, common.ErrDepositNotFound)
}

func TestAvailableMethods(t *testing.T) {
	f := newFixture()
	methods := f.svc.AvailableMethods()
	require.Len(t, methods, 2)

	f.binance.configured = false
	methods = f.svc.AvailableMethods()
	require.Len(t, methods, 1)
	assert.Equal(t, payment.MethodBank, methods[0].ID)
}
