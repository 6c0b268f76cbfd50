package orders

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/wallet"
)

type fakeOrderStore struct {
	orders []*Order
}

func (f *fakeOrderStore) Create(_ context.Context, o *Order) (int64, error) {
	id := int64(len(f.orders) + 1)
	f.orders = append(f.orders, o)
	return id, nil
}

func (f *fakeOrderStore) UpdateStatus(_ context.Context, id int64, status string) error {
	f.orders[id-1].Status = status
	return nil
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int64) (*Order, error) {
	return f.orders[id-1], nil
}

func (f *fakeOrderStore) ListByUser(_ context.Context, userID int64, _ int) ([]*Order, error) {
	var list []*Order
	for _, o := range f.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

func (f *fakeOrderStore) Stats(context.Context) (*Stats, error) {
	return &Stats{Total: len(f.orders)}, nil
}

// fakeShop держит один товар и его склад.
type fakeShop struct {
	product *catalog.Product
	stock   []*catalog.StockUnit
}

func (f *fakeShop) GetProduct(_ context.Context, id int64) (*catalog.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, common.ErrProductNotFound
	}
	return f.product, nil
}

func (f *fakeShop) ReserveStock(_ context.Context, productID int64, quantity int, buyerID int64) ([]*catalog.StockUnit, error) {
	var got []*catalog.StockUnit
	for _, u := range f.stock {
		if len(got) == quantity {
			break
		}
		if u.ProductID == productID && !u.IsSold {
			u.IsSold = true
			u.BuyerID = &buyerID
			got = append(got, u)
		}
	}
	return got, nil
}

// fakePayer повторяет семантику кошелька на двух числах.
type fakePayer struct {
	balance float64
	credits float64
	refunds []float64
}

func (f *fakePayer) Purchase(_ context.Context, _ int64, amount float64, method string) (*wallet.PurchaseResult, error) {
	usedCredits, usedBalance, err := wallet.ComputeSplit(f.balance, f.credits, amount, method)
	if err != nil {
		return nil, err
	}
	f.balance -= usedBalance
	f.credits -= usedCredits
	return &wallet.PurchaseResult{UsedCredits: usedCredits, UsedBalance: usedBalance}, nil
}

func (f *fakePayer) Refund(_ context.Context, _ int64, amount float64, toWallet, _ string) error {
	if toWallet == wallet.PayCredits {
		f.credits += amount
	} else {
		f.balance += amount
	}
	f.refunds = append(f.refunds, amount)
	return nil
}

type fakeBonuses struct {
	calls []float64
	refs  []string
}

func (f *fakeBonuses) ProcessAutoEvents(_ context.Context, _ int64, _ string, amount float64, referenceID *string) []events.ClaimedBonus {
	f.calls = append(f.calls, amount)
	if referenceID != nil {
		f.refs = append(f.refs, *referenceID)
	}
	return []events.ClaimedBonus{{EventName: "Кэшбэк", Amount: 1}}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newShop(unitCount int) *fakeShop {
	shop := &fakeShop{
		product: &catalog.Product{ID: 1, Name: "VPN", Price: 2, IsActive: true},
	}
	for i := 0; i < unitCount; i++ {
		shop.stock = append(shop.stock, &catalog.StockUnit{
			ID: int64(i + 1), ProductID: 1, Payload: "acc" + string(rune('A'+i)),
		})
	}
	return shop
}

func TestPurchase_Exact(t *testing.T) {
	ctx := context.Background()
	store := &fakeOrderStore{}
	shop := newShop(3)
	payer := &fakePayer{balance: 10}
	bonuses := &fakeBonuses{}
	svc := NewService(store, shop, payer, bonuses, testLogger())

	res, err := svc.Purchase(ctx, 7, 1, 2, wallet.PayBalance, 7)
	require.NoError(t, err)

	assert.Equal(t, 6.0, payer.balance, "списано 2 единицы по 2")
	assert.False(t, res.Short())
	assert.Equal(t, []string{"accA", "accB"}, res.Payloads)
	assert.Equal(t, StatusCompleted, res.Order.Status)
	assert.Equal(t, 4.0, res.Order.TotalPrice)
	assert.Empty(t, payer.refunds)

	// Бонусы сработали от фактической суммы со ссылкой на заказ.
	require.Len(t, bonuses.calls, 1)
	assert.Equal(t, 4.0, bonuses.calls[0])
	assert.Equal(t, []string{"order:1"}, bonuses.refs)
	assert.Len(t, res.Bonuses, 1)
}

func TestPurchase_ShortRefundsDelta(t *testing.T) {
	ctx := context.Background()
	shop := newShop(3)
	payer := &fakePayer{balance: 20}
	bonuses := &fakeBonuses{}
	svc := NewService(&fakeOrderStore{}, shop, payer, bonuses, testLogger())

	res, err := svc.Purchase(ctx, 7, 1, 5, wallet.PayBalance, 7)
	require.NoError(t, err)

	// Списано 10 за 5 позиций, выдано 3, разница 4 вернулась.
	assert.True(t, res.Short())
	assert.Equal(t, 3, res.Fulfilled)
	assert.Equal(t, 6.0, res.Order.TotalPrice)
	assert.Equal(t, 14.0, payer.balance)
	assert.Equal(t, []float64{4}, payer.refunds)
	assert.Equal(t, []float64{6}, bonuses.calls, "бонус от фактической суммы")
}

func TestPurchase_OutOfStockFullRefund(t *testing.T) {
	ctx := context.Background()
	shop := newShop(0)
	payer := &fakePayer{balance: 10}
	bonuses := &fakeBonuses{}
	svc := NewService(&fakeOrderStore{}, shop, payer, bonuses, testLogger())

	_, err := svc.Purchase(ctx, 7, 1, 2, wallet.PayBalance, 7)
	assert.ErrorIs(t, err, common.ErrOutOfStock)
	assert.Equal(t, 10.0, payer.balance, "вся сумма вернулась")
	assert.Empty(t, bonuses.calls)
}

func TestPurchase_AutoSplitRefund(t *testing.T) {
	ctx := context.Background()
	shop := newShop(1)
	payer := &fakePayer{balance: 3, credits: 3}
	svc := NewService(&fakeOrderStore{}, shop, payer, &fakeBonuses{}, testLogger())

	// auto на 4 (2 позиции): кредиты 3 + баланс 1; выдана одна,
	// разница 2 возвращается сначала в баланс (1), остаток кредитами.
	res, err := svc.Purchase(ctx, 7, 1, 2, wallet.PayAuto, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Fulfilled)
	assert.Equal(t, 1.0, payer.balance)
	assert.Equal(t, 1.0, payer.credits)
}

func TestPurchase_Validation(t *testing.T) {
	ctx := context.Background()
	shop := newShop(3)
	payer := &fakePayer{balance: 10}
	svc := NewService(&fakeOrderStore{}, shop, payer, &fakeBonuses{}, testLogger())

	_, err := svc.Purchase(ctx, 7, 1, 0, wallet.PayBalance, 7)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = svc.Purchase(ctx, 7, 99, 1, wallet.PayBalance, 7)
	assert.ErrorIs(t, err, common.ErrProductNotFound)

	shop.product.IsActive = false
	_, err = svc.Purchase(ctx, 7, 1, 1, wallet.PayBalance, 7)
	assert.ErrorIs(t, err, common.ErrProductInactive)
	shop.product.IsActive = true

	// Кредитами платить нельзя, пока товар их не принимает.
	_, err = svc.Purchase(ctx, 7, 1, 1, wallet.PayCredits, 7)
	assert.ErrorIs(t, err, common.ErrCreditsNotAccepted)

	assert.Equal(t, 10.0, payer.balance, "ни одна попытка не тронула кошелёк")
}

func TestPurchase_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	shop := newShop(3)
	payer := &fakePayer{balance: 1}
	svc := NewService(&fakeOrderStore{}, shop, payer, &fakeBonuses{}, testLogger())

	_, err := svc.Purchase(ctx, 7, 1, 2, wallet.PayAuto, 7)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	for _, u := range shop.stock {
		assert.False(t, u.IsSold, "склад не резервировался")
	}
}
