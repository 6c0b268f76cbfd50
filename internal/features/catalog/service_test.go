package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
)

func TestFilterPayloads(t *testing.T) {
	in := []string{
		"user1:pass1",
		"",
		"   ",
		"\tuser2:pass2  ",
		"\n",
		"user3:pass3",
	}
	out := FilterPayloads(in)
	require.Equal(t, []string{"user1:pass1", "user2:pass2", "user3:pass3"}, out)

	require.Empty(t, FilterPayloads([]string{"", "  ", "\t"}))
	require.Empty(t, FilterPayloads(nil))
}

// fakeCatalogStore — минимальный склад в памяти для проверки сервиса.
type fakeCatalogStore struct {
	Store // паникует на невызываемых методах

	payloads  []string
	reserved  map[int64]int64 // unitID → buyerID
	available []*StockUnit
}

func (f *fakeCatalogStore) AddStock(ctx context.Context, productID int64, payloads []string) (int, error) {
	f.payloads = append(f.payloads, payloads...)
	return len(payloads), nil
}

func (f *fakeCatalogStore) ReserveStock(ctx context.Context, productID int64, quantity int, buyerID int64) ([]*StockUnit, error) {
	if f.reserved == nil {
		f.reserved = make(map[int64]int64)
	}
	var out []*StockUnit
	for _, u := range f.available {
		if len(out) == quantity {
			break
		}
		if _, taken := f.reserved[u.ID]; taken {
			continue
		}
		f.reserved[u.ID] = buyerID
		out = append(out, u)
	}
	return out, nil
}

func TestService_AddStockSkipsBlank(t *testing.T) {
	store := &fakeCatalogStore{}
	svc := NewService(store)

	added, err := svc.AddStock(context.Background(), 1, []string{"a:1", "", "  ", "b:2"})
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, []string{"a:1", "b:2"}, store.payloads)

	// Только пустые строки — хранилище не трогаем
	added, err = svc.AddStock(context.Background(), 1, []string{"", "  "})
	require.NoError(t, err)
	require.Equal(t, 0, added)
	require.Len(t, store.payloads, 2)
}

func TestService_ReserveStockShort(t *testing.T) {
	store := &fakeCatalogStore{
		available: []*StockUnit{
			{ID: 1, ProductID: 7, Payload: "a"},
			{ID: 2, ProductID: 7, Payload: "b"},
			{ID: 3, ProductID: 7, Payload: "c"},
		},
	}
	svc := NewService(store)
	ctx := context.Background()

	// Два покупателя просят по 2 позиции из 3 доступных:
	// выданные наборы не пересекаются, всего не больше 3
	first, err := svc.ReserveStock(ctx, 7, 2, 100)
	require.NoError(t, err)
	second, err := svc.ReserveStock(ctx, 7, 2, 200)
	require.NoError(t, err)

	require.Len(t, first, 2)
	require.Len(t, second, 1) // неполная резервация — валидный исход

	seen := map[int64]bool{}
	for _, u := range append(first, second...) {
		require.False(t, seen[u.ID], "позиция выдана дважды")
		seen[u.ID] = true
	}

	// Склад пуст — пустой результат, не ошибка
	third, err := svc.ReserveStock(ctx, 7, 1, 300)
	require.NoError(t, err)
	require.Empty(t, third)

	// Нулевое количество не ходит в хранилище
	none, err := svc.ReserveStock(ctx, 7, 0, 300)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestProduct_PriceFor(t *testing.T) {
	creditsPrice := 8.0
	p := &Product{Price: 10, CreditsPrice: &creditsPrice}

	require.Equal(t, 10.0, p.PriceFor("balance"))
	require.Equal(t, 8.0, p.PriceFor("credits"))

	// Без отдельной цены в кредитах действует обычная
	p.CreditsPrice = nil
	require.Equal(t, 10.0, p.PriceFor("credits"))
}

func TestService_CreateProductValidation(t *testing.T) {
	svc := NewService(&fakeCatalogStore{})
	_, err := svc.CreateProduct(context.Background(), "x", 0, "", nil, false)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}
