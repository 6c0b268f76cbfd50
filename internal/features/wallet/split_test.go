package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
)

func TestComputeSplit_Auto(t *testing.T) {
	tests := []struct {
		name        string
		balance     float64
		credits     float64
		amount      float64
		wantCredits float64
		wantBalance float64
		wantErr     error
	}{
		{
			// Кредитов нет — вся сумма с баланса
			name:    "only balance",
			balance: 10, credits: 0, amount: 6,
			wantCredits: 0, wantBalance: 6,
		},
		{
			// Кредиты тратятся первыми, остаток с баланса
			name:    "credits first",
			balance: 10, credits: 4, amount: 6,
			wantCredits: 4, wantBalance: 2,
		},
		{
			// Кредитов хватает целиком — баланс не трогаем
			name:    "credits cover all",
			balance: 10, credits: 8, amount: 6,
			wantCredits: 6, wantBalance: 0,
		},
		{
			// Суммарно не хватает
			name:    "insufficient funds",
			balance: 0, credits: 5, amount: 10,
			wantErr: common.ErrInsufficientFunds,
		},
		{
			// Ровно впритык
			name:    "exact total",
			balance: 3, credits: 2, amount: 5,
			wantCredits: 2, wantBalance: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, ub, err := ComputeSplit(tt.balance, tt.credits, tt.amount, PayAuto)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCredits, uc)
			require.Equal(t, tt.wantBalance, ub)
			require.Equal(t, tt.amount, uc+ub, "раскладка должна покрывать сумму целиком")
		})
	}
}

func TestComputeSplit_CreditsOnly(t *testing.T) {
	uc, ub, err := ComputeSplit(100, 5, 5, PayCredits)
	require.NoError(t, err)
	require.Equal(t, 5.0, uc)
	require.Equal(t, 0.0, ub)

	// Баланса полно, но кредитов не хватает — баланс не подстраховывает
	_, _, err = ComputeSplit(100, 3, 5, PayCredits)
	require.ErrorIs(t, err, common.ErrInsufficientCredits)
}

func TestComputeSplit_BalanceOnly(t *testing.T) {
	uc, ub, err := ComputeSplit(5, 100, 5, PayBalance)
	require.NoError(t, err)
	require.Equal(t, 0.0, uc)
	require.Equal(t, 5.0, ub)

	_, _, err = ComputeSplit(3, 100, 5, PayBalance)
	require.ErrorIs(t, err, common.ErrInsufficientBalance)
}
