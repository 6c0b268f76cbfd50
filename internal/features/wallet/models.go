// Package wallet — единственный модуль, которому разрешено менять
// баланс и кредиты пользователей. models.go описывает структуры
// кошелька и журнала транзакций.
package wallet

import "time"

// Типы транзакций.
const (
	TxTypeDeposit  = "deposit"   // Пополнение через платёжный шлюз
	TxTypePurchase = "purchase"  // Покупка (сумма отрицательная)
	TxTypeReferral = "referral"  // Реферальный бонус
	TxTypeAdminAdd = "admin_add" // Начисление админом
	TxTypeRefund   = "refund"    // Возврат средств
	TxTypeEvent    = "event"     // Бонус события/промокода
)

// Валюты журнала.
const (
	CurrencyUSDT    = "USDT"
	CurrencyCredits = "CREDITS"
)

// Способы оплаты покупки.
const (
	PayCredits = "credits" // только кредиты
	PayBalance = "balance" // только баланс
	PayAuto    = "auto"    // сначала кредиты, остаток с баланса
)

// Wallet — снимок кошелька пользователя.
type Wallet struct {
	Balance      float64 // Основной баланс
	Credits      float64 // Бонусные кредиты
	Total        float64 // Balance + Credits
	BalanceSpent float64 // Всего потрачено с баланса
	CreditsSpent float64 // Всего потрачено кредитов
}

// Transaction — одна запись журнала. Журнал только дописывается,
// записи никогда не изменяются — это аудиторский след.
type Transaction struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Type          string    `db:"type"`           // deposit/purchase/referral/admin_add/refund/event
	Amount        float64   `db:"amount"`         // Со знаком: покупки отрицательные
	Currency      string    `db:"currency"`       // USDT или CREDITS
	PaymentMethod *string   `db:"payment_method"` // binance/bank для депозитов
	ReferenceID   *string   `db:"reference_id"`   // Ссылка на источник (order:N, deposit:N)
	Status        string    `db:"status"`
	Note          string    `db:"note"`
	CreatedAt     time.Time `db:"created_at"`
}

// PurchaseResult — итог списания за покупку: сколько ушло кредитами,
// сколько с баланса.
type PurchaseResult struct {
	UsedCredits float64
	UsedBalance float64
}
