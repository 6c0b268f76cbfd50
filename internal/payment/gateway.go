// Package payment содержит платёжные шлюзы для пополнения баланса.
// gateway.go описывает общий контракт: каждый шлюз умеет ответить,
// настроен ли он, пришёл ли платёж с заданным маркером и суммой,
// и как именно пользователю заплатить.
//
// Шлюзы только опрашивают историю провайдера — вебхуков нет.
// Любая ошибка провайдера гасится на границе шлюза и означает
// «платёж пока не найден», а не сбой сверки.
package payment

import "context"

// Методы оплаты — закрытое множество.
const (
	MethodBinance = "binance" // Binance Pay, USDT, точное совпадение суммы
	MethodBank    = "bank"    // банковский перевод через SePay, VND, сумма «не меньше»
)

// Gateway — контракт платёжного шлюза.
type Gateway interface {
	// Name возвращает идентификатор метода (MethodBinance / MethodBank).
	Name() string
	// Currency возвращает валюту, в которой принимает этот шлюз.
	Currency() string
	// IsConfigured сообщает, заданы ли учётные данные провайдера.
	IsConfigured() bool
	// CheckPayment ищет входящий платёж с маркером code на сумму amount.
	// Возвращает nil, если платёж не найден ИЛИ провайдер недоступен.
	CheckPayment(ctx context.Context, code string, amount float64) *MatchedPayment
	// Instructions возвращает данные для отображения: куда и как платить.
	Instructions(amount float64, code string) Instructions
}

// MatchedPayment — найденный входящий платёж провайдера.
type MatchedPayment struct {
	Reference string  // идентификатор транзакции у провайдера
	Amount    float64 // фактически поступившая сумма
	Currency  string
}

// Instructions — данные платёжной инструкции. Чистые данные без побочных
// эффектов: обработчик сам собирает из них сообщение.
type Instructions struct {
	Method   string
	Amount   float64
	Currency string
	// Code — маркер, который плательщик обязан указать в назначении платежа
	Code string
	// Binance
	BinanceID string
	// Банковские реквизиты
	BankName      string
	AccountNumber string
	AccountOwner  string
	// QRURL — ссылка на картинку с QR-кодом (только для банка)
	QRURL string
}
