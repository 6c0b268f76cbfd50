// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях магазина.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки кошелька (баланс, кредиты)
var (
	// ErrInsufficientBalance — недостаточно средств на балансе
	ErrInsufficientBalance = errors.New("недостаточно средств на балансе")
	// ErrInsufficientCredits — недостаточно кредитов
	ErrInsufficientCredits = errors.New("недостаточно кредитов")
	// ErrInsufficientFunds — недостаточно средств (баланс + кредиты)
	ErrInsufficientFunds = errors.New("недостаточно средств и кредитов")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки каталога и склада
var (
	// ErrProductNotFound — товар не найден
	ErrProductNotFound = errors.New("товар не найден")
	// ErrProductInactive — товар снят с продажи
	ErrProductInactive = errors.New("товар снят с продажи")
	// ErrCreditsNotAccepted — товар нельзя купить за кредиты
	ErrCreditsNotAccepted = errors.New("этот товар нельзя купить за кредиты")
	// ErrOutOfStock — товар закончился
	ErrOutOfStock = errors.New("товар закончился")
	// ErrStockNotAvailable — позиция склада уже продана или не существует
	ErrStockNotAvailable = errors.New("позиция склада недоступна")
)

// Ошибки рефералов
var (
	// ErrInvalidReferralCode — реферальный код не найден
	ErrInvalidReferralCode = errors.New("неверный реферальный код")
	// ErrSelfReferral — попытка указать собственный код
	ErrSelfReferral = errors.New("нельзя использовать собственный код")
	// ErrAlreadyReferred — у пользователя уже есть пригласивший
	ErrAlreadyReferred = errors.New("у вас уже есть пригласивший")
)

// Ошибки событий и промокодов
var (
	// ErrEventNotFound — событие не найдено
	ErrEventNotFound = errors.New("событие не найдено")
	// ErrEventInactive — событие отключено
	ErrEventInactive = errors.New("событие не активно")
	// ErrEventNotStarted — событие ещё не началось
	ErrEventNotStarted = errors.New("событие ещё не началось")
	// ErrEventEnded — событие закончилось
	ErrEventEnded = errors.New("событие закончилось")
	// ErrEventMinAmount — сумма операции меньше минимальной для события
	ErrEventMinAmount = errors.New("сумма меньше минимальной для события")
	// ErrEventMaxClaims — достигнут общий лимит получений события
	ErrEventMaxClaims = errors.New("лимит получений события исчерпан")
	// ErrEventAlreadyClaimed — пользователь уже получил это событие
	ErrEventAlreadyClaimed = errors.New("вы уже получили этот бонус")
	// ErrInvalidPromoCode — промокод не найден или не является промо-событием
	ErrInvalidPromoCode = errors.New("неверный промокод")
)

// Ошибки депозитов
var (
	// ErrDepositNotFound — заявка на пополнение не найдена
	ErrDepositNotFound = errors.New("заявка на пополнение не найдена")
	// ErrDepositNotPending — заявка уже обработана (завершена/отменена/просрочена)
	ErrDepositNotPending = errors.New("заявка уже обработана")
	// ErrGatewayNotConfigured — платёжный шлюз не настроен
	ErrGatewayNotConfigured = errors.New("способ оплаты недоступен")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
)
