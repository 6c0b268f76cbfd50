// Package events — движок промо-событий: приветственные и депозитные
// бонусы, бонусы за покупки, промокоды. models.go описывает событие
// и запись о его получении.
package events

import "time"

// Типы событий.
const (
	TypeWelcome  = "welcome"  // Автоматически при регистрации
	TypeDeposit  = "deposit"  // Автоматически при подтверждённом пополнении
	TypePurchase = "purchase" // Автоматически при покупке
	TypePromo    = "promo"    // Только по вводу промокода
	TypeReferral = "referral" // Реферальные начисления
	TypeManual   = "manual"   // Выдаётся админом вручную
)

// Виды награды.
const (
	RewardFixed   = "fixed"   // Фиксированное количество кредитов
	RewardPercent = "percent" // Процент от суммы операции-триггера
)

// Event — правило начисления бонуса.
type Event struct {
	ID           int64      `db:"id"`
	Code         *string    `db:"code"` // Промокод; только для типа promo
	Name         string     `db:"name"`
	Type         string     `db:"type"`
	RewardAmount float64    `db:"reward_amount"` // Кредиты или процент — по RewardType
	RewardType   string     `db:"reward_type"`
	MinAmount    float64    `db:"min_amount"`    // Минимальная сумма триггера
	MaxClaims    *int       `db:"max_claims"`    // Общий лимит получений (nil — без лимита)
	MaxPerUser   int        `db:"max_per_user"`  // Лимит на пользователя (по умолчанию 1)
	StartDate    *time.Time `db:"start_date"`    // nil — без нижней границы
	EndDate      *time.Time `db:"end_date"`      // nil — без верхней границы
	IsActive     bool       `db:"is_active"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Claim — запись о получении бонуса. Журнал только дописывается
// и служит источником истины для подсчёта лимитов: отдельных
// счётчиков нет, а значит нечему расходиться.
type Claim struct {
	ID          int64     `db:"id"`
	EventID     int64     `db:"event_id"`
	UserID      int64     `db:"user_id"`
	Amount      float64   `db:"amount"`       // Фактически начисленные кредиты
	ReferenceID *string   `db:"reference_id"` // Источник: order:N, deposit:N, promo:CODE
	CreatedAt   time.Time `db:"created_at"`
}

// Stats — сводка по событию, выводится агрегацией журнала.
type Stats struct {
	Claims      int     // Всего получений
	TotalAmount float64 // Всего начислено кредитов
	UniqueUsers int     // Уникальных получателей
}

// ClaimedBonus — успешное начисление для сообщения пользователю.
type ClaimedBonus struct {
	EventName string
	Amount    float64
}

// Update — частичное обновление события: nil-поля не меняются.
type Update struct {
	Name         *string
	RewardAmount *float64
	RewardType   *string
	MinAmount    *float64
	MaxClaims    **int
	MaxPerUser   *int
	StartDate    **time.Time
	EndDate      **time.Time
	IsActive     *bool
}
