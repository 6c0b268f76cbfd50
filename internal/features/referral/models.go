// Package referral — реферальная программа: привязка приглашённых,
// бонус за регистрацию по коду и бонус пригласившему после того,
// как приглашённый наберёт минимальную сумму пополнений.
package referral

// Config — настройки программы. Хранится одной строкой в БД,
// значения по умолчанию задаются переменными окружения.
type Config struct {
	ReferrerBonus      float64 `db:"referrer_bonus"`        // Кредиты пригласившему
	RefereeBonus       float64 `db:"referee_bonus"`         // Кредиты приглашённому при привязке
	MinDepositForBonus float64 `db:"min_deposit_for_bonus"` // Порог пополнений для бонуса пригласившему
}

// Info — сводка реферальной программы для пользователя.
type Info struct {
	Code          string  // Реферальный код пользователя
	Link          string  // Готовая ссылка-приглашение
	Referrals     int     // Сколько человек приглашено
	TotalEarned   float64 // Сколько кредитов заработано на рефералах
	ReferrerBonus float64 // Сколько кредитов даёт каждое приглашение
	RefereeBonus  float64
	MinDeposit    float64
}
