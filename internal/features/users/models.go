// Package users управляет пользователями магазина.
// models.go описывает структуру пользователя.
package users

import "time"

// User представляет покупателя.
// Балансы (balance, credits) хранятся здесь же, но менять их
// имеет право только модуль wallet.
type User struct {
	ID           int64     `db:"id"`            // Telegram user ID
	FirstName    string    `db:"first_name"`    // Имя для отображения
	Username     string    `db:"username"`      // @username (может быть пустым)
	Language     string    `db:"language"`      // Код языка интерфейса (en/vi/zh)
	Balance      float64   `db:"balance"`       // Основной баланс (USDT-эквивалент)
	Credits      float64   `db:"credits"`       // Бонусные кредиты
	ReferralCode string    `db:"referral_code"` // Уникальный код для приглашений
	ReferredBy   *int64    `db:"referred_by"`   // Кто пригласил (nil — никто), ставится один раз
	BalanceSpent float64   `db:"balance_spent"` // Всего потрачено с баланса
	CreditsSpent float64   `db:"credits_spent"` // Всего потрачено кредитов
	CreatedAt    time.Time `db:"created_at"`
}

// FullName возвращает имя с username, если он задан.
func (u *User) FullName() string {
	if u.Username != "" {
		return u.FirstName + " (@" + u.Username + ")"
	}
	return u.FirstName
}
