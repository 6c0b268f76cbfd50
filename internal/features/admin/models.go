// Package admin реализует админ-панель магазина: парольный вход
// с сессиями и сводную статистику.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

// Session — активная сессия администратора.
type Session struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt — попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// Dashboard — сводка магазина для главного экрана админки.
type Dashboard struct {
	Users          int
	Orders         int
	OrdersToday    int
	Revenue        float64
	StockTotal     int
	StockAvailable int
	StockSold      int
	PendingDeps    int
}
