// Package deposits — пополнение баланса через внешние платёжные
// шлюзы: заявка с уникальным маркером, фоновая сверка входящих
// платежей и зачисление ровно один раз.
package deposits

import (
	"time"

	"shop-bot/internal/features/events"
	"shop-bot/internal/payment"
)

// Статусы заявки на пополнение.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// PendingDeposit — заявка на пополнение. PaymentCode — уникальный
// маркер: плательщик указывает его в назначении платежа, по нему
// сверка находит входящую транзакцию.
type PendingDeposit struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Amount        float64   `db:"amount"` // В валюте шлюза (USDT или VND)
	Currency      string    `db:"currency"`
	PaymentMethod string    `db:"payment_method"`
	PaymentCode   string    `db:"payment_code"`
	ChatID        int64     `db:"chat_id"`
	Status        string    `db:"status"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// Expired сообщает, истекла ли заявка к моменту now.
func (d *PendingDeposit) Expired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// Method — доступный способ пополнения для меню.
type Method struct {
	ID       string
	Name     string
	Currency string
}

// Created — результат создания заявки.
type Created struct {
	Deposit      *PendingDeposit
	Instructions payment.Instructions
}

// CheckResult — итог ручной проверки заявки.
type CheckResult struct {
	Deposit   *PendingDeposit
	Confirmed bool // Платёж найден и зачислен именно этим вызовом
	Credited  float64
	Bonuses   []events.ClaimedBonus
}

// Confirmation — одно подтверждённое пополнение из фоновой сверки.
type Confirmation struct {
	Deposit  *PendingDeposit
	Credited float64 // Зачислено на баланс (после конвертации)
	Bonuses  []events.ClaimedBonus
}
