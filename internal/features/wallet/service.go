// Package wallet — service.go содержит бизнес-логику кошелька.
// Валидация сумм и выбор типа операции; атомарность обеспечивает
// репозиторий.
package wallet

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"shop-bot/internal/common"
)

// Store — денежные операции хранилища. Реализуется *Repository.
type Store interface {
	GetWallet(ctx context.Context, userID int64) (*Wallet, error)
	AddBalance(ctx context.Context, userID int64, amount float64, txType, method, note string) error
	AddCredits(ctx context.Context, userID int64, amount float64, txType, note string) error
	Purchase(ctx context.Context, userID int64, amount float64, method string) (*PurchaseResult, error)
	Refund(ctx context.Context, userID int64, amount float64, toWallet, note string) error
	TotalDeposits(ctx context.Context, userID int64) (float64, error)
	TotalByType(ctx context.Context, userID int64, txType string) (float64, error)
	History(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// Service — кошелёк: единственный путь изменения баланса и кредитов.
type Service struct {
	store Store
}

// NewService создаёт сервис кошелька.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetWallet возвращает снимок кошелька.
func (s *Service) GetWallet(ctx context.Context, userID int64) (*Wallet, error) {
	return s.store.GetWallet(ctx, userID)
}

// Deposit зачисляет пополнение на баланс.
func (s *Service) Deposit(ctx context.Context, userID int64, amount float64, method, note string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.AddBalance(ctx, userID, amount, TxTypeDeposit, method, note); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"method":  method,
	}).Info("Баланс пополнен")
	return nil
}

// AddCredits зачисляет кредиты (бонусы событий, рефералов и т.п.).
// txType попадает в журнал: event, referral, admin_add.
func (s *Service) AddCredits(ctx context.Context, userID int64, amount float64, txType, note string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.store.AddCredits(ctx, userID, amount, txType, note)
}

// Purchase списывает amount по выбранному способу оплаты.
// Либо списание проходит целиком, либо кошелёк не меняется.
func (s *Service) Purchase(ctx context.Context, userID int64, amount float64, method string) (*PurchaseResult, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	switch method {
	case PayCredits, PayBalance, PayAuto:
	default:
		return nil, fmt.Errorf("неизвестный способ оплаты: %q", method)
	}

	res, err := s.store.Purchase(ctx, userID, amount, method)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"user_id":      userID,
		"amount":       amount,
		"used_credits": res.UsedCredits,
		"used_balance": res.UsedBalance,
	}).Info("Покупка оплачена")
	return res, nil
}

// Refund возвращает средства. Используется для отката покупки,
// когда склад не смог выдать все позиции.
func (s *Service) Refund(ctx context.Context, userID int64, amount float64, toWallet, note string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.store.Refund(ctx, userID, amount, toWallet, note); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"to":      toWallet,
	}).Info("Средства возвращены")
	return nil
}

// AdminAddBalance начисляет средства от имени админа.
func (s *Service) AdminAddBalance(ctx context.Context, userID int64, amount float64, adminID int64, note string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	fullNote := fmt.Sprintf("By admin %d: %s", adminID, note)
	return s.store.AddBalance(ctx, userID, amount, TxTypeAdminAdd, "", fullNote)
}

// AdminAddCredits начисляет кредиты от имени админа.
func (s *Service) AdminAddCredits(ctx context.Context, userID int64, amount float64, adminID int64, note string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	fullNote := fmt.Sprintf("By admin %d: %s", adminID, note)
	return s.store.AddCredits(ctx, userID, amount, TxTypeAdminAdd, fullNote)
}

// TotalByType возвращает сумму транзакций пользователя по типу
// (например, сколько всего заработано на рефералах).
func (s *Service) TotalByType(ctx context.Context, userID int64, txType string) (float64, error) {
	return s.store.TotalByType(ctx, userID, txType)
}

// TotalDeposits возвращает сумму завершённых пополнений пользователя.
func (s *Service) TotalDeposits(ctx context.Context, userID int64) (float64, error) {
	return s.store.TotalDeposits(ctx, userID)
}

// History возвращает последние транзакции пользователя.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.History(ctx, userID, limit)
}
