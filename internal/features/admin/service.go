// Package admin — service.go: аутентификация администраторов
// и сводная статистика магазина.
package admin

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"shop-bot/internal/common"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/orders"
)

// SessionStore — хранилище сессий и попыток входа.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetActiveSession(ctx context.Context, userID int64) (*Session, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error)
	CountPendingDeposits(ctx context.Context) (int, error)
}

// UserCounter — счётчик пользователей.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// OrderStats — сводка по заказам.
type OrderStats interface {
	Stats(ctx context.Context) (*orders.Stats, error)
}

// StockStats — сводка по складу.
type StockStats interface {
	StockStats(ctx context.Context) (*catalog.StockStats, error)
}

// Service управляет админ-панелью.
type Service struct {
	store        SessionStore
	users        UserCounter
	orders       OrderStats
	stock        StockStats
	adminIDs     []int64
	passwordHash string
}

// NewService создаёт сервис админ-панели.
func NewService(store SessionStore, users UserCounter, ord OrderStats, stock StockStats, adminIDs []int64, passwordHash string) *Service {
	return &Service{
		store:        store,
		users:        users,
		orders:       ord,
		stock:        stock,
		adminIDs:     adminIDs,
		passwordHash: passwordHash,
	}
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (s *Service) IsAdmin(userID int64) bool {
	return common.Contains(s.adminIDs, userID)
}

// Login проверяет пароль и открывает сессию на 24 часа.
// Защита от перебора: 3 неудачные попытки — блокировка на час.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.store.GetRecentAttempts(ctx, userID, time.Hour)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return fmt.Errorf("слишком много попыток, подождите 1 час")
	}

	match := verifyPassword(password, s.passwordHash)
	if err := s.store.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}
	if !match {
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: newSessionToken(),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Администратор вошёл в панель")
	return nil
}

// HasActiveSession проверяет, авторизован ли администратор.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	if !s.IsAdmin(userID) {
		return false
	}
	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil || session == nil {
		return false
	}
	if err := s.store.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).Debug("Не удалось обновить активность сессии")
	}
	return true
}

// Logout завершает сессии администратора.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.store.DeactivateSession(ctx, userID)
}

// Dashboard собирает сводку для главного экрана панели.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stockStats, err := s.stock.StockStats(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.CountPendingDeposits(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Users:          userCount,
		Orders:         orderStats.Total,
		OrdersToday:    orderStats.Today,
		Revenue:        orderStats.TotalRevenue,
		StockTotal:     stockStats.Total,
		StockAvailable: stockStats.Available,
		StockSold:      stockStats.Sold,
		PendingDeps:    pending,
	}, nil
}
