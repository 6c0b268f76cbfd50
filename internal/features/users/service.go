// Package users — service.go содержит бизнес-логику работы с пользователями.
package users

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Store — операции хранилища, нужные сервису пользователей.
// Реализуется *Repository; в тестах подменяется фейком.
type Store interface {
	GetOrCreate(ctx context.Context, id int64, firstName, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error)
	ListReferrals(ctx context.Context, referrerID int64) ([]*User, error)
	SetLanguage(ctx context.Context, userID int64, lang string) error
	List(ctx context.Context, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
}

// Service управляет пользователями.
type Service struct {
	store Store
}

// NewService создаёт сервис пользователей.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register регистрирует пользователя при первом входе
// (или обновляет имя у существующего).
func (s *Service) Register(ctx context.Context, id int64, firstName, username string) (*User, error) {
	u, err := s.store.GetOrCreate(ctx, id, firstName, username)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": id, "username": username}).Debug("Пользователь зарегистрирован")
	return u, nil
}

// GetByID возвращает пользователя по ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.store.GetByID(ctx, id)
}

// GetByReferralCode возвращает владельца реферального кода.
func (s *Service) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	return s.store.GetByReferralCode(ctx, code)
}

// SetReferrer связывает пользователя с пригласившим.
// Возвращает false, если связь уже была установлена.
func (s *Service) SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error) {
	return s.store.SetReferrer(ctx, userID, referrerID)
}

// ListReferrals возвращает приглашённых пользователем.
func (s *Service) ListReferrals(ctx context.Context, referrerID int64) ([]*User, error) {
	return s.store.ListReferrals(ctx, referrerID)
}

// SetLanguage сохраняет язык интерфейса.
func (s *Service) SetLanguage(ctx context.Context, userID int64, lang string) error {
	switch lang {
	case "en", "vi", "zh":
	default:
		return fmt.Errorf("неизвестный язык: %q", lang)
	}
	return s.store.SetLanguage(ctx, userID, lang)
}

// List возвращает последних пользователей (админка).
func (s *Service) List(ctx context.Context, limit int) ([]*User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.store.List(ctx, limit)
}

// Count возвращает число зарегистрированных пользователей.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// ReferralLink строит ссылку-приглашение для пользователя.
func ReferralLink(botUsername, referralCode string) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%s", botUsername, referralCode)
}
