package referral

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"shop-bot/internal/common"
	"shop-bot/internal/features/users"
	"shop-bot/internal/features/wallet"
)

// ConfigStore — хранилище настроек программы.
type ConfigStore interface {
	GetConfig(ctx context.Context) (*Config, error)
	UpdateConfig(ctx context.Context, c *Config) error
}

// UserDirectory — операции с пользователями, нужные рефералке.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByReferralCode(ctx context.Context, code string) (*users.User, error)
	SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error)
	ListReferrals(ctx context.Context, referrerID int64) ([]*users.User, error)
}

// WalletOps — операции кошелька, нужные рефералке.
type WalletOps interface {
	AddCredits(ctx context.Context, userID int64, amount float64, txType, note string) error
	TotalDeposits(ctx context.Context, userID int64) (float64, error)
	TotalByType(ctx context.Context, userID int64, txType string) (float64, error)
}

// Service — бизнес-логика реферальной программы.
type Service struct {
	store       ConfigStore
	users       UserDirectory
	wallet      WalletOps
	defaults    Config
	botUsername string
	log         *logrus.Logger
}

// NewService создаёт сервис. defaults используются, пока админ
// не сохранил настройки в БД.
func NewService(store ConfigStore, usersDir UserDirectory, walletOps WalletOps, defaults Config, botUsername string, log *logrus.Logger) *Service {
	return &Service{
		store:       store,
		users:       usersDir,
		wallet:      walletOps,
		defaults:    defaults,
		botUsername: botUsername,
		log:         log,
	}
}

// Config возвращает действующие настройки программы.
func (s *Service) Config(ctx context.Context) (*Config, error) {
	c, err := s.store.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		def := s.defaults
		return &def, nil
	}
	return c, nil
}

// UpdateConfig сохраняет настройки (админка).
func (s *Service) UpdateConfig(ctx context.Context, c *Config) error {
	if c.ReferrerBonus < 0 || c.RefereeBonus < 0 || c.MinDepositForBonus < 0 {
		return common.ErrInvalidAmount
	}
	return s.store.UpdateConfig(ctx, c)
}

// ProcessReferral привязывает пользователя к владельцу кода.
// Привязка отдаёт только первому: condition-update в хранилище,
// так что две параллельные попытки не перетрут друг друга.
// Бонус приглашённому начисляется сразу; пригласивший получает своё
// сразу только при нулевом пороге, иначе — после того как приглашённый
// наберёт пополнений на порог (см. ProcessReferrerBonus).
func (s *Service) ProcessReferral(ctx context.Context, userID int64, code string) (*users.User, error) {
	referrer, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if referrer.ID == userID {
		return nil, common.ErrSelfReferral
	}

	ok, err := s.users.SetReferrer(ctx, userID, referrer.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrAlreadyReferred
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.RefereeBonus > 0 {
		note := fmt.Sprintf("Referral signup: invited by %d", referrer.ID)
		if err := s.wallet.AddCredits(ctx, userID, cfg.RefereeBonus, wallet.TxTypeReferral, note); err != nil {
			s.log.WithError(err).WithField("user_id", userID).
				Error("Не удалось начислить бонус приглашённому")
		}
	}

	if cfg.MinDepositForBonus <= 0 && cfg.ReferrerBonus > 0 {
		s.payReferrer(ctx, referrer.ID, userID, cfg.ReferrerBonus)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     userID,
		"referrer_id": referrer.ID,
	}).Info("Реферальная привязка установлена")
	return referrer, nil
}

// ProcessReferrerBonus вызывается после подтверждённого пополнения.
// Бонус пригласившему выдаётся ровно один раз: само пополнение не
// меньше порога, а сумма пополнений ДО него порога ещё не достигала.
// Второе условие и делает выплату одноразовой — все последующие
// пополнения видят уже пересечённый порог.
func (s *Service) ProcessReferrerBonus(ctx context.Context, userID int64, depositAmount float64) error {
	cfg, err := s.Config(ctx)
	if err != nil {
		return err
	}
	if cfg.ReferrerBonus <= 0 || cfg.MinDepositForBonus <= 0 {
		// При нулевом пороге бонус выплачен ещё при привязке.
		return nil
	}
	if depositAmount < cfg.MinDepositForBonus {
		return nil
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.ReferredBy == nil {
		return nil
	}

	total, err := s.wallet.TotalDeposits(ctx, userID)
	if err != nil {
		return err
	}
	if total-depositAmount >= cfg.MinDepositForBonus {
		return nil
	}

	s.payReferrer(ctx, *u.ReferredBy, userID, cfg.ReferrerBonus)
	return nil
}

func (s *Service) payReferrer(ctx context.Context, referrerID, refereeID int64, amount float64) {
	note := fmt.Sprintf("Referral: user %d", refereeID)
	if err := s.wallet.AddCredits(ctx, referrerID, amount, wallet.TxTypeReferral, note); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"referrer_id": referrerID,
			"referee_id":  refereeID,
		}).Error("Не удалось начислить бонус пригласившему")
		return
	}
	s.log.WithFields(logrus.Fields{
		"referrer_id": referrerID,
		"referee_id":  refereeID,
		"amount":      amount,
	}).Info("Бонус пригласившему начислен")
}

// GetInfo собирает сводку программы для пользователя.
func (s *Service) GetInfo(ctx context.Context, userID int64) (*Info, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}
	referrals, err := s.users.ListReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.wallet.TotalByType(ctx, userID, wallet.TxTypeReferral)
	if err != nil {
		return nil, err
	}
	return &Info{
		Code:          u.ReferralCode,
		Link:          users.ReferralLink(s.botUsername, u.ReferralCode),
		Referrals:     len(referrals),
		TotalEarned:   earned,
		ReferrerBonus: cfg.ReferrerBonus,
		RefereeBonus:  cfg.RefereeBonus,
		MinDeposit:    cfg.MinDepositForBonus,
	}, nil
}
