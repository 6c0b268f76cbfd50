// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическая сверка
// ожидающих пополнений с платёжными шлюзами.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"shop-bot/internal/features/deposits"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron          *cron.Cron
	deposits      *deposits.Service
	sweepInterval time.Duration
}

// NewScheduler создаёт планировщик задач.
func NewScheduler(depositsService *deposits.Service, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		deposits:      depositsService,
		sweepInterval: sweepInterval,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	// Сверка ожидающих пополнений: находит оплаченные заявки,
	// зачисляет средства и закрывает просроченные.
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.sweepInterval), func() {
		log.Debug("[CRON] Сверка ожидающих пополнений")
		confirmed := s.deposits.CheckPendingDeposits(ctx)
		if len(confirmed) > 0 {
			log.WithField("count", len(confirmed)).Info("[CRON] Пополнения зачислены")
		}
	})
	if err != nil {
		return fmt.Errorf("не удалось запланировать сверку пополнений: %w", err)
	}

	s.cron.Start()
	log.WithField("interval", s.sweepInterval.String()).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик, дождавшись текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
