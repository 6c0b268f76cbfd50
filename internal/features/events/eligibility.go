// Package events — eligibility.go: чистые правила допуска и расчёта награды.
// Порядок проверок фиксирован: первая провалившаяся определяет причину отказа.
package events

import (
	"time"

	"shop-bot/internal/common"
)

// CanClaim проверяет право пользователя на получение события.
// Порядок: активность → окно действия → минимальная сумма →
// общий лимит → лимит на пользователя.
func CanClaim(ev *Event, now time.Time, triggeringAmount float64, totalClaims, userClaims int) error {
	if !ev.IsActive {
		return common.ErrEventInactive
	}
	if ev.StartDate != nil && now.Before(*ev.StartDate) {
		return common.ErrEventNotStarted
	}
	if ev.EndDate != nil && now.After(*ev.EndDate) {
		return common.ErrEventEnded
	}
	if ev.MinAmount > 0 && triggeringAmount < ev.MinAmount {
		return common.ErrEventMinAmount
	}
	if ev.MaxClaims != nil && totalClaims >= *ev.MaxClaims {
		return common.ErrEventMaxClaims
	}
	if ev.MaxPerUser > 0 && userClaims >= ev.MaxPerUser {
		return common.ErrEventAlreadyClaimed
	}
	return nil
}

// Reward вычисляет награду в кредитах.
// percent от нулевой суммы даёт ноль — событие фактически
// неполучаемо, и это осознанное поведение, а не ошибка.
func Reward(ev *Event, triggeringAmount float64) float64 {
	if ev.RewardType == RewardPercent {
		if triggeringAmount <= 0 {
			return 0
		}
		return triggeringAmount * ev.RewardAmount / 100
	}
	return ev.RewardAmount
}
