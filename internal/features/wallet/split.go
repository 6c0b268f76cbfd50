// Package wallet — split.go вычисляет раскладку списания по способу оплаты.
// Чистая функция: проверка достаточности средств и само распределение
// живут здесь, репозиторий лишь применяет результат внутри транзакции БД.
package wallet

import "shop-bot/internal/common"

// ComputeSplit решает, сколько списать кредитами и сколько с баланса.
//
// Правила:
//   - credits: вся сумма кредитами, нужно credits >= amount
//   - balance: вся сумма с баланса, нужно balance >= amount
//   - auto: нужно balance+credits >= amount; сперва тратятся кредиты
//     (менее гибкая валюта), остаток добирается с баланса
//
// Порядок «кредиты вперёд» — осознанная политика, менять нельзя.
func ComputeSplit(balance, credits, amount float64, method string) (usedCredits, usedBalance float64, err error) {
	switch method {
	case PayCredits:
		if credits < amount {
			return 0, 0, common.ErrInsufficientCredits
		}
		return amount, 0, nil

	case PayBalance:
		if balance < amount {
			return 0, 0, common.ErrInsufficientBalance
		}
		return 0, amount, nil

	default: // PayAuto
		if balance+credits < amount {
			return 0, 0, common.ErrInsufficientFunds
		}
		usedCredits = credits
		if usedCredits > amount {
			usedCredits = amount
		}
		return usedCredits, amount - usedCredits, nil
	}
}
