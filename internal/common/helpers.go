// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование сумм и дат, работа с временем.
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatPrice форматирует сумму в читабельную строку с валютой.
//
// Примеры:
//
//	FormatPrice(5, "USDT")      → "5 USDT"
//	FormatPrice(1.5, "USDT")    → "1.5 USDT"
//	FormatPrice(250000, "VND")  → "250.000 VND"
func FormatPrice(amount float64, currency string) string {
	if currency == "VND" {
		return groupThousands(int64(amount)) + " VND"
	}
	return FormatNumber(amount) + " " + currency
}

// FormatCredits форматирует количество кредитов.
// Пример: FormatCredits(5) → "5 🪙"
func FormatCredits(amount float64) string {
	return FormatNumber(amount) + " 🪙"
}

// FormatNumber печатает число без хвостовых нулей: 5 → "5", 1.50 → "1.5".
func FormatNumber(n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// groupThousands разделяет тысячи точками: 250000 → "250.000".
// VND не имеет дробной части, поэтому работаем с целым числом.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат транзакций и заказов.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02.01.2006 15:04")
}

// FormatDateShort форматирует время без года: "02.01 15:04".
func FormatDateShort(t time.Time) string {
	return t.Local().Format("02.01 15:04")
}

// TruncateText обрезает текст до max символов, добавляя многоточие.
// Нужно для подписи товаров в инлайн-кнопках (лимит Telegram — 64 байта).
func TruncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// Contains проверяет наличие элемента в срезе int64.
// Используется для проверки админских ID.
func Contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// FormatDuration печатает длительность в минутах: "15 мин".
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%d мин", int(d.Minutes()))
}
