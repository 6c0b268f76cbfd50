// Package common — codes.go генерирует уникальные коды:
// платёжные коды для сверки депозитов и реферальные коды пользователей.
package common

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
)

// Алфавит без похожих символов (0/O, 1/I/L) — коды вводятся руками
// в назначении платежа, опечатки дорого обходятся.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateCode возвращает случайный код длиной n символов.
// Используется как платёжный код (маркер сверки) депозита.
func GenerateCode(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand на практике не ошибается; fallback детерминированный
			sb.WriteByte(codeAlphabet[i%len(codeAlphabet)])
			continue
		}
		sb.WriteByte(codeAlphabet[idx.Int64()])
	}
	return sb.String()
}

// GenerateReferralCode строит реферальный код пользователя:
// ID в base36 плюс случайный суффикс из 3 символов.
// База от ID гарантирует уникальность, суффикс мешает подбору.
func GenerateReferralCode(userID int64) string {
	base := strings.ToUpper(strconv.FormatInt(userID, 36))
	return base + GenerateCode(3)
}
