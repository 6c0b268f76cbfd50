// Package payment — binance.go реализует шлюз Binance Pay.
// Опрашивает историю переводов через приватный API с HMAC-подписью
// и ищет платёж, у которого заметка (note) в точности равна маркеру,
// а сумма в точности равна ожидаемой.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	binanceBaseURL = "https://api.binance.com"
	// Сколько дней истории запрашиваем у провайдера
	binanceLookbackDays = 3
	binanceHTTPTimeout  = 10 * time.Second
)

// BinanceGateway — шлюз Binance Pay (криптовалюта, USDT).
type BinanceGateway struct {
	apiKey    string
	secretKey string
	payID     string
	client    *resty.Client
}

// NewBinanceGateway создаёт шлюз. Пустые ключи допустимы —
// тогда IsConfigured вернёт false и шлюз не будет предлагаться.
func NewBinanceGateway(apiKey, secretKey, payID string) *BinanceGateway {
	return &BinanceGateway{
		apiKey:    apiKey,
		secretKey: secretKey,
		payID:     payID,
		client:    resty.New().SetBaseURL(binanceBaseURL).SetTimeout(binanceHTTPTimeout),
	}
}

// SetBaseURL переопределяет адрес API (для тестов).
func (g *BinanceGateway) SetBaseURL(url string) {
	g.client.SetBaseURL(url)
}

func (g *BinanceGateway) Name() string     { return MethodBinance }
func (g *BinanceGateway) Currency() string { return "USDT" }

func (g *BinanceGateway) IsConfigured() bool {
	return g.apiKey != "" && g.secretKey != ""
}

// binanceTx — одна запись истории Binance Pay.
// Суммы приходят строками, сравниваем их без привязки к float.
type binanceTx struct {
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Note          string `json:"note"`
}

type binanceHistoryResponse struct {
	Data []binanceTx `json:"data"`
}

// CheckPayment ищет входящий платёж с заметкой code на сумму amount USDT.
// Совпадение требуется точное: и заметка, и сумма, и валюта.
func (g *BinanceGateway) CheckPayment(ctx context.Context, code string, amount float64) *MatchedPayment {
	txs, err := g.transactionHistory(ctx)
	if err != nil {
		log.WithError(err).Warn("Binance: не удалось получить историю")
		return nil
	}

	want := decimal.NewFromFloat(amount)
	for _, tx := range txs {
		got, err := decimal.NewFromString(tx.Amount)
		if err != nil || !got.IsPositive() {
			continue
		}
		if tx.Note == code && tx.Currency == g.Currency() && got.Equal(want) {
			amt, _ := got.Float64()
			return &MatchedPayment{
				Reference: tx.TransactionID,
				Amount:    amt,
				Currency:  tx.Currency,
			}
		}
	}
	return nil
}

// transactionHistory запрашивает переводы за последние дни.
// Запрос подписывается HMAC-SHA256 от query string, как требует Binance.
func (g *BinanceGateway) transactionHistory(ctx context.Context) ([]binanceTx, error) {
	now := time.Now().UnixMilli()
	start := now - int64(binanceLookbackDays)*24*60*60*1000

	query := fmt.Sprintf("limit=100&startTime=%d&endTime=%d&timestamp=%d", start, now, now)

	mac := hmac.New(sha256.New, []byte(g.secretKey))
	mac.Write([]byte(query))
	signature := hex.EncodeToString(mac.Sum(nil))

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("X-MBX-APIKEY", g.apiKey).
		SetQueryString(query + "&signature=" + signature).
		Get("/sapi/v1/pay/transactions")
	if err != nil {
		return nil, fmt.Errorf("запрос истории: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("статус ответа Binance: %d", resp.StatusCode())
	}

	var history binanceHistoryResponse
	if err := json.Unmarshal(resp.Body(), &history); err != nil {
		return nil, fmt.Errorf("разбор ответа Binance: %w", err)
	}
	return history.Data, nil
}

// Instructions возвращает данные для оплаты через Binance Pay.
func (g *BinanceGateway) Instructions(amount float64, code string) Instructions {
	return Instructions{
		Method:    MethodBinance,
		Amount:    amount,
		Currency:  g.Currency(),
		Code:      code,
		BinanceID: g.payID,
	}
}
