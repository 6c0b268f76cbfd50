// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	BotUsername      string `envconfig:"BOT_USERNAME" default:""`
	ShopName         string `envconfig:"SHOP_NAME" default:"Shop Bot"`
	AdminIDsRaw      string `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	AdminUsername    string  `envconfig:"ADMIN_USER_NAME" default:""`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"shopbot"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"shop_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Binance Pay ---
	BinanceAPIKey    string `envconfig:"BINANCE_API_KEY" default:""`
	BinanceSecretKey string `envconfig:"BINANCE_SECRET_KEY" default:""`
	BinancePayID     string `envconfig:"BINANCE_PAY_ID" default:""`

	// --- SePay (банковский перевод) ---
	BankEnabled bool   `envconfig:"BANK_ENABLED" default:"true"`
	SepayAPIKey string `envconfig:"SEPAY_API_KEY" default:""`
	BankAccount string `envconfig:"BANK_ACCOUNT" default:""`
	BankName    string `envconfig:"BANK_NAME" default:""`
	BankOwner   string `envconfig:"BANK_OWNER" default:""`
	BankBIN     string `envconfig:"BANK_BIN" default:""`

	// --- Депозиты ---
	DepositExpires time.Duration `envconfig:"DEPOSIT_EXPIRES" default:"15m"`
	// Интервал фоновой сверки платежей
	DepositSweepInterval time.Duration `envconfig:"DEPOSIT_SWEEP_INTERVAL" default:"30s"`
	// Фиксированный курс VND → USDT для банковских пополнений
	VNDToUSDTRate float64 `envconfig:"VND_TO_USDT_RATE" default:"25000"`

	// --- Рефералы (дефолты; актуальная конфигурация хранится в БД) ---
	ReferrerBonus      float64 `envconfig:"REFERRER_BONUS" default:"1"`
	RefereeBonus       float64 `envconfig:"REFEREE_BONUS" default:"0.5"`
	MinDepositForBonus float64 `envconfig:"MIN_DEPOSIT_FOR_BONUS" default:"5"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DepositExpires <= 0 {
		return fmt.Errorf("DEPOSIT_EXPIRES должен быть > 0")
	}
	if c.DepositSweepInterval < 5*time.Second {
		return fmt.Errorf("DEPOSIT_SWEEP_INTERVAL не может быть меньше 5s")
	}
	if c.VNDToUSDTRate <= 0 {
		return fmt.Errorf("VND_TO_USDT_RATE должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
