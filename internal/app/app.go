// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы
// и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"shop-bot/internal/bot"
	"shop-bot/internal/bot/session"
	"shop-bot/internal/config"
	"shop-bot/internal/db/postgres"
	"shop-bot/internal/features/admin"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/deposits"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/orders"
	"shop-bot/internal/features/referral"
	"shop-bot/internal/features/users"
	"shop-bot/internal/features/wallet"
	"shop-bot/internal/jobs"
	"shop-bot/internal/payment"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	botUsername := cfg.BotUsername
	if botUsername == "" {
		botUsername = botAPI.Self.UserName
	}

	// === 3. Репозитории ===
	userRepo := users.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	orderRepo := orders.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	referralRepo := referral.NewRepository(pool)
	depositRepo := deposits.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Платёжные шлюзы ===
	gateways := []payment.Gateway{
		payment.NewBinanceGateway(cfg.BinanceAPIKey, cfg.BinanceSecretKey, cfg.BinancePayID),
	}
	if cfg.BankEnabled {
		gateways = append(gateways,
			payment.NewSepayGateway(cfg.SepayAPIKey, cfg.BankName, cfg.BankAccount, cfg.BankOwner, cfg.BankBIN))
	}

	// === 5. Сервисы ===
	userService := users.NewService(userRepo)
	walletService := wallet.NewService(walletRepo)
	catalogService := catalog.NewService(catalogRepo)
	eventService := events.NewService(eventRepo, walletService, log.StandardLogger())
	orderService := orders.NewService(orderRepo, catalogService, walletService, eventService, log.StandardLogger())
	referralService := referral.NewService(
		referralRepo, userService, walletService,
		referral.Config{
			ReferrerBonus:      cfg.ReferrerBonus,
			RefereeBonus:       cfg.RefereeBonus,
			MinDepositForBonus: cfg.MinDepositForBonus,
		},
		botUsername, log.StandardLogger())
	depositService := deposits.NewService(
		depositRepo, gateways, walletService, referralService, eventService,
		bot.NewNotifier(botAPI),
		cfg.VNDToUSDTRate, cfg.DepositExpires, log.StandardLogger())
	adminService := admin.NewService(adminRepo, userService, orderService, catalogService,
		cfg.AdminIDs, cfg.AdminPasswordHash)

	// === 6. Собираем бота ===
	b := bot.New(
		botAPI, cfg, session.NewStore(),
		userService, walletService, catalogService, orderService,
		eventService, referralService, depositService, adminService,
	)

	// === 7. Планировщик задач ===
	scheduler := jobs.NewScheduler(depositService, cfg.DepositSweepInterval)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// Close освобождает ресурсы приложения.
func (a *App) Close() {
	a.DB.Close()
}
