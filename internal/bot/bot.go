// Package bot содержит телеграм-слой магазина — инициализацию,
// запуск polling и маршрутизацию входящих сообщений и кнопок.
// Вся бизнес-логика живёт в сервисах features, здесь только
// разбор ввода и сборка ответов.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"shop-bot/internal/bot/middleware"
	"shop-bot/internal/bot/session"
	"shop-bot/internal/config"
	"shop-bot/internal/features/admin"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/deposits"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/orders"
	"shop-bot/internal/features/referral"
	"shop-bot/internal/features/users"
	"shop-bot/internal/features/wallet"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter
	sessions    *session.Store

	users    *users.Service
	wallet   *wallet.Service
	catalog  *catalog.Service
	orders   *orders.Service
	events   *events.Service
	referral *referral.Service
	deposits *deposits.Service
	admin    *admin.Service

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	sessions *session.Store,
	usersSvc *users.Service,
	walletSvc *wallet.Service,
	catalogSvc *catalog.Service,
	ordersSvc *orders.Service,
	eventsSvc *events.Service,
	referralSvc *referral.Service,
	depositsSvc *deposits.Service,
	adminSvc *admin.Service,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		sessions:    sessions,
		users:       usersSvc,
		wallet:      walletSvc,
		catalog:     catalogSvc,
		orders:      ordersSvc,
		events:      eventsSvc,
		referral:    referralSvc,
		deposits:    depositsSvc,
		admin:       adminSvc,
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	switch {
	case update.CallbackQuery != nil:
		middleware.LogCallback(update.CallbackQuery)
		if !b.rateLimiter.Allow(update.CallbackQuery.From.ID) {
			b.answerCallback(update.CallbackQuery.ID, "⏳")
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)

	case update.Message != nil:
		message := update.Message
		if message.From == nil || !message.Chat.IsPrivate() {
			// Магазин работает только в личных сообщениях.
			return
		}
		middleware.LogMessage(message)
		if !b.rateLimiter.Allow(message.From.ID) {
			log.WithField("user_id", message.From.ID).Debug("rate limited")
			return
		}

		// Регистрируем пользователя при любом входящем сообщении.
		if _, err := b.users.Register(ctx, message.From.ID, message.From.FirstName, message.From.UserName); err != nil {
			log.WithError(err).WithField("user_id", message.From.ID).Warn("Register failed")
		}

		if message.IsCommand() {
			b.handleCommand(ctx, message)
			return
		}
		b.handleText(ctx, message)
	}
}

// --- Утилиты отправки ---

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard [][]tgbotapi.InlineKeyboardButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// editMessage заменяет текст и клавиатуру сообщения с кнопками.
func (b *Bot) editMessage(chatID int64, messageID int, text string, keyboard [][]tgbotapi.InlineKeyboardButton) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if keyboard != nil {
		markup := tgbotapi.NewInlineKeyboardMarkup(keyboard...)
		edit.ReplyMarkup = &markup
	}
	if _, err := b.api.Send(edit); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось отредактировать сообщение")
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cb); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

func (b *Bot) alertCallback(callbackID, text string) {
	cb := tgbotapi.NewCallbackWithAlert(callbackID, text)
	if _, err := b.api.Request(cb); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}

// notifyAdmins рассылает служебное сообщение всем администраторам.
func (b *Bot) notifyAdmins(text string) {
	for _, id := range b.cfg.AdminIDs {
		b.sendMessage(id, text)
	}
}

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return buttons
}

// callbackParts разбирает callback data вида "pay_balance_3_2".
func callbackParts(data string) []string {
	return strings.Split(data, "_")
}

// Notifier отправляет сообщения пользователям вне диалога
// (подтверждения фоновой сверки пополнений). Отдельная от Bot
// структура: ей нужен только API-клиент.
type Notifier struct {
	api *tgbotapi.BotAPI
}

// NewNotifier создаёт отправителя уведомлений.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// Notify отправляет текст в чат. Ошибка доставки только логируется:
// недоступный пользователь не должен останавливать сверку.
func (n *Notifier) Notify(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Debug("Не удалось отправить уведомление")
	}
}
