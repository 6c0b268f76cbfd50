// admin.go — панель администратора: вход по паролю, сводка,
// управление товарами, складом, событиями и реферальной программой.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"shop-bot/internal/bot/session"
	"shop-bot/internal/common"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/referral"
)

// handleAdminCommand — /admin: вход или сразу панель при живой сессии.
func (b *Bot) handleAdminCommand(ctx context.Context, chatID, userID int64) {
	if !b.admin.IsAdmin(userID) {
		// Не выдаём посторонним, что команда существует.
		return
	}
	if b.admin.HasActiveSession(ctx, userID) {
		b.sendAdminPanel(ctx, chatID, 0)
		return
	}
	b.sessions.Set(userID, &session.State{Action: session.ActionAdminPassword})
	b.sendMessage(chatID, "🔐 Enter admin password:")
}

// handleAdminCallback маршрутизирует кнопки админ-панели.
// Каждое нажатие проверяет живую сессию: истёкшая сессия
// отправляет обратно на ввод пароля.
func (b *Bot) handleAdminCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	if !b.admin.HasActiveSession(ctx, userID) {
		b.alertCallback(query.ID, "Session expired, use /admin to log in")
		return
	}

	parts := callbackParts(data)

	switch {
	case data == "admin_panel":
		b.sessions.Delete(userID)
		b.answerCallback(query.ID, "")
		b.sendAdminPanel(ctx, chatID, messageID)

	case data == "admin_stats":
		b.showAdminStats(ctx, query)

	case data == "admin_products":
		b.showAdminProducts(ctx, query)

	case data == "admin_prod_add":
		b.sessions.Set(userID, &session.State{Action: session.ActionAdminAddProduct, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID,
			"➕ NEW PRODUCT\n"+divider+"\n\nSend one line:\n<name> | <price USDT> | <description> | <credits price or ->\n\nExample:\nNetflix 1m | 5 | Private account | 50",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_products"))})

	case len(parts) == 4 && parts[1] == "prod" && parts[2] == "toggle":
		b.toggleAdminProduct(ctx, query, parts[3])

	case len(parts) == 4 && parts[1] == "prod" && parts[2] == "del":
		b.deleteAdminProduct(ctx, query, parts[3])

	case data == "admin_stock":
		b.showAdminStockMenu(ctx, query)

	case len(parts) == 3 && parts[1] == "stock":
		b.promptAdminStock(query, parts[2])

	case data == "admin_events":
		b.showAdminEvents(ctx, query)

	case data == "admin_event_add":
		b.sessions.Set(userID, &session.State{Action: session.ActionAdminAddEvent, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID,
			"➕ NEW EVENT\n"+divider+"\n\nSend one line:\n<name> | <type> | <reward> | <fixed|percent> | <min amount> | <promo code or ->\n\nTypes: welcome, deposit, purchase, promo\n\nExample:\nDeposit cashback | deposit | 5 | percent | 10 | -",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_events"))})

	case len(parts) == 4 && parts[1] == "event" && parts[2] == "toggle":
		b.toggleAdminEvent(ctx, query, parts[3])

	case data == "admin_users":
		b.showAdminUsers(ctx, query)

	case data == "admin_refcfg":
		b.showAdminReferralConfig(ctx, query)

	case data == "admin_refcfg_edit":
		b.sessions.Set(userID, &session.State{Action: session.ActionAdminRefConfig, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID,
			"⚙️ REFERRAL CONFIG\n"+divider+"\n\nSend: <referrer bonus> <referee bonus> <min deposit>\n\nExample: 1 0.5 5",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_refcfg"))})

	case data == "admin_balance":
		b.sessions.Set(userID, &session.State{Action: session.ActionAdminAddBalance, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID,
			"💵 ADD BALANCE\n"+divider+"\n\nSend: <user id> <amount USDT>",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_panel"))})

	case data == "admin_credits":
		b.sessions.Set(userID, &session.State{Action: session.ActionAdminAddCredits, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID,
			"🪙 ADD CREDITS\n"+divider+"\n\nSend: <user id> <amount>",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_panel"))})

	case data == "admin_logout":
		if err := b.admin.Logout(ctx, userID); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Logout не удался")
		}
		b.answerCallback(query.ID, "Logged out")
		b.editMessage(chatID, messageID, "🔐 Logged out", nil)

	default:
		b.answerCallback(query.ID, "")
	}
}

// handleAdminText обрабатывает текстовый ввод админских диалогов.
func (b *Bot) handleAdminText(ctx context.Context, message *tgbotapi.Message, st *session.State) {
	userID := message.From.ID
	chatID := message.Chat.ID

	if st.Action == session.ActionAdminPassword {
		b.sessions.Delete(userID)
		// Пароль не должен оставаться в переписке.
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID)); err != nil {
			log.WithError(err).Debug("Не удалось удалить сообщение с паролем")
		}
		if err := b.admin.Login(ctx, userID, message.Text); err != nil {
			switch {
			case errors.Is(err, common.ErrWrongPassword):
				b.sendMessage(chatID, "❌ Wrong password")
			case errors.Is(err, common.ErrNotAdmin):
			default:
				b.sendMessage(chatID, "❌ "+err.Error())
			}
			return
		}
		b.sendAdminPanel(ctx, chatID, 0)
		return
	}

	// Остальные шаги требуют живой сессии.
	if !b.admin.HasActiveSession(ctx, userID) {
		b.sessions.Delete(userID)
		b.sendMessage(chatID, "Session expired, use /admin to log in")
		return
	}

	switch st.Action {
	case session.ActionAdminAddProduct:
		b.adminAddProduct(ctx, chatID, userID, message.Text)
	case session.ActionAdminAddStock:
		b.adminAddStock(ctx, chatID, userID, st, message.Text)
	case session.ActionAdminAddBalance:
		b.adminAddFunds(ctx, chatID, userID, message.Text, false)
	case session.ActionAdminAddCredits:
		b.adminAddFunds(ctx, chatID, userID, message.Text, true)
	case session.ActionAdminAddEvent:
		b.adminAddEvent(ctx, chatID, userID, message.Text)
	case session.ActionAdminRefConfig:
		b.adminUpdateReferralConfig(ctx, chatID, userID, message.Text)
	}
}

// --- Экраны панели ---

func (b *Bot) sendAdminPanel(ctx context.Context, chatID int64, messageID int) {
	text := "🔧 ADMIN PANEL\n" + divider
	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("📊 Stats", "admin_stats")),
		row(btn("🎁 Products", "admin_products"), btn("📦 Stock", "admin_stock")),
		row(btn("🎉 Events", "admin_events"), btn("👥 Referrals", "admin_refcfg")),
		row(btn("💵 Add balance", "admin_balance"), btn("🪙 Add credits", "admin_credits")),
		row(btn("👤 Users", "admin_users")),
		row(btn("🚪 Logout", "admin_logout")),
	}
	if messageID != 0 {
		b.editMessage(chatID, messageID, text, keyboard)
	} else {
		b.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (b *Bot) showAdminStats(ctx context.Context, query *tgbotapi.CallbackQuery) {
	d, err := b.admin.Dashboard(ctx)
	if err != nil {
		log.WithError(err).Error("Не удалось собрать сводку")
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := fmt.Sprintf(
		"📊 STATS\n%s\n\n👤 Users: %d\n\n🛒 Orders: %d (today: %d)\n💰 Revenue: %s USDT\n\n📦 Stock: %d available / %d sold / %d total\n\n⏳ Pending deposits: %d",
		divider, d.Users, d.Orders, d.OrdersToday, common.FormatNumber(d.Revenue),
		d.StockAvailable, d.StockSold, d.StockTotal, d.PendingDeps)

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Back", "admin_panel"))})
}

func (b *Bot) showAdminProducts(ctx context.Context, query *tgbotapi.CallbackQuery) {
	products, err := b.catalog.ListProducts(ctx, false)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := "🎁 PRODUCTS\n" + divider
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		state := "🟢"
		if !p.IsActive {
			state = "🔴"
		}
		text += fmt.Sprintf("\n\n%s #%d %s — %s USDT, %d left", state, p.ID, p.Name, common.FormatNumber(p.Price), p.StockCount)
		keyboard = append(keyboard, row(
			btn(fmt.Sprintf("%s %s", state, common.TruncateText(p.Name, 20)), fmt.Sprintf("admin_prod_toggle_%d", p.ID)),
			btn("🗑", fmt.Sprintf("admin_prod_del_%d", p.ID)),
		))
	}
	keyboard = append(keyboard,
		row(btn("➕ Add product", "admin_prod_add")),
		row(btn("⬅️ Back", "admin_panel")))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

func (b *Bot) toggleAdminProduct(ctx context.Context, query *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.ParseInt(rawID, 10, 64)
	p, err := b.catalog.GetProduct(ctx, id)
	if err != nil {
		b.alertCallback(query.ID, "Product not found")
		return
	}
	if err := b.catalog.SetProductActive(ctx, id, !p.IsActive); err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}
	b.showAdminProducts(ctx, query)
}

func (b *Bot) deleteAdminProduct(ctx context.Context, query *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.ParseInt(rawID, 10, 64)
	if err := b.catalog.DeleteProduct(ctx, id); err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}
	b.showAdminProducts(ctx, query)
}

func (b *Bot) showAdminStockMenu(ctx context.Context, query *tgbotapi.CallbackQuery) {
	products, err := b.catalog.ListProducts(ctx, false)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		keyboard = append(keyboard, row(btn(
			fmt.Sprintf("%s (%d left)", common.TruncateText(p.Name, 25), p.StockCount),
			fmt.Sprintf("admin_stock_%d", p.ID))))
	}
	keyboard = append(keyboard, row(btn("⬅️ Back", "admin_panel")))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		"📦 ADD STOCK\n"+divider+"\n\nChoose product:", keyboard)
}

func (b *Bot) promptAdminStock(query *tgbotapi.CallbackQuery, rawID string) {
	b.sessions.Set(query.From.ID, &session.State{
		Action:    session.ActionAdminAddStock,
		MessageID: query.Message.MessageID,
		Payload:   map[string]string{"product_id": rawID},
	})
	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		"📦 ADD STOCK\n"+divider+"\n\nSend items, one per line (login:password, key, link...):",
		[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "admin_stock"))})
}

func (b *Bot) showAdminEvents(ctx context.Context, query *tgbotapi.CallbackQuery) {
	list, err := b.events.List(ctx, false)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := "🎉 EVENTS\n" + divider
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, ev := range list {
		state := "🟢"
		if !ev.IsActive {
			state = "🔴"
		}
		reward := common.FormatCredits(ev.RewardAmount)
		if ev.RewardType == events.RewardPercent {
			reward = common.FormatNumber(ev.RewardAmount) + "%"
		}
		text += fmt.Sprintf("\n\n%s #%d %s [%s] — %s", state, ev.ID, ev.Name, ev.Type, reward)
		if ev.Code != nil {
			text += "\n    code: " + *ev.Code
		}
		keyboard = append(keyboard, row(btn(
			fmt.Sprintf("%s %s", state, common.TruncateText(ev.Name, 25)),
			fmt.Sprintf("admin_event_toggle_%d", ev.ID))))
	}
	keyboard = append(keyboard,
		row(btn("➕ Add event", "admin_event_add")),
		row(btn("⬅️ Back", "admin_panel")))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

func (b *Bot) toggleAdminEvent(ctx context.Context, query *tgbotapi.CallbackQuery, rawID string) {
	id, _ := strconv.ParseInt(rawID, 10, 64)
	ev, err := b.events.GetByID(ctx, id)
	if err != nil {
		b.alertCallback(query.ID, "Event not found")
		return
	}
	if err := b.events.SetActive(ctx, id, !ev.IsActive); err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}
	b.showAdminEvents(ctx, query)
}

func (b *Bot) showAdminUsers(ctx context.Context, query *tgbotapi.CallbackQuery) {
	list, err := b.users.List(ctx, 20)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := "👤 LATEST USERS\n" + divider
	for _, u := range list {
		text += fmt.Sprintf("\n%d  %s — %s USDT / %s",
			u.ID, u.FullName(), common.FormatNumber(u.Balance), common.FormatCredits(u.Credits))
	}

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Back", "admin_panel"))})
}

func (b *Bot) showAdminReferralConfig(ctx context.Context, query *tgbotapi.CallbackQuery) {
	cfg, err := b.referral.Config(ctx)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := fmt.Sprintf(
		"👥 REFERRAL CONFIG\n%s\n\n🎁 Referrer bonus: %s\n🎁 Referee bonus: %s\n💵 Min deposit for bonus: %s USDT",
		divider,
		common.FormatCredits(cfg.ReferrerBonus), common.FormatCredits(cfg.RefereeBonus),
		common.FormatNumber(cfg.MinDepositForBonus))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{
			row(btn("✏️ Edit", "admin_refcfg_edit")),
			row(btn("⬅️ Back", "admin_panel")),
		})
}

// --- Текстовые шаги ---

func (b *Bot) adminAddProduct(ctx context.Context, chatID, userID int64, input string) {
	parts := strings.Split(input, "|")
	if len(parts) < 3 {
		b.sendMessage(chatID, "❌ Format: <name> | <price> | <description> | <credits price or ->")
		return
	}
	name := strings.TrimSpace(parts[0])
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || price <= 0 || name == "" {
		b.sendMessage(chatID, "❌ Check name and price")
		return
	}
	description := strings.TrimSpace(parts[2])

	var creditsPrice *float64
	creditsEnabled := false
	if len(parts) >= 4 {
		raw := strings.TrimSpace(parts[3])
		if raw != "" && raw != "-" {
			cp, err := strconv.ParseFloat(raw, 64)
			if err != nil || cp <= 0 {
				b.sendMessage(chatID, "❌ Bad credits price")
				return
			}
			creditsPrice = &cp
			creditsEnabled = true
		}
	}

	b.sessions.Delete(userID)
	id, err := b.catalog.CreateProduct(ctx, name, price, description, creditsPrice, creditsEnabled)
	if err != nil {
		log.WithError(err).Error("Не удалось создать товар")
		b.sendMessage(chatID, "Something went wrong")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Product #%d created. Now add stock via 📦 Stock.", id))
}

func (b *Bot) adminAddStock(ctx context.Context, chatID, userID int64, st *session.State, input string) {
	productID, _ := strconv.ParseInt(st.Payload["product_id"], 10, 64)

	var payloads []string
	for _, line := range strings.Split(input, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			payloads = append(payloads, line)
		}
	}
	if len(payloads) == 0 {
		b.sendMessage(chatID, "❌ Send at least one item")
		return
	}

	b.sessions.Delete(userID)
	added, err := b.catalog.AddStock(ctx, productID, payloads)
	if err != nil {
		log.WithError(err).Error("Не удалось пополнить склад")
		b.sendMessage(chatID, "Something went wrong")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Added %d items to product #%d", added, productID))
}

func (b *Bot) adminAddFunds(ctx context.Context, chatID, adminID int64, input string, credits bool) {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		b.sendMessage(chatID, "❌ Format: <user id> <amount>")
		return
	}
	targetID, err1 := strconv.ParseInt(fields[0], 10, 64)
	amount, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil || amount <= 0 {
		b.sendMessage(chatID, "❌ Format: <user id> <amount>")
		return
	}

	b.sessions.Delete(adminID)
	note := fmt.Sprintf("Added by admin %d", adminID)
	var unit string
	if credits {
		err1 = b.wallet.AdminAddCredits(ctx, targetID, amount, adminID, note)
		unit = common.FormatCredits(amount)
	} else {
		err1 = b.wallet.AdminAddBalance(ctx, targetID, amount, adminID, note)
		unit = common.FormatNumber(amount) + " USDT"
	}
	if err1 != nil {
		log.WithError(err1).WithFields(log.Fields{"admin_id": adminID, "user_id": targetID}).Error("Начисление не удалось")
		b.sendMessage(chatID, "Something went wrong (does the user exist?)")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Added %s to user %d", unit, targetID))
	b.sendMessage(targetID, fmt.Sprintf("🎁 You received %s from the shop!", unit))
}

func (b *Bot) adminAddEvent(ctx context.Context, chatID, userID int64, input string) {
	parts := strings.Split(input, "|")
	if len(parts) < 5 {
		b.sendMessage(chatID, "❌ Format: <name> | <type> | <reward> | <fixed|percent> | <min amount> | <code or ->")
		return
	}

	ev := &events.Event{
		Name:       strings.TrimSpace(parts[0]),
		Type:       strings.ToLower(strings.TrimSpace(parts[1])),
		RewardType: strings.ToLower(strings.TrimSpace(parts[3])),
		IsActive:   true,
		MaxPerUser: 1,
	}
	var err error
	if ev.RewardAmount, err = strconv.ParseFloat(strings.TrimSpace(parts[2]), 64); err != nil {
		b.sendMessage(chatID, "❌ Bad reward amount")
		return
	}
	if ev.MinAmount, err = strconv.ParseFloat(strings.TrimSpace(parts[4]), 64); err != nil {
		b.sendMessage(chatID, "❌ Bad min amount")
		return
	}
	if len(parts) >= 6 {
		if code := strings.TrimSpace(parts[5]); code != "" && code != "-" {
			ev.Code = &code
		}
	}
	switch ev.Type {
	case events.TypeWelcome, events.TypeDeposit, events.TypePurchase, events.TypePromo, events.TypeManual:
	default:
		b.sendMessage(chatID, "❌ Type must be one of: welcome, deposit, purchase, promo, manual")
		return
	}
	if ev.Type == events.TypePromo && ev.Code == nil {
		b.sendMessage(chatID, "❌ Promo events need a code")
		return
	}

	b.sessions.Delete(userID)
	id, err := b.events.Create(ctx, ev)
	if err != nil {
		log.WithError(err).Error("Не удалось создать событие")
		b.sendMessage(chatID, "Something went wrong, check the fields")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Event #%d created and active", id))
}

func (b *Bot) adminUpdateReferralConfig(ctx context.Context, chatID, userID int64, input string) {
	fields := strings.Fields(input)
	if len(fields) != 3 {
		b.sendMessage(chatID, "❌ Format: <referrer bonus> <referee bonus> <min deposit>")
		return
	}
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			b.sendMessage(chatID, "❌ All three values must be non-negative numbers")
			return
		}
		vals[i] = v
	}

	b.sessions.Delete(userID)
	cfg := &referral.Config{ReferrerBonus: vals[0], RefereeBonus: vals[1], MinDepositForBonus: vals[2]}
	if err := b.referral.UpdateConfig(ctx, cfg); err != nil {
		log.WithError(err).Error("Не удалось обновить реферальные настройки")
		b.sendMessage(chatID, "Something went wrong")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ Referral config updated: %s / %s / min %s USDT",
		common.FormatCredits(vals[0]), common.FormatCredits(vals[1]), common.FormatNumber(vals[2])))
}
