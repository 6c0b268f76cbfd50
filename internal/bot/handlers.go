// handlers.go — пользовательские команды, кнопки и многошаговые
// диалоги витрины: каталог, покупка, кошелёк, пополнение, кредиты.
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
	"shop-bot/internal/features/deposits"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/orders"
	"shop-bot/internal/features/wallet"
	"shop-bot/internal/payment"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━"

// handleCommand обрабатывает команды /start, /help и подобные.
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		// Диплинк вида /start ref_XXXX — приглашение по реферальной ссылке.
		payload := strings.TrimSpace(message.CommandArguments())
		if code, ok := strings.CutPrefix(payload, "ref_"); ok {
			b.applyReferralCode(ctx, chatID, userID, code)
		}
		// Приветственный бонус начисляется один раз: повторный
		// /start отфильтрует лимит на пользователя.
		for _, bonus := range b.events.ProcessAutoEvents(ctx, userID, events.TypeWelcome, 0, nil) {
			b.sendMessage(chatID, fmt.Sprintf("🎁 %s: +%s", bonus.EventName, common.FormatCredits(bonus.Amount)))
		}
		b.sendMainMenu(ctx, chatID, userID, 0)

	case "help":
		b.sendMessage(chatID, fmt.Sprintf(
			"🛍 %s\n%s\n\n/start — main menu\n/shop — browse products\n/wallet — balance and deposits\n/admin — admin panel",
			b.cfg.ShopName, divider))

	case "shop":
		b.showShop(ctx, chatID, 0)

	case "wallet":
		b.showWallet(ctx, chatID, userID, 0)

	case "admin":
		b.handleAdminCommand(ctx, chatID, userID)

	default:
		b.sendMessage(chatID, "Unknown command. Try /help")
	}
}

// handleCallback маршрутизирует нажатия inline-кнопок.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// У очень старых сообщений Telegram не присылает Message.
	if query.Message == nil {
		b.answerCallback(query.ID, "")
		return
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	if _, err := b.users.Register(ctx, userID, query.From.FirstName, query.From.UserName); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Register failed")
	}

	switch {
	case data == "back_main":
		b.sessions.Delete(userID)
		b.answerCallback(query.ID, "")
		b.sendMainMenu(ctx, chatID, userID, messageID)

	case data == "shop":
		b.answerCallback(query.ID, "")
		b.showShop(ctx, chatID, messageID)

	case strings.HasPrefix(data, "product_"):
		b.showProduct(ctx, query)

	case strings.HasPrefix(data, "qty_"):
		b.showPaymentChoice(ctx, query)

	case strings.HasPrefix(data, "pay_"):
		b.handleWalletPayment(ctx, query)

	case data == "wallet":
		b.answerCallback(query.ID, "")
		b.showWallet(ctx, chatID, userID, messageID)

	case data == "history":
		b.showHistory(ctx, query)

	case data == "deposit":
		b.showDepositMethods(query)

	case strings.HasPrefix(data, "dep_"):
		b.askDepositAmount(query)

	case strings.HasPrefix(data, "check_"):
		b.handleDepositCheck(ctx, query)

	case strings.HasPrefix(data, "cancel_"):
		b.handleDepositCancel(ctx, query)

	case data == "language":
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID, "🌐 LANGUAGE\n"+divider+"\n\nChoose language:",
			[][]tgbotapi.InlineKeyboardButton{
				row(btn("🇬🇧 English", "lang_en"), btn("🇻🇳 Tiếng Việt", "lang_vi"), btn("🇨🇳 中文", "lang_zh")),
				row(btn("⬅️ Back", "back_main")),
			})

	case strings.HasPrefix(data, "lang_"):
		lang := strings.TrimPrefix(data, "lang_")
		if err := b.users.SetLanguage(ctx, userID, lang); err != nil {
			b.alertCallback(query.ID, "Something went wrong")
			return
		}
		b.answerCallback(query.ID, "✅")
		b.sendMainMenu(ctx, chatID, userID, messageID)

	case data == "credits_menu":
		b.sessions.Delete(userID)
		b.answerCallback(query.ID, "")
		b.showCreditsMenu(ctx, chatID, userID, messageID)

	case data == "enter_promo":
		b.sessions.Set(userID, &session.State{Action: session.ActionEnterPromoCode, MessageID: messageID})
		b.answerCallback(query.ID, "")
		b.editMessage(chatID, messageID, "🎟️ PROMO CODE\n"+divider+"\n\n✏️ Enter code:",
			[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "credits_menu"))})

	case data == "enter_referral":
		b.promptReferralCode(ctx, query)

	case data == "my_referral":
		b.showMyReferral(ctx, query)

	case strings.HasPrefix(data, "admin"):
		b.handleAdminCallback(ctx, query)

	default:
		b.answerCallback(query.ID, "")
	}
}

// handleText обрабатывает свободный ввод в рамках диалога.
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	st := b.sessions.Get(userID)
	if st == nil {
		b.sendMainMenu(ctx, chatID, userID, 0)
		return
	}

	switch st.Action {
	case session.ActionEnterReferral:
		b.sessions.Delete(userID)
		b.applyReferralCode(ctx, chatID, userID, message.Text)

	case session.ActionEnterPromoCode:
		b.sessions.Delete(userID)
		reward, err := b.events.ClaimPromoCode(ctx, userID, message.Text)
		if err != nil {
			b.sendMessage(chatID, promoErrorText(err))
			return
		}
		b.sendMessage(chatID, fmt.Sprintf("✅ Promo code accepted!\n+%s", common.FormatCredits(reward)))

	case session.ActionEnterDepositSum:
		b.handleDepositAmount(ctx, message, st)

	case session.ActionAdminPassword,
		session.ActionAdminAddProduct,
		session.ActionAdminAddStock,
		session.ActionAdminAddBalance,
		session.ActionAdminAddCredits,
		session.ActionAdminAddEvent,
		session.ActionAdminRefConfig:
		b.handleAdminText(ctx, message, st)

	default:
		b.sessions.Delete(userID)
		b.sendMainMenu(ctx, chatID, userID, 0)
	}
}

// --- Главное меню ---

func (b *Bot) sendMainMenu(ctx context.Context, chatID, userID int64, messageID int) {
	w, err := b.wallet.GetWallet(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось получить кошелёк")
		b.sendMessage(chatID, "Something went wrong, try again later")
		return
	}

	text := fmt.Sprintf("🛍 %s\n%s\n\n💵 Balance: %s USDT\n🪙 Credits: %s",
		b.cfg.ShopName, divider,
		common.FormatNumber(w.Balance), common.FormatCredits(w.Credits))

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("🛒 Shop", "shop")),
		row(btn("💰 Wallet", "wallet"), btn("🪙 Credits", "credits_menu")),
		row(btn("🌐 Language", "language")),
	}

	if messageID != 0 {
		b.editMessage(chatID, messageID, text, keyboard)
	} else {
		b.sendWithKeyboard(chatID, text, keyboard)
	}
}

// --- Каталог и покупка ---

func (b *Bot) showShop(ctx context.Context, chatID int64, messageID int) {
	products, err := b.catalog.ListProducts(ctx, true)
	if err != nil {
		log.WithError(err).Error("Не удалось получить товары")
		b.sendMessage(chatID, "Something went wrong, try again later")
		return
	}

	text := "🛒 SHOP\n" + divider
	var keyboard [][]tgbotapi.InlineKeyboardButton
	if len(products) == 0 {
		text += "\n\nNo products yet, check back later"
	}
	for _, p := range products {
		label := fmt.Sprintf("%s — %s USDT (%d left)", p.Name, common.FormatNumber(p.Price), p.StockCount)
		keyboard = append(keyboard, row(btn(label, fmt.Sprintf("product_%d", p.ID))))
	}
	keyboard = append(keyboard, row(btn("⬅️ Back", "back_main")))

	if messageID != 0 {
		b.editMessage(chatID, messageID, text, keyboard)
	} else {
		b.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (b *Bot) showProduct(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := callbackParts(query.Data)
	if len(parts) != 2 {
		b.answerCallback(query.ID, "")
		return
	}
	productID, _ := strconv.ParseInt(parts[1], 10, 64)

	p, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		b.alertCallback(query.ID, "Product not found")
		return
	}

	text := fmt.Sprintf("🎁 %s\n%s\n\n%s\n\n💵 Price: %s USDT", p.Name, divider, p.Description, common.FormatNumber(p.Price))
	if p.CreditsEnabled {
		text += fmt.Sprintf("\nOr: %s", common.FormatCredits(p.PriceFor(wallet.PayCredits)))
	}
	text += fmt.Sprintf("\n📦 In stock: %d", p.StockCount)

	var qtyRow []tgbotapi.InlineKeyboardButton
	for _, q := range []int{1, 2, 5, 10} {
		if q <= p.StockCount {
			qtyRow = append(qtyRow, btn(fmt.Sprintf("x%d", q), fmt.Sprintf("qty_%d_%d", p.ID, q)))
		}
	}
	keyboard := [][]tgbotapi.InlineKeyboardButton{}
	if len(qtyRow) > 0 {
		keyboard = append(keyboard, qtyRow)
	} else {
		text += "\n\n❌ Out of stock"
	}
	keyboard = append(keyboard, row(btn("⬅️ Back", "shop")))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

func (b *Bot) showPaymentChoice(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := callbackParts(query.Data) // qty_<pid>_<n>
	if len(parts) != 3 {
		b.answerCallback(query.ID, "")
		return
	}
	productID, _ := strconv.ParseInt(parts[1], 10, 64)
	quantity, _ := strconv.Atoi(parts[2])

	p, err := b.catalog.GetProduct(ctx, productID)
	if err != nil {
		b.alertCallback(query.ID, "Product not found")
		return
	}

	total := p.Price * float64(quantity)
	text := fmt.Sprintf("🎁 %s x%d\n%s\n\n💵 Total: %s USDT\n\nChoose payment:",
		p.Name, quantity, divider, common.FormatNumber(total))

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("💵 Balance", fmt.Sprintf("pay_balance_%d_%d", productID, quantity))),
	}
	if p.CreditsEnabled {
		creditsTotal := p.PriceFor(wallet.PayCredits) * float64(quantity)
		keyboard = append(keyboard, row(btn(
			fmt.Sprintf("🪙 Credits (%s)", common.FormatCredits(creditsTotal)),
			fmt.Sprintf("pay_credits_%d_%d", productID, quantity))))
	}
	keyboard = append(keyboard,
		row(btn("💵+🪙 Auto", fmt.Sprintf("pay_auto_%d_%d", productID, quantity))),
		row(btn("⬅️ Back", fmt.Sprintf("product_%d", productID))))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

// handleWalletPayment проводит покупку с оплатой из кошелька.
func (b *Bot) handleWalletPayment(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := callbackParts(query.Data) // pay_<method>_<pid>_<qty>
	if len(parts) != 4 {
		b.answerCallback(query.ID, "")
		return
	}
	method := parts[1]
	productID, _ := strconv.ParseInt(parts[2], 10, 64)
	quantity, _ := strconv.Atoi(parts[3])

	userID := query.From.ID
	chatID := query.Message.Chat.ID

	res, err := b.orders.Purchase(ctx, userID, productID, quantity, method, chatID)
	if err != nil {
		b.alertCallback(query.ID, purchaseErrorText(err))
		return
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "✅ Payment successful!\n%s\n\n🎁 %s x%d\n💰 %s\n\n📦 Your items:\n",
		divider, res.Order.ProductName, res.Fulfilled, formatOrderTotal(res.Order))
	for i, payload := range res.Payloads {
		fmt.Fprintf(&msg, "  %d. %s\n", i+1, payload)
	}
	if res.Short() {
		fmt.Fprintf(&msg, "\n⚠️ Only %d of %d were available, the difference was refunded", res.Fulfilled, res.Requested)
	}
	if len(res.Bonuses) > 0 {
		msg.WriteString("\n🎁 BONUS:")
		for _, bonus := range res.Bonuses {
			fmt.Fprintf(&msg, "\n• %s: +%s", bonus.EventName, common.FormatCredits(bonus.Amount))
		}
	}

	b.answerCallback(query.ID, "✅ Success!")
	// Данные аккаунтов не должны оставаться в редактируемом
	// сообщении с кнопками — отправляем отдельным.
	b.sendMessage(chatID, msg.String())

	b.notifyAdmins(fmt.Sprintf("🔔 Order #%d\n👤 %d\n🎁 %s x%d\n💰 %s",
		res.Order.ID, userID, res.Order.ProductName, res.Fulfilled, formatOrderTotal(res.Order)))
}

func formatOrderTotal(o *orders.Order) string {
	if o.PaymentMethod == wallet.PayCredits {
		return common.FormatCredits(o.TotalPrice)
	}
	return common.FormatNumber(o.TotalPrice) + " USDT"
}

// --- Кошелёк и пополнение ---

func (b *Bot) showWallet(ctx context.Context, chatID, userID int64, messageID int) {
	w, err := b.wallet.GetWallet(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось получить кошелёк")
		b.sendMessage(chatID, "Something went wrong, try again later")
		return
	}

	text := fmt.Sprintf("💰 WALLET\n%s\n\n💵 Balance: %s USDT\n🪙 Credits: %s\n\n📉 Spent: %s USDT + %s",
		divider,
		common.FormatNumber(w.Balance), common.FormatCredits(w.Credits),
		common.FormatNumber(w.BalanceSpent), common.FormatCredits(w.CreditsSpent))

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("➕ Deposit", "deposit")),
		row(btn("📜 History", "history")),
		row(btn("⬅️ Back", "back_main")),
	}
	if messageID != 0 {
		b.editMessage(chatID, messageID, text, keyboard)
	} else {
		b.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (b *Bot) showHistory(ctx context.Context, query *tgbotapi.CallbackQuery) {
	txs, err := b.wallet.History(ctx, query.From.ID, 10)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := "📜 HISTORY\n" + divider + "\n"
	if len(txs) == 0 {
		text += "\nNo transactions yet"
	}
	for _, tx := range txs {
		sign := "+"
		if tx.Amount < 0 {
			sign = ""
		}
		unit := "USDT"
		if tx.Currency == wallet.CurrencyCredits {
			unit = "🪙"
		}
		text += fmt.Sprintf("\n%s  %s%s %s  (%s)",
			common.FormatDateShort(tx.CreatedAt), sign, common.FormatNumber(tx.Amount), unit, tx.Type)
	}

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Back", "wallet"))})
}

func (b *Bot) showDepositMethods(query *tgbotapi.CallbackQuery) {
	methods := b.deposits.AvailableMethods()
	if len(methods) == 0 {
		b.alertCallback(query.ID, "Deposits are temporarily unavailable")
		return
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, m := range methods {
		icon := "💰"
		if m.ID == payment.MethodBank {
			icon = "🏦"
		}
		keyboard = append(keyboard, row(btn(
			fmt.Sprintf("%s %s (%s)", icon, m.Name, m.Currency),
			"dep_"+m.ID)))
	}
	keyboard = append(keyboard, row(btn("⬅️ Back", "wallet")))

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		"➕ DEPOSIT\n"+divider+"\n\nChoose method:", keyboard)
}

func (b *Bot) askDepositAmount(query *tgbotapi.CallbackQuery) {
	parts := callbackParts(query.Data) // dep_<method>
	if len(parts) != 2 {
		b.answerCallback(query.ID, "")
		return
	}
	method := parts[1]

	currency := "USDT"
	hint := "e.g. 10"
	if method == payment.MethodBank {
		currency = "VND"
		hint = "e.g. 250000"
	}

	b.sessions.Set(query.From.ID, &session.State{
		Action:    session.ActionEnterDepositSum,
		MessageID: query.Message.MessageID,
		Payload:   map[string]string{"method": method},
	})

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		fmt.Sprintf("➕ DEPOSIT\n%s\n\n✏️ Enter amount in %s (%s):", divider, currency, hint),
		[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "wallet"))})
}

func (b *Bot) handleDepositAmount(ctx context.Context, message *tgbotapi.Message, st *session.State) {
	userID := message.From.ID
	chatID := message.Chat.ID

	amount, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(message.Text, ",", ".")), 64)
	if err != nil || amount <= 0 {
		b.sendMessage(chatID, "❌ Enter a positive number")
		return
	}
	b.sessions.Delete(userID)

	created, err := b.deposits.CreateDeposit(ctx, userID, amount, st.Payload["method"], chatID)
	if err != nil {
		if errors.Is(err, common.ErrGatewayNotConfigured) {
			b.sendMessage(chatID, "❌ This payment method is unavailable right now")
		} else {
			b.sendMessage(chatID, "Something went wrong, try again later")
		}
		return
	}

	b.sendDepositInstructions(chatID, created)
}

func (b *Bot) sendDepositInstructions(chatID int64, created *deposits.Created) {
	ins := created.Instructions
	code := created.Deposit.PaymentCode

	var msg strings.Builder
	fmt.Fprintf(&msg, "➕ DEPOSIT\n%s\n\n💰 Amount: %s\n", divider, common.FormatPrice(ins.Amount, ins.Currency))
	switch ins.Method {
	case payment.MethodBinance:
		fmt.Fprintf(&msg, "\n🆔 Binance Pay ID: %s\n📝 Note (required!): %s\n\nSend the exact amount with the note above.", ins.BinanceID, ins.Code)
	case payment.MethodBank:
		fmt.Fprintf(&msg, "\n🏦 %s\n💳 %s\n👤 %s\n📝 Transfer note (required!): %s\n\n🔗 QR: %s",
			ins.BankName, ins.AccountNumber, ins.AccountOwner, ins.Code, ins.QRURL)
	}
	fmt.Fprintf(&msg, "\n\n⏳ Valid until: %s", common.FormatDateTime(created.Deposit.ExpiresAt))

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("🔄 I have paid", "check_"+code)),
		row(btn("❌ Cancel", "cancel_"+code)),
	}
	b.sendWithKeyboard(chatID, msg.String(), keyboard)
}

func (b *Bot) handleDepositCheck(ctx context.Context, query *tgbotapi.CallbackQuery) {
	code := strings.TrimPrefix(query.Data, "check_")

	res, err := b.deposits.CheckDeposit(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrDepositNotFound) {
			b.alertCallback(query.ID, "Deposit not found")
		} else {
			b.alertCallback(query.ID, "Something went wrong, try again")
		}
		return
	}

	if !res.Confirmed {
		switch res.Deposit.Status {
		case deposits.StatusCompleted:
			b.alertCallback(query.ID, "✅ Already credited")
		case deposits.StatusExpired:
			b.alertCallback(query.ID, "⌛ Deposit expired, create a new one")
		case deposits.StatusCancelled:
			b.alertCallback(query.ID, "Deposit was cancelled")
		default:
			b.alertCallback(query.ID, "⏳ Payment not confirmed yet, try again in a minute")
		}
		return
	}

	b.answerCallback(query.ID, "✅")
	text := fmt.Sprintf("✅ Deposit confirmed!\n%s\n\n+%s USDT", divider, common.FormatNumber(res.Credited))
	if len(res.Bonuses) > 0 {
		text += "\n\n🎁 BONUS:"
		for _, bonus := range res.Bonuses {
			text += fmt.Sprintf("\n• %s: +%s", bonus.EventName, common.FormatCredits(bonus.Amount))
		}
	}
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Menu", "back_main"))})
}

func (b *Bot) handleDepositCancel(ctx context.Context, query *tgbotapi.CallbackQuery) {
	code := strings.TrimPrefix(query.Data, "cancel_")

	if err := b.deposits.CancelDeposit(ctx, code); err != nil {
		if errors.Is(err, common.ErrDepositNotPending) {
			b.alertCallback(query.ID, "Deposit is already closed")
		} else {
			b.alertCallback(query.ID, "Something went wrong")
		}
		return
	}
	b.answerCallback(query.ID, "Cancelled")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		"❌ Deposit cancelled", [][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Menu", "back_main"))})
}

// --- Кредиты, промокоды, рефералка ---

func (b *Bot) showCreditsMenu(ctx context.Context, chatID, userID int64, messageID int) {
	w, err := b.wallet.GetWallet(ctx, userID)
	if err != nil {
		b.sendMessage(chatID, "Something went wrong, try again later")
		return
	}

	text := fmt.Sprintf("🪙 CREDITS\n%s\n\nYou have: %s\n\nEarn credits with promo codes and referrals, spend them on credit-enabled products.",
		divider, common.FormatCredits(w.Credits))

	keyboard := [][]tgbotapi.InlineKeyboardButton{
		row(btn("🎟️ Enter promo code", "enter_promo")),
		row(btn("👥 My referral link", "my_referral")),
		row(btn("✏️ Enter referral code", "enter_referral")),
		row(btn("⬅️ Back", "back_main")),
	}
	if messageID != 0 {
		b.editMessage(chatID, messageID, text, keyboard)
	} else {
		b.sendWithKeyboard(chatID, text, keyboard)
	}
}

func (b *Bot) promptReferralCode(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	u, err := b.users.GetByID(ctx, userID)
	if err == nil && u.ReferredBy != nil {
		b.alertCallback(query.ID, "You already have a referrer")
		return
	}

	b.sessions.Set(userID, &session.State{Action: session.ActionEnterReferral, MessageID: query.Message.MessageID})
	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID,
		"✏️ REFERRAL CODE\n"+divider+"\n\nEnter the code you were invited with:",
		[][]tgbotapi.InlineKeyboardButton{row(btn("Cancel", "credits_menu"))})
}

func (b *Bot) applyReferralCode(ctx context.Context, chatID, userID int64, code string) {
	referrer, err := b.referral.ProcessReferral(ctx, userID, strings.TrimSpace(code))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidReferralCode):
			b.sendMessage(chatID, "❌ Invalid referral code")
		case errors.Is(err, common.ErrSelfReferral):
			b.sendMessage(chatID, "❌ You cannot use your own code")
		case errors.Is(err, common.ErrAlreadyReferred):
			// Тихо: повторный заход по ссылке не должен ругаться.
		default:
			b.sendMessage(chatID, "Something went wrong, try again later")
		}
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ You were invited by %s! Welcome bonus added to your credits.", referrer.FullName()))
}

func (b *Bot) showMyReferral(ctx context.Context, query *tgbotapi.CallbackQuery) {
	info, err := b.referral.GetInfo(ctx, query.From.ID)
	if err != nil {
		b.alertCallback(query.ID, "Something went wrong")
		return
	}

	text := fmt.Sprintf(
		"👥 REFERRAL PROGRAM\n%s\n\n🔑 Your code: %s\n🔗 %s\n\n👤 Invited: %d\n🪙 Earned: %s\n\nEach friend gives you %s",
		divider, info.Code, info.Link, info.Referrals,
		common.FormatCredits(info.TotalEarned), common.FormatCredits(info.ReferrerBonus))
	if info.MinDeposit > 0 {
		text += fmt.Sprintf(" after they deposit %s USDT", common.FormatNumber(info.MinDeposit))
	}

	b.answerCallback(query.ID, "")
	b.editMessage(query.Message.Chat.ID, query.Message.MessageID, text,
		[][]tgbotapi.InlineKeyboardButton{row(btn("⬅️ Back", "credits_menu"))})
}

// --- Тексты ошибок ---

func purchaseErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientBalance):
		return "❌ Not enough balance"
	case errors.Is(err, common.ErrInsufficientCredits):
		return "❌ Not enough credits"
	case errors.Is(err, common.ErrInsufficientFunds):
		return "❌ Not enough funds"
	case errors.Is(err, common.ErrOutOfStock):
		return "❌ Out of stock, money refunded"
	case errors.Is(err, common.ErrProductNotFound), errors.Is(err, common.ErrProductInactive):
		return "❌ Product is unavailable"
	case errors.Is(err, common.ErrCreditsNotAccepted):
		return "❌ This product cannot be paid with credits"
	default:
		return "Something went wrong, try again later"
	}
}

func promoErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidPromoCode):
		return "❌ Invalid promo code"
	case errors.Is(err, common.ErrEventAlreadyClaimed):
		return "❌ You have already used this code"
	case errors.Is(err, common.ErrEventMaxClaims):
		return "❌ This code has run out"
	case errors.Is(err, common.ErrEventNotStarted), errors.Is(err, common.ErrEventEnded), errors.Is(err, common.ErrEventInactive):
		return "❌ This code is not active"
	default:
		return "Something went wrong, try again later"
	}
}
