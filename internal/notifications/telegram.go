package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/devicehub-backend/pkg/config"
)

// Telegram posts order announcements to an admin chat through the Bot API.
type Telegram struct {
	baseURL  string
	token    string
	chatID   string
	currency string
	client   *http.Client
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewTelegram returns nil when the bot token or admin chat id is missing.
func NewTelegram(cfg config.TelegramConfig, client *http.Client) *Telegram {
	if !cfg.Enabled() {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Telegram{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.BotToken,
		chatID:   cfg.AdminChatID,
		currency: cfg.Currency,
		client:   client,
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) NotifyOrderPlaced(ctx context.Context, event OrderPlaced) error {
	return t.send(ctx, FormatOrderMessage(event, t.currency))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(telegramMessage{ChatID: t.chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatOrderMessage renders the HTML admin message for an order.
func FormatOrderMessage(event OrderPlaced, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 <b>New order #%s</b>\n\n", html.EscapeString(event.OrderNumber))
	fmt.Fprintf(&b, "👤 %s\n", html.EscapeString(event.CustomerName))
	fmt.Fprintf(&b, "📞 %s\n", html.EscapeString(event.PhoneNumber))
	fmt.Fprintf(&b, "📍 %s\n\n", html.EscapeString(event.Address))

	for i, item := range event.Items {
		fmt.Fprintf(&b, "%d. <b>%s</b>", i+1, html.EscapeString(item.Name))
		if options := itemOptions(item); options != "" {
			fmt.Fprintf(&b, " (%s)", html.EscapeString(options))
		}
		fmt.Fprintf(&b, "\n   %d x %s = %s\n",
			item.Quantity,
			FormatPrice(item.UnitPrice, currency),
			FormatPrice(item.LineTotal, currency),
		)
	}

	if event.PromoCode != nil {
		fmt.Fprintf(&b, "\n🏷 Promo: <code>%s</code>", html.EscapeString(*event.PromoCode))
		if event.Discount.IsPositive() {
			fmt.Fprintf(&b, " (−%s)", FormatPrice(event.Discount, currency))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n💰 <b>Total: %s</b>", FormatPrice(event.Total, currency))
	return b.String()
}

func itemOptions(item OrderItem) string {
	var parts []string
	if item.Color != nil && *item.Color != "" {
		parts = append(parts, *item.Color)
	}
	if item.Storage != nil && *item.Storage != "" {
		parts = append(parts, *item.Storage)
	}
	return strings.Join(parts, ", ")
}

// FormatPrice renders a whole-unit amount with thousands separators.
func FormatPrice(amount decimal.Decimal, currency string) string {
	str := amount.Round(0).Abs().String()

	var result strings.Builder
	if amount.Round(0).IsNegative() {
		result.WriteString("-")
	}
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}
	if currency == "" {
		return result.String()
	}
	return result.String() + " " + currency
}
