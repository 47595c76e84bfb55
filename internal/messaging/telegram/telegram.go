// Package telegram реализует messaging.Messenger поверх Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/signal-club/internal/lib/sl"
	"github.com/magabrotheeeer/signal-club/internal/messaging"
)

// Client отправляет запросы в Bot API, соблюдая общий лимит частоты.
type Client struct {
	bot        *tgbotapi.BotAPI
	limiter    *rate.Limiter
	deliveries *prometheus.CounterVec
	log        *slog.Logger
}

// Options параметры клиента.
type Options struct {
	Token       string
	APIEndpoint string
	RateLimit   float64
	RateBurst   int
	HTTPClient  *http.Client
	Deliveries  *prometheus.CounterVec
}

// New создаёт клиента и проверяет токен запросом getMe.
func New(opts Options, log *slog.Logger) (*Client, error) {
	const op = "telegram.New"

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := opts.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}

	log.Info("telegram client authorized", slog.String("bot", bot.Self.UserName))
	return &Client{
		bot:        bot,
		limiter:    rate.NewLimiter(limit, burst),
		deliveries: opts.Deliveries,
		log:        log,
	}, nil
}

// SendMessage отправляет текст в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, format messaging.Format) error {
	const op = "telegram.SendMessage"
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = string(format)
	msg.DisableWebPagePreview = format == messaging.FormatHTML

	_, err := c.bot.Send(msg)
	c.observe("message", err)
	if err != nil {
		return fmt.Errorf("%s: chat %d: %w", op, chatID, err)
	}
	return nil
}

// RevokeMembership исключает пользователя из группы.
func (c *Client) RevokeMembership(ctx context.Context, groupID, userID int64) error {
	const op = "telegram.RevokeMembership"
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := c.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: groupID, UserID: userID},
	})
	c.observe("ban", err)
	if err != nil {
		return fmt.Errorf("%s: group %d user %d: %w", op, groupID, userID, err)
	}
	return nil
}

// RestoreEligibility снимает блокировку, чтобы пользователь мог вернуться по новой подписке.
func (c *Client) RestoreEligibility(ctx context.Context, groupID, userID int64) error {
	const op = "telegram.RestoreEligibility"
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := c.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: groupID, UserID: userID},
		OnlyIfBanned:     true,
	})
	c.observe("unban", err)
	if err != nil {
		return fmt.Errorf("%s: group %d user %d: %w", op, groupID, userID, err)
	}
	return nil
}

// CreateSingleUseInvite создаёт ссылку на одного участника, действующую до expiry.
func (c *Client) CreateSingleUseInvite(ctx context.Context, groupID, userID int64, expiry time.Time) (string, error) {
	const op = "telegram.CreateSingleUseInvite"
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: groupID},
		Name:        fmt.Sprintf("Sub %d", userID),
		ExpireDate:  int(expiry.Unix()),
		MemberLimit: 1,
	})
	c.observe("invite", err)
	if err != nil {
		return "", fmt.Errorf("%s: group %d: %w", op, groupID, err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("%s: decode invite link: %w", op, err)
	}
	if link.InviteLink == "" {
		return "", fmt.Errorf("%s: group %d: empty invite link", op, groupID)
	}
	return link.InviteLink, nil
}

func (c *Client) observe(kind string, err error) {
	if err != nil {
		c.log.Debug("telegram request failed", slog.String("kind", kind), sl.Err(err))
	}
	if c.deliveries == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.deliveries.WithLabelValues(kind, result).Inc()
}
