package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender delivers a message to the configured chat.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Options configures a TelegramNotifier.
type Options struct {
	BotToken       string
	ChatID         int64
	Endpoint       string // tgbotapi.APIEndpoint when empty
	ProxyURL       string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	PollTimeout    int     // seconds of long polling per getUpdates call
	AllowedChats   []int64 // chats besides ChatID whose commands are answered
	Logger         zerolog.Logger
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64

	maxRetries     int
	initialBackoff time.Duration
	pollTimeout    int
	allowed        map[int64]bool
	logger         zerolog.Logger
}

// NewTelegramNotifier authenticates the bot and returns a notifier bound to one chat.
func NewTelegramNotifier(opts Options) (*TelegramNotifier, error) {
	if opts.BotToken == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.Timeout == 0 {
		opts.Timeout = 40 * time.Second
	}
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.PollTimeout < 0 {
		opts.PollTimeout = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.ProxyURL != "" {
		u, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	client := &http.Client{Timeout: opts.Timeout, Transport: transport}

	logger := opts.Logger.With().Str("component", "telegram").Logger()
	_ = tgbotapi.SetLogger(botLogger{logger})

	bot, err := tgbotapi.NewBotAPIWithClient(opts.BotToken, opts.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Int64("chat_id", opts.ChatID).Msg("telegram bot authorized")

	allowed := map[int64]bool{opts.ChatID: true}
	for _, id := range opts.AllowedChats {
		allowed[id] = true
	}

	return &TelegramNotifier{
		Bot:            bot,
		ChatID:         opts.ChatID,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		pollTimeout:    opts.PollTimeout,
		allowed:        allowed,
		logger:         logger,
	}, nil
}

// Send sends an HTML message to the configured chat, retrying transient failures.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.SendWithRetry(ctx, t.ChatID, text, t.maxRetries)
}

// SendWithRetry sends a message with exponential backoff retry.
// API rejections other than rate limiting are not retried.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.initialBackoff
	var policy backoff.BackOff = backoff.WithMaxRetries(bo, uint64(max(maxRetries, 0)))
	policy = backoff.WithContext(policy, ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		_, err := t.Bot.Send(msg)
		if err == nil {
			return nil
		}
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code != http.StatusTooManyRequests && apiErr.Code < 500 {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		t.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("telegram send failed")
	})
	if err != nil {
		return fmt.Errorf("telegram send after %d attempt(s): %w", attempt, err)
	}
	return nil
}

// botLogger routes the library's own log lines through zerolog.
type botLogger struct{ l zerolog.Logger }

func (b botLogger) Println(v ...interface{}) { b.l.Debug().Msg(fmt.Sprint(v...)) }

func (b botLogger) Printf(format string, v ...interface{}) { b.l.Debug().Msgf(format, v...) }
