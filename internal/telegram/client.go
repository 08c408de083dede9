package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/haytac/emote-relay/internal/database"
	"github.com/haytac/emote-relay/pkg/interfaces"
)

const (
	maxMessageLength        = 4096
	globalMessagesPerSecond = 25
	chatMessagesPerSecond   = 1
)

// ErrNoToken is returned by Send when no bot token is configured.
var ErrNoToken = errors.New("telegram bot token not configured")

// Client relays messages through one Telegram bot with global and per-chat rate limits.
type Client struct {
	token         string
	endpoint      string
	clientFactory interfaces.HTTPClientFactory

	botsMu sync.Mutex
	bots   map[int64]*tgbotapi.BotAPI // keyed by proxy id, 0 for direct

	globalLimiter  *rate.Limiter
	chatLimitersMu sync.Mutex
	chatLimiters   map[string]*rate.Limiter
}

// NewClient creates a Telegram client for the given bot token.
func NewClient(token string, clientFactory interfaces.HTTPClientFactory) *Client {
	return &Client{
		token:         token,
		endpoint:      tgbotapi.APIEndpoint,
		clientFactory: clientFactory,
		bots:          make(map[int64]*tgbotapi.BotAPI),
		globalLimiter: rate.NewLimiter(rate.Limit(globalMessagesPerSecond), globalMessagesPerSecond*2),
		chatLimiters:  make(map[string]*rate.Limiter),
	}
}

func (c *Client) botAPI(proxy *database.Proxy) (*tgbotapi.BotAPI, error) {
	var key int64
	if proxy != nil {
		key = proxy.ID
	}

	c.botsMu.Lock()
	defer c.botsMu.Unlock()
	if bot, ok := c.bots[key]; ok {
		return bot, nil
	}

	httpClient, err := c.clientFactory.GetClient(proxy)
	if err != nil {
		return nil, fmt.Errorf("failed to get HTTP client for Telegram bot: %w", err)
	}
	bot, err := tgbotapi.NewBotAPIWithClient(c.token, c.endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API instance: %w", err)
	}
	log.Info().Str("bot_username", bot.Self.UserName).Msg("Telegram bot authorized")
	c.bots[key] = bot
	return bot, nil
}

func (c *Client) chatLimiter(chatID string) *rate.Limiter {
	c.chatLimitersMu.Lock()
	defer c.chatLimitersMu.Unlock()
	limiter, ok := c.chatLimiters[chatID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(chatMessagesPerSecond), chatMessagesPerSecond*2)
		c.chatLimiters[chatID] = limiter
	}
	return limiter
}

// Send delivers parts to chatID in order. chatID is a numeric chat id or a
// channel username.
func (c *Client) Send(ctx context.Context, chatID string, parts []interfaces.MessagePart, proxy *database.Proxy) error {
	if c.token == "" {
		return ErrNoToken
	}
	bot, err := c.botAPI(proxy)
	if err != nil {
		return fmt.Errorf("getting bot API: %w", err)
	}

	numericID, errParse := strconv.ParseInt(chatID, 10, 64)
	l := log.With().Str("chat_id", chatID).Logger()

	for i, part := range parts {
		if part.Text == "" {
			l.Warn().Int("part_index", i).Msg("Skipping empty message part")
			continue
		}
		if err := c.globalLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("global rate limiter wait: %w", err)
		}
		if err := c.chatLimiter(chatID).Wait(ctx); err != nil {
			return fmt.Errorf("chat rate limiter wait for %s: %w", chatID, err)
		}

		msg := tgbotapi.MessageConfig{
			Text:                  part.Text,
			ParseMode:             part.ParseMode,
			DisableWebPagePreview: true,
		}
		if errParse != nil {
			msg.ChannelUsername = chatID
		} else {
			msg.ChatID = numericID
		}

		if _, err := bot.Send(msg); err != nil {
			l.Error().Err(err).Int("part_index", i).Msg("Failed to send message to Telegram")
			return fmt.Errorf("sending message part to chat '%s': %w", chatID, err)
		}
		l.Debug().Int("part_index", i).Int("text_length", len(part.Text)).Msg("Message part sent")
	}
	return nil
}

// SplitMessage cuts text into parts of at most 4096 runes.
func SplitMessage(text, parseMode string) []interfaces.MessagePart {
	runes := []rune(text)
	if len(runes) <= maxMessageLength {
		return []interfaces.MessagePart{{Text: text, ParseMode: parseMode}}
	}
	var parts []interfaces.MessagePart
	for start := 0; start < len(runes); start += maxMessageLength {
		end := min(start+maxMessageLength, len(runes))
		parts = append(parts, interfaces.MessagePart{Text: string(runes[start:end]), ParseMode: parseMode})
	}
	log.Warn().Int("original_len_runes", len(runes)).Int("num_parts", len(parts)).Msg("Message split due to length")
	return parts
}

// Name identifies the notifier in metrics.
func (c *Client) Name() string {
	return "telegram"
}
