package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/khanglvm/promptwatch/internal/config"
)

// TelegramBot is the subset of the Bot API the sink calls. Tests supply an
// in-memory fake through NewTelegramSinkWithFactory.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
}

// botAPI adapts *tgbotapi.BotAPI, which exposes the bot user as a field
// rather than a method.
type botAPI struct {
	*tgbotapi.BotAPI
}

func (b botAPI) GetSelf() tgbotapi.User { return b.Self }

// BotFactory connects a TelegramBot for token against endpoint.
type BotFactory func(token, endpoint string, client *http.Client) (TelegramBot, error)

func dialBot(token, endpoint string, client *http.Client) (TelegramBot, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, err
	}
	return botAPI{api}, nil
}

// TelegramSink sends notifications to a chat with one inline button per
// action. Button presses arrive as callback queries and complete the
// matching Notify call.
type TelegramSink struct {
	token      string
	chatID     int64
	proxy      string
	botFactory BotFactory

	bot    TelegramBot
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[string]chan string // notification ID -> chosen action
}

// NewTelegramSink creates a sink from configuration.
func NewTelegramSink(cfg config.TelegramConfig) (*TelegramSink, error) {
	return NewTelegramSinkWithFactory(cfg, dialBot)
}

// NewTelegramSinkWithFactory is NewTelegramSink with the Bot API connection
// made by factory.
func NewTelegramSinkWithFactory(cfg config.TelegramConfig, factory BotFactory) (*TelegramSink, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	return &TelegramSink{
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		proxy:      cfg.Proxy,
		botFactory: factory,
		pending:    make(map[string]chan string),
	}, nil
}

// proxyClient returns http.DefaultClient, or a client routed through proxy
// when one is configured.
func proxyClient(proxy string) (*http.Client, error) {
	if proxy == "" {
		return http.DefaultClient, nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("telegram proxy %q: %w", proxy, err)
	}
	return &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(u)}}, nil
}

func (t *TelegramSink) initBot() error {
	client, err := proxyClient(t.proxy)
	if err != nil {
		return err
	}
	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("connect telegram bot: %w", err)
	}
	t.bot = bot
	log.Printf("[telegram] authorized as @%s", bot.GetSelf().UserName)
	return nil
}

// Start connects the bot and listens for button presses until ctx ends or
// Stop is called.
func (t *TelegramSink) Start(ctx context.Context) error {
	if err := t.initBot(); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.CallbackQuery != nil {
					t.handleCallback(update.CallbackQuery)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("[telegram] polling started")
	return nil
}

// Stop ends polling.
func (t *TelegramSink) Stop() {
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	log.Printf("[telegram] stopped")
}

// Notify implements Sink. It sends the message and waits for a button press
// or for ctx to end.
func (t *TelegramSink) Notify(ctx context.Context, n Notification) (string, error) {
	if t.bot == nil {
		return "", fmt.Errorf("telegram sink not started")
	}

	msg := tgbotapi.NewMessage(t.chatID, formatTelegram(n))
	msg.DisableWebPagePreview = true
	if len(n.Actions) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, len(n.Actions))
		for i, a := range n.Actions {
			row[i] = tgbotapi.NewInlineKeyboardButtonData(a, callbackData(n.ID, i))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	ch := make(chan string, 1)
	t.mu.Lock()
	t.pending[n.ID] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, n.ID)
		t.mu.Unlock()
	}()

	if _, err := t.bot.Send(msg); err != nil {
		return "", fmt.Errorf("send telegram message: %w", err)
	}
	if len(n.Actions) == 0 {
		return "", nil
	}

	select {
	case idx := <-ch:
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(n.Actions) {
			return "", nil
		}
		return n.Actions[i], nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *TelegramSink) handleCallback(q *tgbotapi.CallbackQuery) {
	id, idx, ok := strings.Cut(q.Data, "|")
	if !ok {
		return
	}

	t.mu.Lock()
	ch, found := t.pending[id]
	t.mu.Unlock()

	answer := "Noted"
	if !found {
		answer = "This notification has expired"
	} else {
		select {
		case ch <- idx:
		default:
		}
	}

	if _, err := t.bot.Request(tgbotapi.NewCallback(q.ID, answer)); err != nil {
		log.Printf("[telegram] answer callback failed: %v", err)
	}
}

func callbackData(id string, i int) string {
	return id + "|" + strconv.Itoa(i)
}

func formatTelegram(n Notification) string {
	var b strings.Builder
	b.WriteString(n.Title)
	b.WriteString("\n\n")
	b.WriteString(n.Message)
	if prompt := n.ImprovedPrompt(); prompt != "" {
		b.WriteString("\n\nTry: ")
		b.WriteString(prompt)
	}
	if n.ResourceURL != "" {
		b.WriteString("\n")
		b.WriteString(n.ResourceURL)
	}
	return b.String()
}
