package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends messages through the Bot API.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *resty.Client
}

// NewTelegram builds a bot notifier. An empty baseURL uses the public API.
func NewTelegram(baseURL, token, chatID string, timeout time.Duration) (*Telegram, error) {
	token = strings.TrimSpace(token)
	chatID = strings.TrimSpace(chatID)
	if token == "" || chatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat id are required")
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = telegramAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		baseURL: baseURL,
		token:   token,
		chatID:  chatID,
		client:  httpclient.NewRestyHTTPClient(timeout),
	}, nil
}

func (t *Telegram) Notify(ctx context.Context, msg Message) error {
	text := msg.Text
	if msg.Username != "" {
		text = fmt.Sprintf("[%s] %s", msg.Username, msg.Text)
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": t.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token))
	if err != nil {
		return fmt.Errorf("%w: telegram request: %v", ErrNotifyFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: telegram response status %d: %s", ErrNotifyFailed, resp.StatusCode(), readBodySnippet(resp.Body()))
	}
	return nil
}
