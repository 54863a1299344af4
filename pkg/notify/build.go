package notify

import (
	"context"
	"time"
)

// Config selects the alert channels. Channels whose credentials are empty are skipped.
type Config struct {
	SlackWebhookURL  string `json:"-"`
	SlackIconEmoji   string
	TelegramBotToken string `json:"-"`
	TelegramChatID   string
	TelegramBaseURL  string
	SNS              SNSConfig
	Timeout          time.Duration
}

// New builds a Multi over every configured channel. With no channel configured
// the alerts go to the log.
func New(ctx context.Context, cfg Config, log Logger) (*Multi, error) {
	var channels []Notifier

	if cfg.SlackWebhookURL != "" {
		s, err := NewSlack(cfg.SlackWebhookURL, cfg.SlackIconEmoji, cfg.Timeout, log)
		if err != nil {
			return nil, err
		}
		channels = append(channels, s)
	}
	if cfg.TelegramBotToken != "" || cfg.TelegramChatID != "" {
		t, err := NewTelegram(cfg.TelegramBaseURL, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		channels = append(channels, t)
	}
	if cfg.SNS.TopicARN != "" {
		s, err := NewSNS(ctx, cfg.SNS)
		if err != nil {
			return nil, err
		}
		channels = append(channels, s)
	}
	if len(channels) == 0 {
		channels = append(channels, NewLogNotifier(log))
	}
	return NewMulti(channels...), nil
}
