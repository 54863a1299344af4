package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
)

const slackFallbackText = "notification delivery failed"

type slackPayload struct {
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// Slack posts messages to an incoming webhook.
type Slack struct {
	webhookURL string
	iconEmoji  string
	client     *resty.Client
	log        Logger
}

// NewSlack builds a webhook notifier.
func NewSlack(webhookURL, iconEmoji string, timeout time.Duration, log Logger) (*Slack, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("slack webhook url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Slack{
		webhookURL: webhookURL,
		iconEmoji:  iconEmoji,
		client:     httpclient.NewRestyHTTPClient(timeout),
		log:        ensureLogger(log),
	}, nil
}

// Notify posts msg. On a non-2xx reply a short fallback message is attempted
// before the original failure is returned.
func (s *Slack) Notify(ctx context.Context, msg Message) error {
	status, body, err := s.post(ctx, slackPayload{Text: msg.Text, Username: msg.Username, IconEmoji: s.iconEmoji})
	if err != nil {
		return fmt.Errorf("%w: slack request: %v", ErrNotifyFailed, err)
	}
	if status >= 200 && status < 300 {
		return nil
	}

	fallback := fmt.Sprintf("%s (status %d)", slackFallbackText, status)
	if _, _, ferr := s.post(ctx, slackPayload{Text: fallback, Username: msg.Username, IconEmoji: s.iconEmoji}); ferr != nil {
		s.log.WarnObj("slack fallback message failed", "notify_error", map[string]any{
			"error": ferr.Error(),
		})
	}
	return fmt.Errorf("%w: slack response status %d: %s", ErrNotifyFailed, status, body)
}

func (s *Slack) post(ctx context.Context, payload slackPayload) (int, string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.webhookURL)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode(), readBodySnippet(resp.Body()), nil
}

func readBodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
