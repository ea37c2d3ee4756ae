package notify

import (
	"context"
	"log"

	"github.com/slack-go/slack"
)

// Notifier announces light switches and other operator-facing events.
// Failures are the caller's to log; no notification is ever fatal.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// SlackNotifier posts messages to a Slack channel.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

// NewSlackNotifier creates a notifier posting to the given channel with a bot
// token.
func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token),
		channel: channel,
	}
}

func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	return err
}

// NopNotifier is used when no Slack token is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }

// FromConfig picks the Slack notifier when a token is configured and the
// no-op notifier otherwise.
func FromConfig(token, channel string, logger *log.Logger) Notifier {
	if token == "" || channel == "" {
		logger.Println("Slack notifications disabled (no token or channel configured)")
		return NopNotifier{}
	}
	logger.Printf("Slack notifications enabled for channel %s", channel)
	return NewSlackNotifier(token, channel)
}
