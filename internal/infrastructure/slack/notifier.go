package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"

	"SlicerQC/internal/ports"
)

// Notifier posts messages to one Slack channel.
type Notifier struct {
	api       *slackapi.Client
	channelID string
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a bot client. apiURL overrides the Slack Web API base
// and must end with a slash; leave it empty in production.
func NewNotifier(token, channelID, apiURL string) *Notifier {
	var opts []slackapi.Option
	if apiURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(apiURL))
	}
	return &Notifier{
		api:       slackapi.New(token, opts...),
		channelID: channelID,
	}
}

func (n *Notifier) Name() string {
	return "slack"
}

// Publish posts the subject in bold followed by the body.
func (n *Notifier) Publish(ctx context.Context, subject, body string) error {
	if n.channelID == "" {
		return fmt.Errorf("slack channel is not configured")
	}

	text := body
	if subject != "" {
		text = fmt.Sprintf("*%s*\n%s", subject, body)
	}

	if _, _, err := n.api.PostMessageContext(ctx, n.channelID, slackapi.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}
