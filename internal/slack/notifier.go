package slack

import (
	"context"

	goslack "github.com/slack-go/slack"

	"onboarding-bot/internal/models"
)

// Notifier posts Block Kit messages to a user or channel.
// *Client satisfies it; tests substitute a recording stub.
type Notifier interface {
	PostMessage(ctx context.Context, channelOrUserID string, blocks []goslack.Block) error
}

// Directory resolves Slack users to the identity used by the joiner sheet.
type Directory interface {
	ResolveUser(ctx context.Context, userID string) (models.UserProfile, error)
	ResolveUserEmail(ctx context.Context, userID string) (string, error)
}

var (
	_ Notifier  = (*Client)(nil)
	_ Directory = (*Client)(nil)
)
