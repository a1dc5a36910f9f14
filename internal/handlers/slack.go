package handlers

import (
	"context"
	"errors"
	"strings"
)

// Onboarder runs the onboarding workflows; *onboarding.Service implements it.
type Onboarder interface {
	Start(ctx context.Context, userID string) error
	Complete(ctx context.Context, userID string) error
}

const (
	msgOnboardingInitiated = "Onboarding initiated"
	msgEventIgnored        = "Event ignored"
	msgInvalidBody         = "Invalid request body"

	msgOnboardingComplete = "Onboarding marked as complete"
	msgCompleteFailed     = "Failed to mark onboarding as complete"
	msgActionIgnored      = "Action ignored"
	msgInvalidPayload     = "Invalid payload"
)

type SlackHandler struct {
	onboarder Onboarder
	channelID string
}

func NewSlackHandler(onboarder Onboarder, onboardingChannelID string) (*SlackHandler, error) {
	if onboarder == nil {
		return nil, errors.New("handlers: onboarder must not be nil")
	}
	onboardingChannelID = strings.TrimSpace(onboardingChannelID)
	if onboardingChannelID == "" {
		return nil, errors.New("handlers: onboarding channel id must not be empty")
	}
	return &SlackHandler{onboarder: onboarder, channelID: onboardingChannelID}, nil
}
