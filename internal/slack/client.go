// Package slack wraps the Slack Web API calls used by the onboarding flow.
// Slack reports failure with ok:false in the response body; every such
// response is returned as a *models.UpstreamError.
package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"

	"onboarding-bot/internal/models"
)

const serviceName = "slack"

type Client struct {
	api     *goslack.Client
	timeout time.Duration
}

type Option func(*options)

type options struct {
	apiURL     string
	httpClient *http.Client
	timeout    time.Duration
}

// WithAPIURL points the client at another Web API root, e.g. a test server.
func WithAPIURL(u string) Option {
	return func(o *options) {
		if u = strings.TrimSpace(u); u != "" {
			o.apiURL = strings.TrimRight(u, "/") + "/"
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout bounds each Web API call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("slack: token must not be empty")
	}
	o := options{timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}

	apiOpts := []goslack.Option{goslack.OptionHTTPClient(o.httpClient)}
	if o.apiURL != "" {
		apiOpts = append(apiOpts, goslack.OptionAPIURL(o.apiURL))
	}
	return &Client{
		api:     goslack.New(token, apiOpts...),
		timeout: o.timeout,
	}, nil
}

// ResolveUser fetches users.info and maps it to a profile. The email is
// required; the full name falls back from the real name to the display name.
func (c *Client) ResolveUser(ctx context.Context, userID string) (models.UserProfile, error) {
	var user *goslack.User
	err := c.call(ctx, "users.info", func(ctx context.Context) error {
		var err error
		user, err = c.api.GetUserInfoContext(ctx, userID)
		return err
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	if user == nil || strings.TrimSpace(user.Profile.Email) == "" {
		return models.UserProfile{}, fmt.Errorf("slack: email not found for user %s: %w", userID, models.ErrNotFound)
	}

	name := firstNonEmpty(user.RealName, user.Profile.RealName, user.Profile.DisplayName, user.Name)
	return models.UserProfile{
		FullName:       name,
		Email:          strings.TrimSpace(user.Profile.Email),
		ExternalUserID: userID,
	}, nil
}

func (c *Client) ResolveUserEmail(ctx context.Context, userID string) (string, error) {
	profile, err := c.ResolveUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Email, nil
}

// PostMessage sends blocks to a channel, or to a user's DM when given a user id.
func (c *Client) PostMessage(ctx context.Context, channelOrUserID string, blocks []goslack.Block) error {
	return c.call(ctx, "chat.postMessage", func(ctx context.Context) error {
		_, _, err := c.api.PostMessageContext(ctx, channelOrUserID,
			goslack.MsgOptionBlocks(blocks...),
			goslack.MsgOptionText("Welcome! Here is your onboarding checklist.", false),
		)
		return err
	})
}

// call runs one Web API method under the per-call timeout and converts the
// library's error shapes into *models.UpstreamError.
func (c *Client) call(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := fn(ctx)
	if err == nil {
		return nil
	}

	upErr := &models.UpstreamError{Service: serviceName, Message: method + ": " + err.Error(), Err: err}

	var apiErr goslack.SlackErrorResponse
	var statusErr goslack.StatusCodeError
	var rateErr *goslack.RateLimitedError
	switch {
	case errors.As(err, &apiErr):
		upErr.Message = method + ": " + apiErr.Err
	case errors.As(err, &statusErr):
		upErr.Status = statusErr.Code
	case errors.As(err, &rateErr):
		upErr.Status = http.StatusTooManyRequests
	}
	return upErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
