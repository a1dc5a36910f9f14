package slack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"onboarding-bot/internal/models"
)

// fakeSlack serves canned Web API responses keyed by method name.
func fakeSlack(t *testing.T, responses map[string]string) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[1:]
		calls = append(calls, method)
		body, ok := responses[method]
		if !ok {
			body = `{"ok":false,"error":"unknown_method"}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("xoxb-test", WithAPIURL(srv.URL), WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestResolveUser(t *testing.T) {
	srv, calls := fakeSlack(t, map[string]string{
		"users.info": `{"ok":true,"user":{"id":"U1","name":"ada","real_name":"Ada Lovelace","profile":{"email":"ada@example.com"}}}`,
	})

	profile, err := newTestClient(t, srv).ResolveUser(context.Background(), "U1")
	require.NoError(t, err)
	require.Equal(t, models.UserProfile{FullName: "Ada Lovelace", Email: "ada@example.com", ExternalUserID: "U1"}, profile)
	require.Equal(t, []string{"users.info"}, *calls)
}

func TestResolveUserEmail_MissingEmailIsNotFound(t *testing.T) {
	srv, _ := fakeSlack(t, map[string]string{
		"users.info": `{"ok":true,"user":{"id":"U1","name":"ada","profile":{}}}`,
	})

	_, err := newTestClient(t, srv).ResolveUserEmail(context.Background(), "U1")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestResolveUserEmail_OkFalseIsUpstreamError(t *testing.T) {
	srv, _ := fakeSlack(t, map[string]string{
		"users.info": `{"ok":false,"error":"user_not_found"}`,
	})

	_, err := newTestClient(t, srv).ResolveUserEmail(context.Background(), "U404")
	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, "slack", upErr.Service)
	require.Contains(t, upErr.Message, "user_not_found")
	require.False(t, errors.Is(err, models.ErrNotFound))
}

func TestPostMessage(t *testing.T) {
	srv, calls := fakeSlack(t, map[string]string{
		"chat.postMessage": `{"ok":true,"channel":"D1","ts":"1700000000.000100"}`,
	})

	blocks := []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, "hi", false, false), nil, nil),
	}
	require.NoError(t, newTestClient(t, srv).PostMessage(context.Background(), "U1", blocks))
	require.Equal(t, []string{"chat.postMessage"}, *calls)
}

func TestPostMessage_OkFalse(t *testing.T) {
	srv, _ := fakeSlack(t, map[string]string{
		"chat.postMessage": `{"ok":false,"error":"channel_not_found"}`,
	})

	err := newTestClient(t, srv).PostMessage(context.Background(), "C404", nil)
	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, "slack API request failed: chat.postMessage: channel_not_found", upErr.Error())
}
