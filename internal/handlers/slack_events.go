package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/slack-go/slack/slackevents"
)

// eventEnvelope covers the two Events API shapes this service reacts to:
// the url_verification handshake and a wrapped member_joined_channel event.
type eventEnvelope struct {
	Type      string      `json:"type"`
	Challenge string      `json:"challenge"`
	Event     *innerEvent `json:"event"`
}

type innerEvent struct {
	Type    string  `json:"type"`
	Channel string  `json:"channel"`
	User    userRef `json:"user"`
}

// userRef accepts the user either as a bare id (Slack's wire format for
// member_joined_channel) or as an object carrying an id.
type userRef struct {
	ID string
}

func (u *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &u.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	u.ID = obj.ID
	return nil
}

// Slack sets these on every redelivery of an event it considers unacknowledged.
const (
	retryNumHeader    = "X-Slack-Retry-Num"
	retryReasonHeader = "X-Slack-Retry-Reason"
)

// --- POST /slack/events ---

func (h *SlackHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var env eventEnvelope
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&env); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if env.Type == string(slackevents.URLVerification) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, env.Challenge)
		return
	}

	if env.Event == nil || env.Event.Type != string(slackevents.MemberJoinedChannel) {
		writeMessage(w, http.StatusOK, msgEventIgnored)
		return
	}
	if env.Event.Channel != h.channelID {
		slog.Debug("member joined a different channel, ignoring", "channel", env.Event.Channel)
		writeMessage(w, http.StatusOK, msgEventIgnored)
		return
	}

	userID := env.Event.User.ID
	if retry := r.Header.Get(retryNumHeader); retry != "" {
		// The first delivery already ran (or is still running) the workflow.
		slog.Info("skipping redelivered member_joined_channel event",
			"user_id", userID, "retry_num", retry, "retry_reason", r.Header.Get(retryReasonHeader))
		writeMessage(w, http.StatusOK, msgOnboardingInitiated)
		return
	}

	if userID == "" {
		slog.Warn("member_joined_channel event without user", "request_id", middleware.GetReqID(r.Context()))
	} else if err := h.onboarder.Start(context.WithoutCancel(r.Context()), userID); err != nil {
		// Never surfaced: a non-2xx makes Slack redeliver and repeat side effects.
		slog.Error("error handling member_joined_channel event",
			"user_id", userID, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}

	writeMessage(w, http.StatusOK, msgOnboardingInitiated)
}
