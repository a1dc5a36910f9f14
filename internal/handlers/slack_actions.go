package handlers

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	goslack "github.com/slack-go/slack"

	"onboarding-bot/internal/onboarding"
)

type actionPayload struct {
	Type string `json:"type"`
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
}

// --- POST /slack/actions ---

func (h *SlackHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	raw, ok := readPayload(w, r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	var payload actionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		writeMessage(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	if payload.Type != string(goslack.InteractionTypeBlockActions) ||
		len(payload.Actions) == 0 ||
		payload.Actions[0].ActionID != onboarding.CompleteActionID ||
		payload.User.ID == "" {
		writeMessage(w, http.StatusOK, msgActionIgnored)
		return
	}

	if err := h.onboarder.Complete(r.Context(), payload.User.ID); err != nil {
		slog.Error("error marking onboarding as complete",
			"user_id", payload.User.ID, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeMessage(w, http.StatusInternalServerError, msgCompleteFailed)
		return
	}
	writeMessage(w, http.StatusOK, msgOnboardingComplete)
}

// readPayload extracts the interaction payload. Slack posts it as a form
// field; a JSON body {"payload": "..."} is accepted as well.
func readPayload(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Payload string `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Payload == "" {
			return "", false
		}
		return body.Payload, true
	}

	if err := r.ParseForm(); err != nil {
		return "", false
	}
	payload := r.PostForm.Get("payload")
	return payload, payload != ""
}
