// Package mailer sends the onboarding checklist by email as a companion to
// the Slack message.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/resend/resend-go/v2"

	"onboarding-bot/internal/models"
)

// Mailer delivers the welcome email for a joiner.
type Mailer interface {
	SendWelcome(ctx context.Context, profile models.UserProfile, plan models.OnboardingPlan) error
}

// New returns a Resend-backed mailer, or a LogMailer when no API key is set.
func New(apiKey, from string) Mailer {
	if strings.TrimSpace(apiKey) == "" {
		slog.Warn("RESEND_API_KEY not set, welcome emails are logged instead of sent")
		return &LogMailer{}
	}
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

func (m *ResendMailer) SendWelcome(ctx context.Context, profile models.UserProfile, plan models.OnboardingPlan) error {
	html, err := RenderWelcome(profile, plan)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{profile.Email},
		Subject: "Your onboarding checklist",
		Html:    html,
	}
	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("mailer: send welcome email: %w", err)
	}
	slog.Info("welcome email sent", "email_id", sent.Id, "to", profile.Email)
	return nil
}

// LogMailer logs the email instead of sending it. Used in development.
type LogMailer struct{}

func (m *LogMailer) SendWelcome(_ context.Context, profile models.UserProfile, plan models.OnboardingPlan) error {
	slog.Info("welcome email (dev mode, not sent)", "to", profile.Email, "items", len(plan))
	return nil
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto; padding: 24px;">
	<h2 style="color: #333;">Welcome {{.Profile.FullName}}!</h2>
	<p>We're excited to have you onboard. Here is your checklist:</p>
	<ol>
	{{- range .Plan}}
		<li><strong>{{.Item}}:</strong> {{.Description}}{{if .Link}} <a href="{{.Link}}">More info</a>{{end}}</li>
	{{- end}}
	</ol>
	<p style="color: #888; font-size: 14px;">Use the "Complete Onboarding" button in Slack once you are done.</p>
</div>
`))

// RenderWelcome builds the HTML body. Values are escaped by html/template.
func RenderWelcome(profile models.UserProfile, plan models.OnboardingPlan) (string, error) {
	var buf bytes.Buffer
	err := welcomeTmpl.Execute(&buf, struct {
		Profile models.UserProfile
		Plan    models.OnboardingPlan
	}{profile, plan})
	if err != nil {
		return "", fmt.Errorf("mailer: render welcome email: %w", err)
	}
	return buf.String(), nil
}
