// Package config resolves the service settings from the environment once at
// startup. The resulting Config is immutable and passed explicitly to the
// clients and handlers.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"onboarding-bot/internal/models"
)

const (
	DefaultPort            = "8000"
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultMaxRetries      = 2
)

// MatchPolicy decides which row a Smartsheet search resolves to when it
// returns more than one result.
type MatchPolicy string

const (
	MatchFirst  MatchPolicy = "first"
	MatchExact  MatchPolicy = "exact"
	MatchUnique MatchPolicy = "unique"
)

// Column identifies a Smartsheet column either by a static id or by its
// display title. ID wins when set.
type Column struct {
	ID   int64
	Name string
}

// Resolved reports whether the column id is known without a lookup.
func (c Column) Resolved() bool {
	return c.ID != 0
}

type Columns struct {
	// Joiner sheet.
	OnboardingPlanSheetID Column
	FullName              Column
	InductionComplete     Column

	// Onboarding plan sheets.
	Item        Column
	Description Column
	Link        Column
}

type Config struct {
	Port string

	OnboardingChannelID string
	SlackToken          string
	SlackAPIURL         string

	SmartsheetToken   string
	SmartsheetAPIURL  string
	JoinerSheetID     int64
	SearchMatchPolicy MatchPolicy
	SmartsheetRetries int
	UpstreamTimeout   time.Duration

	ResendAPIKey string
	FromEmail    string

	LogLevel slog.Level

	Columns Columns
}

// Load reads the configuration through getenv (os.Getenv in production).
// A missing or malformed required value yields a *models.ConfigurationError.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:                env("PORT", DefaultPort),
		OnboardingChannelID: env("ONBOARDING_CHANNEL_ID", ""),
		SlackToken:          env("SLACK_TOKEN", ""),
		SlackAPIURL:         env("SLACK_API_URL", ""),
		SmartsheetToken:     env("SMARTSHEET_TOKEN", ""),
		SmartsheetAPIURL:    env("SMARTSHEET_API_URL", ""),
		ResendAPIKey:        env("RESEND_API_KEY", ""),
		FromEmail:           env("FROM_EMAIL", "onboarding@example.com"),
	}

	for _, req := range []struct{ key, val string }{
		{"ONBOARDING_CHANNEL_ID", cfg.OnboardingChannelID},
		{"SLACK_TOKEN", cfg.SlackToken},
		{"SMARTSHEET_TOKEN", cfg.SmartsheetToken},
		{"SMARTSHEET_JOINER_SHEET_ID", env("SMARTSHEET_JOINER_SHEET_ID", "")},
	} {
		if req.val == "" {
			return nil, &models.ConfigurationError{Key: req.key, Reason: "is required"}
		}
	}

	var err error
	if cfg.JoinerSheetID, err = parseID("SMARTSHEET_JOINER_SHEET_ID", env("SMARTSHEET_JOINER_SHEET_ID", "")); err != nil {
		return nil, err
	}

	switch p := MatchPolicy(strings.ToLower(env("SEARCH_MATCH_POLICY", string(MatchFirst)))); p {
	case MatchFirst, MatchExact, MatchUnique:
		cfg.SearchMatchPolicy = p
	default:
		return nil, &models.ConfigurationError{Key: "SEARCH_MATCH_POLICY", Reason: fmt.Sprintf("has unknown value %q", p)}
	}

	cfg.UpstreamTimeout = DefaultUpstreamTimeout
	if raw := env("UPSTREAM_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, &models.ConfigurationError{Key: "UPSTREAM_TIMEOUT", Reason: "must be a positive duration"}
		}
		cfg.UpstreamTimeout = d
	}

	cfg.SmartsheetRetries = DefaultMaxRetries
	if raw := env("SMARTSHEET_MAX_RETRIES", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, &models.ConfigurationError{Key: "SMARTSHEET_MAX_RETRIES", Reason: "must be a non-negative integer"}
		}
		cfg.SmartsheetRetries = n
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, &models.ConfigurationError{Key: "LOG_LEVEL", Reason: "must be one of debug, info, warn, error"}
	}

	columns := []struct {
		dst         *Column
		suffix      string
		defaultName string
	}{
		{&cfg.Columns.OnboardingPlanSheetID, "ONBOARDINGPLANSHEETID", "Onboarding Plan Sheet ID"},
		{&cfg.Columns.FullName, "FULL_NAME", "Full Name"},
		{&cfg.Columns.InductionComplete, "INDUCTION_COMPLETE", "Induction Complete"},
		{&cfg.Columns.Item, "ITEM", "Item"},
		{&cfg.Columns.Description, "DESCRIPTION", "Description"},
		{&cfg.Columns.Link, "LINK", "Link"},
	}
	for _, c := range columns {
		c.dst.Name = env("COLUMN_NAME_"+c.suffix, c.defaultName)
		if raw := env("COLUMN_ID_"+c.suffix, ""); raw != "" {
			if c.dst.ID, err = parseID("COLUMN_ID_"+c.suffix, raw); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// ColumnResolver looks up a column id from its display title.
type ColumnResolver interface {
	ResolveColumnID(ctx context.Context, sheetID int64, name string) (int64, error)
}

// ResolveJoinerColumns fills in the joiner-sheet column ids that were not
// configured statically. Plan-sheet columns are resolved per plan sheet when
// the sheet is fetched, since every joiner may have a different plan.
// The full-name column is optional: failing to resolve it only logs.
func (c *Config) ResolveJoinerColumns(ctx context.Context, r ColumnResolver) error {
	required := []*Column{&c.Columns.OnboardingPlanSheetID, &c.Columns.InductionComplete}
	for _, col := range required {
		if col.Resolved() {
			continue
		}
		id, err := r.ResolveColumnID(ctx, c.JoinerSheetID, col.Name)
		if err != nil {
			return &models.ConfigurationError{Key: "COLUMN_ID for " + strconv.Quote(col.Name), Reason: "could not be resolved: " + err.Error()}
		}
		col.ID = id
	}

	if !c.Columns.FullName.Resolved() {
		id, err := r.ResolveColumnID(ctx, c.JoinerSheetID, c.Columns.FullName.Name)
		if err != nil {
			slog.Warn("full name column not resolved, greeting falls back to the Slack name",
				"column", c.Columns.FullName.Name, "err", err)
			return nil
		}
		c.Columns.FullName.ID = id
	}
	return nil
}

func parseID(key, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ConfigurationError{Key: key, Reason: "must be a positive integer id"}
	}
	return id, nil
}
