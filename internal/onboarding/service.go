// Package onboarding sequences the Slack and Smartsheet calls behind the two
// webhook workflows: greeting a joiner with their checklist, and recording
// that the joiner completed it.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"onboarding-bot/internal/mailer"
	"onboarding-bot/internal/models"
	"onboarding-bot/internal/slack"
)

// JoinerStore is implemented by *repository.JoinerRepo.
type JoinerStore interface {
	FetchUserByEmail(ctx context.Context, email string) (models.UserProfile, int64, error)
	FetchPlan(ctx context.Context, planSheetID int64) (models.OnboardingPlan, error)
	MarkComplete(ctx context.Context, email string) error
}

type Service struct {
	directory slack.Directory
	notifier  slack.Notifier
	joiners   JoinerStore
	mailer    mailer.Mailer
	timeout   time.Duration
}

// NewService wires the workflow. timeout bounds each upstream step; zero
// leaves the steps to the clients' own timeouts.
func NewService(directory slack.Directory, notifier slack.Notifier, joiners JoinerStore, m mailer.Mailer, timeout time.Duration) (*Service, error) {
	if directory == nil {
		return nil, errors.New("onboarding: slack directory must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("onboarding: slack notifier must not be nil")
	}
	if joiners == nil {
		return nil, errors.New("onboarding: joiner store must not be nil")
	}
	if m == nil {
		m = &mailer.LogMailer{}
	}
	return &Service{
		directory: directory,
		notifier:  notifier,
		joiners:   joiners,
		mailer:    m,
		timeout:   timeout,
	}, nil
}

// Start greets a user who joined the onboarding channel with their checklist.
// Steps run strictly in order; the first failure aborts the run.
func (s *Service) Start(ctx context.Context, userID string) error {
	log := slog.With("run_id", uuid.NewString(), "workflow", "start", "user_id", userID)
	log.Info("onboarding started")

	var user models.UserProfile
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		user, err = s.directory.ResolveUser(ctx, userID)
		return err
	}); err != nil {
		return fmt.Errorf("onboarding: resolve user %s: %w", userID, err)
	}

	var (
		profile     models.UserProfile
		planSheetID int64
	)
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		profile, planSheetID, err = s.joiners.FetchUserByEmail(ctx, user.Email)
		return err
	}); err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}
	profile.ExternalUserID = userID
	if profile.FullName == "" {
		profile.FullName = user.FullName
	}
	log.Debug("joiner found", "plan_sheet_id", planSheetID)

	var plan models.OnboardingPlan
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		plan, err = s.joiners.FetchPlan(ctx, planSheetID)
		return err
	}); err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}

	blocks := FormatMessage(plan, profile)
	if len(blocks) > MaxBlocks {
		log.Warn("onboarding plan exceeds slack block limit, message will be rejected",
			"items", len(plan), "blocks", len(blocks), "max_blocks", MaxBlocks)
	}
	if err := s.step(ctx, func(ctx context.Context) error {
		return s.notifier.PostMessage(ctx, userID, blocks)
	}); err != nil {
		return fmt.Errorf("onboarding: post checklist to %s: %w", userID, err)
	}
	log.Info("onboarding checklist posted", "items", len(plan))

	// The email is a courtesy copy; Slack delivery already succeeded.
	if err := s.step(ctx, func(ctx context.Context) error {
		return s.mailer.SendWelcome(ctx, profile, plan)
	}); err != nil {
		log.Warn("welcome email failed", "err", err)
	}
	return nil
}

// Complete records that userID finished onboarding. The joiner sheet is
// keyed by email, so the Slack user is resolved first.
func (s *Service) Complete(ctx context.Context, userID string) error {
	log := slog.With("run_id", uuid.NewString(), "workflow", "complete", "user_id", userID)

	var email string
	if err := s.step(ctx, func(ctx context.Context) (err error) {
		email, err = s.directory.ResolveUserEmail(ctx, userID)
		return err
	}); err != nil {
		return fmt.Errorf("onboarding: resolve user %s: %w", userID, err)
	}

	if err := s.step(ctx, func(ctx context.Context) error {
		return s.joiners.MarkComplete(ctx, email)
	}); err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}
	log.Info("onboarding marked complete")
	return nil
}

func (s *Service) step(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return fn(ctx)
}
