package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrAmbiguousIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("search: %w", ErrAmbiguous)
	require.ErrorIs(t, wrapped, ErrNotFound)
	require.ErrorIs(t, wrapped, ErrAmbiguous)
	require.False(t, errors.Is(ErrNotFound, ErrAmbiguous))
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("fetch: %w", &UpstreamError{Service: "smartsheet", Message: "refused", Err: cause})

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "smartsheet API request failed: refused", upErr.Error())

	require.Equal(t, "slack API request failed (429): Unknown Error", (&UpstreamError{Service: "slack", Status: 429}).Error())
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Key: "SLACK_TOKEN", Reason: "is required"}
	require.Equal(t, "config: SLACK_TOKEN is required", err.Error())
}

func TestOnboardingItem(t *testing.T) {
	require.True(t, OnboardingItem{Item: "a", Description: "b"}.Valid())
	require.False(t, OnboardingItem{Item: "a"}.Valid())
	require.False(t, OnboardingItem{Item: "a", Description: "b"}.HasLink())
	require.True(t, OnboardingItem{Item: "a", Description: "b", Link: "https://x"}.HasLink())
}
