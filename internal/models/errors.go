package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an expected upstream entity (user email,
// search result, cell value, column) is absent.
var ErrNotFound = errors.New("not found")

// ErrAmbiguous is returned when a lookup that must be unique matched several
// rows. It is a NotFound: errors.Is(ErrAmbiguous, ErrNotFound) is true.
var ErrAmbiguous = fmt.Errorf("ambiguous match: %w", ErrNotFound)

// ConfigurationError reports a required setting that is missing or invalid.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
}

// UpstreamError is returned when Slack or Smartsheet reports a failure,
// either through the body's ok flag or through a non-2xx status.
type UpstreamError struct {
	Service string
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = "Unknown Error"
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s API request failed (%d): %s", e.Service, e.Status, msg)
	}
	return fmt.Sprintf("%s API request failed: %s", e.Service, msg)
}

func (e *UpstreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
