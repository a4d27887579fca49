package testutil

import (
	"testing"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

// NewLogger returns a quiet console-only logger for tests.
func NewLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: "error"})
	if err != nil {
		t.Fatalf("create test logger: %v", err)
	}
	return logger
}

// NewConfig returns the default configuration for tests that need one.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	return config.DefaultConfig()
}
