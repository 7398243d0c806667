package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/gantry/pkg/config"
)

func TestCommandError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewCommandError("audit query", cause)

	if err.Error() != "command audit query failed: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected CommandError to unwrap to its cause")
	}
}

func TestConfigErrors(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{
		{Field: "registry.max_redirects", Message: "max redirects must be at least 1"},
		{Field: "access.allowed_hosts", Message: "at least one allowed host is required"},
	}}

	got := ConfigErrors(fmt.Errorf("load: %w", verr))
	if len(got) != 2 {
		t.Fatalf("expected 2 config errors, got %d", len(got))
	}
	if got[0].Error() != "config error in registry.max_redirects: max redirects must be at least 1" {
		t.Errorf("unexpected message %q", got[0].Error())
	}

	if ConfigErrors(errors.New("other")) != nil {
		t.Error("expected nil for non-validation error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"command", NewCommandError("run", errors.New("boom")), ExitFailure},
		{"config error", NewConfigError("server.listen_address", "required"), ExitConfig},
		{"wrapped validation", fmt.Errorf("failed: %w", config.ValidationError{}), ExitConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, got)
			}
		})
	}
}
