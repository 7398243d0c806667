package cli

import (
	"context"
	"fmt"
	"syscall"
	"testing"
	"time"
)

func typeName(v any) string { return fmt.Sprintf("%T", v) }

func TestSetupSignalHandler(t *testing.T) {
	ctx, cancel := SetupSignalHandler(context.Background())
	defer cancel()

	select {
	case <-ctx.Done():
		t.Error("expected context to be active initially")
	default:
	}

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Error("expected cancel to end the context")
	}
}

func TestSetupSignalHandler_Signal(t *testing.T) {
	ctx, cancel := SetupSignalHandler(context.Background())
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("failed to send signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Error("expected SIGTERM to cancel the context")
	}
}
