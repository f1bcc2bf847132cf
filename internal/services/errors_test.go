package services_test

import (
	"errors"
	"strings"
	"testing"

	"highlighter/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisperx", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarkerAndDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestFailureKindMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "window", "generate", "invalid", nil)
	if kind := services.FailureKind(validationErr); kind != services.FailureInput {
		t.Fatalf("expected input for validation error, got %s", kind)
	}
	notFound := services.Wrap(services.ErrNotFound, "transcribe", "load", "missing", nil)
	if kind := services.FailureKind(notFound); kind != services.FailureInput {
		t.Fatalf("expected input for not found error, got %s", kind)
	}

	transientErr := services.Wrap(services.ErrTransient, "scoring", "sentiment", "request failed", errors.New("io"))
	if kind := services.FailureKind(transientErr); kind != services.FailureRuntime {
		t.Fatalf("expected runtime for transient error, got %s", kind)
	}

	if kind := services.FailureKind(nil); kind != services.FailureRuntime {
		t.Fatalf("expected runtime for nil error, got %s", kind)
	}
}
