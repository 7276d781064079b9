package services_test

import (
	"errors"
	"strings"
	"testing"

	"anistrm/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrUpstream, "catalog", "fetch rss", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"catalog", "fetch rss", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryableClassification(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "catalog", "decode", "invalid", nil)
	if services.Retryable(validationErr) {
		t.Fatal("expected validation error to be permanent")
	}

	transientErr := services.Wrap(services.ErrUpstream, "catalog", "fetch", "status 502", errors.New("io"))
	if !services.Retryable(transientErr) {
		t.Fatal("expected upstream error to be retryable")
	}

	if services.Retryable(nil) {
		t.Fatal("expected nil error to be non-retryable")
	}
}
