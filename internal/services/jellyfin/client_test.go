package jellyfin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anistrm/internal/config"
	"anistrm/internal/services"
)

func TestHTTPServiceRefreshTriggersJellyfin(t *testing.T) {
	refreshCalled := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Library/Refresh":
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if token := r.Header.Get("X-Emby-Token"); token != "token-123" {
				t.Errorf("unexpected token: %q", token)
			}
			refreshCalled = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Jellyfin.Enabled = true
	cfg.Jellyfin.URL = server.URL + "/"
	cfg.Jellyfin.APIKey = "token-123"

	svc := NewConfiguredService(&cfg)
	if _, ok := svc.(*httpService); !ok {
		t.Fatalf("expected httpService, got %T", svc)
	}
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if !refreshCalled {
		t.Fatal("expected refresh endpoint to be called")
	}
}

func TestConfiguredServiceDisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	if _, ok := NewConfiguredService(&cfg).(NoopService); !ok {
		t.Fatal("expected noop service when disabled")
	}
	cfg.Jellyfin.Enabled = true
	cfg.Jellyfin.URL = "http://localhost:8096"
	if _, ok := NewConfiguredService(&cfg).(NoopService); !ok {
		t.Fatal("expected noop service without api key")
	}
	if _, ok := NewConfiguredService(nil).(NoopService); !ok {
		t.Fatal("expected noop service for nil config")
	}
}

func TestRefreshUnauthorizedIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "bad", server.Client())
	err := svc.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
