package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"anistrm/internal/config"
	"anistrm/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckJellyfin_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Emby-Token") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckJellyfin(context.Background(), srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckJellyfin_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckJellyfin(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckJellyfin_MissingURL(t *testing.T) {
	result := CheckJellyfin(context.Background(), "", "key")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckJellyfin_MissingKey(t *testing.T) {
	result := CheckJellyfin(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_AgainstFakeCatalog(t *testing.T) {
	server := testsupport.NewCatalogServer(t)
	server.SetFeed(testsupport.FeedEntry{Title: "A - 01", Link: "https://resources.ani.rip/a.mp4"})
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(server))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	for _, r := range results {
		if r.Name == "RSS feed" && !strings.Contains(r.Detail, "1 items") {
			t.Fatalf("unexpected feed detail %q", r.Detail)
		}
		if r.Name == "Listing API" && !strings.Contains(r.Detail, "not published") {
			t.Fatalf("unexpected listing detail %q", r.Detail)
		}
	}
}

func TestCheckFeed_Failure(t *testing.T) {
	server := testsupport.NewCatalogServer(t)
	server.SetFeedStatus(http.StatusBadGateway)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(server))

	result := CheckFeed(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected feed check to fail")
	}
	if server.RSSRequests() != 1 {
		t.Fatalf("expected a single attempt, got %d", server.RSSRequests())
	}
}

func TestCheckListing_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Source.ListingURL = srv.URL
	result := CheckListing(context.Background(), &cfg)
	if result.Passed {
		t.Fatal("expected listing check to fail on 500")
	}
}

func TestCheckSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Schedule.Timezone = "UTC"
	if r := CheckSchedule(&cfg); !r.Passed {
		t.Fatalf("expected default cron to pass: %s", r.Detail)
	}

	cfg.Schedule.Cron = "61 * * * *"
	if r := CheckSchedule(&cfg); r.Passed {
		t.Fatal("expected invalid minute to fail")
	}

	cfg.Schedule.Enabled = false
	if r := CheckSchedule(&cfg); !r.Passed || r.Detail != "Disabled" {
		t.Fatalf("expected disabled schedule to pass, got %+v", r)
	}
}

func TestRunAll_IncludesJellyfinWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	catalogServer := testsupport.NewCatalogServer(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalog(catalogServer), testsupport.WithJellyfin(srv.URL, "test"))

	results := RunAll(context.Background(), cfg)
	found := false
	for _, r := range results {
		if r.Name == "Jellyfin" {
			found = true
			if !r.Passed {
				t.Errorf("Jellyfin check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Jellyfin check in results")
	}
}
