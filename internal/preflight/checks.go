package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sys/unix"

	"anistrm/internal/catalog"
	"anistrm/internal/config"
	"anistrm/internal/retry"
	"anistrm/internal/season"
)

const remoteCheckTimeout = 10 * time.Second

// CheckJellyfin verifies Jellyfin connectivity and authentication.
func CheckJellyfin(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Jellyfin"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/Users", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("X-Emby-Token", strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSchedule parses the cron expression the daemon would register.
func CheckSchedule(cfg *config.Config) Result {
	const name = "Schedule"

	if !cfg.Schedule.Enabled {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	loc, err := cfg.Location()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	sched, err := cron.ParseStandard(cfg.Schedule.Cron)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%q (error: %v)", cfg.Schedule.Cron, err)}
	}
	next := sched.Next(time.Now().In(loc))
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%q (next %s)", cfg.Schedule.Cron, next.Format("2006-01-02 15:04 MST"))}
}

// CheckFeed fetches the RSS feed once without retries.
func CheckFeed(ctx context.Context, cfg *config.Config) Result {
	const name = "RSS feed"

	client, err := catalog.NewHTTPClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	source := catalog.NewRSSSource(cfg, client, retry.Policy{Attempts: 1}, nil)
	episodes, err := source.List(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (%d items)", len(episodes))}
}

// CheckListing asks the listing API for the current season. A 404 still
// proves the API is reachable; the season may not be published yet.
func CheckListing(ctx context.Context, cfg *config.Config) Result {
	const name = "Listing API"

	client, err := catalog.NewHTTPClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	current := season.Current(time.Now())
	source := catalog.NewListingSource(cfg, client, retry.Policy{Attempts: 1}, nil)
	req, err := http.NewRequestWithContext(checkCtx, http.MethodPost, source.SeasonURL(current), nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if ua := strings.TrimSpace(cfg.Source.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (season %s)", current)}
	case http.StatusNotFound:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (season %s not published)", current)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("season %s returned %d", current, resp.StatusCode)}
	}
}

func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (host unreachable)"
	}
	return err.Error()
}
