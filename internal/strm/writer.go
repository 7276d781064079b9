package strm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"anistrm/internal/fileutil"
	"anistrm/internal/logging"
	"anistrm/internal/services"
	"anistrm/internal/textutil"
)

// Extension is appended to every pointer file name.
const Extension = ".strm"

// Status describes what Touch did for one entry.
type Status string

const (
	StatusCreated Status = "created"
	StatusExists  Status = "exists"
	StatusSkipped Status = "skipped"
)

// Result reports the outcome of a single Touch call.
type Result struct {
	Status Status
	Path   string
	URL    string
}

// Writer materializes pointer files inside one directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logging.NewComponentLogger(logger, "strm")}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// PathFor returns the pointer file path for title, or "" when the title has
// no usable characters.
func (w *Writer) PathFor(title string) string {
	name := textutil.SanitizeFileName(title)
	if name == "" {
		return ""
	}
	return filepath.Join(w.dir, name+Extension)
}

// Touch writes <dir>/<title>.strm containing the normalized url. Existing
// files are never overwritten. An empty url is skipped without touching the
// filesystem.
func (w *Writer) Touch(ctx context.Context, title, url string) (Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Status: StatusSkipped}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	url = NormalizeURL(url)
	path := w.PathFor(title)
	if path == "" {
		return Result{URL: url}, services.Wrap(services.ErrValidation, "strm", "touch",
			fmt.Sprintf("title %q has no usable file name characters", title), nil)
	}
	result := Result{Path: path, URL: url}

	// The write below reports the real failure if this does not succeed.
	_ = os.MkdirAll(w.dir, 0o755)

	if err := fileutil.WriteExclusive(path, []byte(url), 0o644); err != nil {
		if errors.Is(err, fileutil.ErrExists) {
			w.logger.Debug("strm file exists; skipping", logging.String("path", path))
			result.Status = StatusExists
			return result, nil
		}
		return result, services.Wrap(services.ErrTransient, "strm", "write", path, err)
	}

	w.logger.Debug("strm file created", logging.String("path", path), logging.String("url", url))
	result.Status = StatusCreated
	return result, nil
}
