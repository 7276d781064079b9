package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"anistrm/internal/catalog"
	"anistrm/internal/config"
	"anistrm/internal/history"
	"anistrm/internal/logging"
	"anistrm/internal/notifications"
	"anistrm/internal/retry"
	"anistrm/internal/services"
	"anistrm/internal/services/jellyfin"
	"anistrm/internal/strm"
)

// Recorder persists run history. *history.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, id, mode, trigger string, startedAt time.Time) (*history.Run, error)
	FinishRun(ctx context.Context, id string, outcome history.Outcome, finishedAt time.Time) error
	RecordFile(ctx context.Context, runID, title, url, path string, createdAt time.Time) error
}

// Syncer fetches the catalog and materializes strm files.
type Syncer struct {
	sources  map[Mode]catalog.Source
	writer   *strm.Writer
	recorder Recorder
	notifier notifications.Service
	library  jellyfin.Service
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	group singleflight.Group
	runMu sync.Mutex

	stateMu sync.Mutex
	running *Request
	last    *Summary
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithSources replaces the catalog sources.
func WithSources(incremental, full catalog.Source) Option {
	return func(s *Syncer) {
		if incremental != nil {
			s.sources[ModeIncremental] = incremental
		}
		if full != nil {
			s.sources[ModeFull] = full
		}
	}
}

// WithNotifier replaces the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(s *Syncer) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLibrary replaces the Jellyfin service.
func WithLibrary(l jellyfin.Service) Option {
	return func(s *Syncer) {
		if l != nil {
			s.library = l
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// New wires a Syncer from config. recorder may be nil to skip history.
func New(cfg *config.Config, recorder Recorder, logger *slog.Logger, opts ...Option) (*Syncer, error) {
	if cfg == nil {
		return nil, errors.New("syncer requires config")
	}
	logger = logging.NewComponentLogger(logger, "syncer")

	client, err := catalog.NewHTTPClient(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "syncer", "build http client", "", err)
	}
	policy := retry.FromConfig(cfg, logger)

	s := &Syncer{
		sources: map[Mode]catalog.Source{
			ModeIncremental: catalog.NewRSSSource(cfg, client, policy, logger),
			ModeFull:        catalog.NewListingSource(cfg, client, policy, logger),
		},
		writer:   strm.NewWriter(cfg.Paths.StrmDir, logger),
		recorder: recorder,
		notifier: notifications.NewService(cfg),
		library:  jellyfin.NewConfiguredService(cfg),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes one sync. Concurrent calls for the same mode share a single
// execution; different modes run one after another.
func (s *Syncer) Run(ctx context.Context, req Request) (Summary, error) {
	if req.Mode == "" {
		req.Mode = ModeIncremental
	}
	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}
	if _, ok := s.sources[req.Mode]; !ok {
		return Summary{}, services.Wrap(services.ErrValidation, "syncer", "run", fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}

	v, err, shared := s.group.Do(string(req.Mode), func() (any, error) {
		s.runMu.Lock()
		defer s.runMu.Unlock()
		return s.run(ctx, req)
	})
	if shared {
		s.logger.Debug("joined in-flight sync", logging.String(logging.FieldMode, string(req.Mode)))
	}
	summary, _ := v.(Summary)
	return summary, err
}

// Running returns the request currently executing, if any.
func (s *Syncer) Running() (Request, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.running == nil {
		return Request{}, false
	}
	return *s.running, true
}

// LastSummary returns the summary of the most recent finished run.
func (s *Syncer) LastSummary() (Summary, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.last == nil {
		return Summary{}, false
	}
	return *s.last, true
}

func (s *Syncer) run(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{
		RunID:     s.newID(),
		Mode:      req.Mode,
		Trigger:   req.Trigger,
		StartedAt: s.now(),
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithMode(ctx, string(req.Mode))
	ctx = services.WithTrigger(ctx, string(req.Trigger))
	logger := logging.WithContext(ctx, s.logger)

	s.setRunning(&req)
	defer s.setRunning(nil)

	s.beginHistory(ctx, logger, summary)

	source := s.sources[req.Mode]
	episodes, fetchErr := source.List(ctx)
	summary.Fetched = len(episodes)
	logger.Info("processing entries",
		logging.String("source", source.Name()),
		logging.Int("count", len(episodes)),
		logging.String(logging.FieldEventType, "sync_fetched"),
	)

	var runErr error
	if fetchErr != nil {
		runErr = fmt.Errorf("%s fetch: %w", source.Name(), fetchErr)
	}

	for _, ep := range episodes {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res, err := s.writer.Touch(ctx, ep.Title, ep.Link)
		if err != nil {
			summary.Failed++
			logging.WarnWithContext(logger, "strm write failed; skipping entry", "strm_write_failed",
				logging.String("title", ep.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check strm_dir permissions and free space"),
				logging.String(logging.FieldImpact, "this episode is retried on the next run"),
			)
			continue
		}
		switch res.Status {
		case strm.StatusCreated:
			summary.Created++
			summary.CreatedTitles = append(summary.CreatedTitles, ep.Title)
			s.recordFile(ctx, logger, summary.RunID, ep.Title, res)
		case strm.StatusExists:
			summary.Existing++
		case strm.StatusSkipped:
			summary.Skipped++
		}
	}

	summary.FinishedAt = s.now()
	if runErr != nil {
		summary.Error = runErr.Error()
	}
	logger.Info("created strm files",
		logging.Int("created", summary.Created),
		logging.Int("existing", summary.Existing),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("duration", summary.Duration()),
		logging.String(logging.FieldEventType, "sync_completed"),
	)

	s.finishHistory(ctx, logger, summary, runErr)
	s.afterRun(ctx, logger, summary, runErr)

	s.stateMu.Lock()
	last := summary
	s.last = &last
	s.stateMu.Unlock()

	return summary, runErr
}

func (s *Syncer) setRunning(req *Request) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.running = req
}

func (s *Syncer) beginHistory(ctx context.Context, logger *slog.Logger, summary Summary) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.BeginRun(ctx, summary.RunID, string(summary.Mode), string(summary.Trigger), summary.StartedAt); err != nil {
		logging.WarnWithContext(logger, "history begin failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "this run is missing from history"),
		)
	}
}

func (s *Syncer) recordFile(ctx context.Context, logger *slog.Logger, runID, title string, res strm.Result) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordFile(ctx, runID, title, res.URL, res.Path, s.now()); err != nil {
		logger.Debug("history file record failed", logging.String("path", res.Path), logging.Error(err))
	}
}

func (s *Syncer) finishHistory(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	if s.recorder == nil {
		return
	}
	outcome := history.Outcome{
		Status:       history.StatusSucceeded,
		Fetched:      summary.Fetched,
		Created:      summary.Created,
		Existing:     summary.Existing,
		Skipped:      summary.Skipped,
		Failed:       summary.Failed,
		ErrorMessage: summary.Error,
	}
	if runErr != nil {
		outcome.Status = history.StatusFailed
	}
	// The run context may already be cancelled; history must still close the run.
	finishCtx := context.WithoutCancel(ctx)
	if err := s.recorder.FinishRun(finishCtx, summary.RunID, outcome, summary.FinishedAt); err != nil {
		logging.WarnWithContext(logger, "history finish failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "run stays marked as running until the next daemon start"),
		)
	}
}

func (s *Syncer) afterRun(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	notifyCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		if err := s.notifier.Publish(notifyCtx, notifications.EventSyncFailed, notifications.Payload{
			"mode":  string(summary.Mode),
			"error": summary.Error,
		}); err != nil {
			logger.Debug("failure notification not sent", logging.Error(err))
		}
	}
	if summary.Created == 0 {
		return
	}
	if err := s.library.Refresh(notifyCtx); err != nil {
		logging.WarnWithContext(logger, "jellyfin refresh failed", "jellyfin_refresh_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check jellyfin.url and jellyfin.api_key"),
			logging.String(logging.FieldImpact, "new episodes appear after the next library scan"),
		)
	}
	if err := s.notifier.Publish(notifyCtx, notifications.EventSyncCompleted, notifications.Payload{
		"mode":    string(summary.Mode),
		"trigger": string(summary.Trigger),
		"created": summary.Created,
		"fetched": summary.Fetched,
		"titles":  summary.CreatedTitles,
	}); err != nil {
		logging.WarnWithContext(logger, "sync notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this run"),
		)
	}
}
