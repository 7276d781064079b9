package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"anistrm/internal/config"
	"anistrm/internal/logging"
	"anistrm/internal/syncer"
)

// DefaultStartupDelay is the wait before the run_on_start job fires.
const DefaultStartupDelay = 3 * time.Second

// Runner executes a sync request. *syncer.Syncer satisfies it.
type Runner interface {
	Run(ctx context.Context, req syncer.Request) (syncer.Summary, error)
}

// Scheduler owns the cron runner and the optional startup run.
type Scheduler struct {
	spec         string
	enabled      bool
	runOnStart   bool
	fullOnStart  bool
	startupDelay time.Duration
	location     *time.Location
	runner       Runner
	logger       *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithStartupDelay overrides DefaultStartupDelay.
func WithStartupDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.startupDelay = d
		}
	}
}

// New builds a scheduler from the [schedule] config section.
func New(cfg *config.Config, runner Runner, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if cfg == nil {
		return nil, errors.New("scheduler requires config")
	}
	if runner == nil {
		return nil, errors.New("scheduler requires a runner")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		spec:         cfg.Schedule.Cron,
		enabled:      cfg.Schedule.Enabled,
		runOnStart:   cfg.Schedule.RunOnStart,
		fullOnStart:  cfg.Schedule.FullOnStart,
		startupDelay: DefaultStartupDelay,
		location:     loc,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the periodic job and schedules the startup run. Jobs run
// with a context derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.entry = 0
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	adapter := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	if s.enabled {
		id, err := s.cron.AddFunc(s.spec, func() {
			s.fire(jobCtx, syncer.ModeIncremental, syncer.TriggerSchedule)
		})
		if err != nil {
			logging.ErrorWithContext(s.logger, "invalid cron expression; periodic sync disabled", "schedule_invalid",
				logging.String("cron", s.spec),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix schedule.cron (five fields: minute hour day month weekday)"),
			)
		} else {
			s.entry = id
		}
	} else {
		s.logger.Info("periodic sync disabled")
	}
	s.cron.Start()
	if s.entry != 0 {
		s.logger.Info("periodic sync scheduled",
			logging.String("cron", s.spec),
			logging.String("timezone", s.location.String()),
			logging.Time("next_run", s.cron.Entry(s.entry).Next),
		)
	}

	if s.runOnStart {
		mode := syncer.ModeFor(s.fullOnStart)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			timer := time.NewTimer(s.startupDelay)
			defer timer.Stop()
			select {
			case <-timer.C:
				s.fire(jobCtx, mode, syncer.TriggerStartup)
			case <-jobCtx.Done():
			}
		}()
		s.logger.Info("startup sync queued",
			logging.String(logging.FieldMode, string(mode)),
			logging.Duration("delay", s.startupDelay),
		)
	}
}

// Stop halts the cron runner and waits for running jobs. When ctx expires
// first, in-flight jobs are cancelled and Stop waits for them to return.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	c := s.cron
	cancel := s.cancel
	s.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		cancel()
		<-done.Done()
	}
	cancel()
	s.wg.Wait()
}

// Spec returns the configured cron expression.
func (s *Scheduler) Spec() string { return s.spec }

// Active reports whether a periodic job is registered.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && s.entry != 0
}

// Next returns the next periodic fire time.
func (s *Scheduler) Next() (time.Time, bool) {
	entry, ok := s.currentEntry()
	if !ok || entry.Next.IsZero() {
		return time.Time{}, false
	}
	return entry.Next, true
}

// Prev returns the last periodic fire time, if the job has fired.
func (s *Scheduler) Prev() (time.Time, bool) {
	entry, ok := s.currentEntry()
	if !ok || entry.Prev.IsZero() {
		return time.Time{}, false
	}
	return entry.Prev, true
}

func (s *Scheduler) currentEntry() (cron.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.entry == 0 {
		return cron.Entry{}, false
	}
	entry := s.cron.Entry(s.entry)
	return entry, entry.Valid()
}

func (s *Scheduler) fire(ctx context.Context, mode syncer.Mode, trigger syncer.Trigger) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("sync triggered",
		logging.String(logging.FieldMode, string(mode)),
		logging.String(logging.FieldTrigger, string(trigger)),
	)
	if _, err := s.runner.Run(ctx, syncer.Request{Mode: mode, Trigger: trigger}); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.WarnWithContext(s.logger, "scheduled sync failed", "schedule_run_failed",
			logging.String(logging.FieldMode, string(mode)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no strm files created this run; the next trigger retries"),
		)
	}
}
