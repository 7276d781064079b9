package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"anistrm/internal/config"
	"anistrm/internal/history"
	"anistrm/internal/logging"
	"anistrm/internal/notifications"
	"anistrm/internal/scheduler"
	"anistrm/internal/syncer"
)

const stopTimeout = 30 * time.Second

// Daemon coordinates the scheduler and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *history.Store
	syncer    *syncer.Syncer
	scheduler *scheduler.Scheduler
	notifier  notifications.Service
	now       func() time.Time

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	LockFilePath   string
	HistoryDBPath  string
	StrmDir        string
	Cron           string
	Timezone       string
	ScheduleActive bool
	NextRun        time.Time
	PrevRun        time.Time
	Syncing        bool
	SyncingMode    string
	LastRun        *history.Run
	Stats          history.Stats
}

// Option customizes a Daemon.
type Option func(*options)

type options struct {
	syncerOpts    []syncer.Option
	schedulerOpts []scheduler.Option
	notifier      notifications.Service
	now           func() time.Time
}

// WithSyncerOptions forwards options to the syncer.
func WithSyncerOptions(opts ...syncer.Option) Option {
	return func(o *options) { o.syncerOpts = append(o.syncerOpts, opts...) }
}

// WithSchedulerOptions forwards options to the scheduler.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(o *options) { o.schedulerOpts = append(o.schedulerOpts, opts...) }
}

// WithNotifier replaces the notification service for syncs and test pings.
func WithNotifier(n notifications.Service) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock overrides the clock used for retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and history store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	syncOpts := append([]syncer.Option{syncer.WithNotifier(notifier)}, o.syncerOpts...)
	s, err := syncer.New(cfg, store, logger, syncOpts...)
	if err != nil {
		return nil, fmt.Errorf("create syncer: %w", err)
	}
	sched, err := scheduler.New(cfg, s, logger, o.schedulerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		syncer:    s,
		scheduler: sched,
		notifier:  notifier,
		now:       o.now,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		done:      make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock, repairs history, and starts the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another anistrm daemon instance is already running")
	}

	d.repairHistory(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.scheduler.Start(runCtx)
	d.startedAt = d.now()
	d.running.Store(true)
	d.logger.Info("anistrm daemon started",
		logging.String("lock", d.lockPath),
		logging.String("strm_dir", d.cfg.Paths.StrmDir),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop halts the scheduler, waits for a running sync and releases the lock.
// The first Stop after a successful Start closes Done.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	d.scheduler.Stop(ctx)
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if the next start reports another instance"),
		)
	}
	d.running.Store(false)
	d.doneOnce.Do(func() { close(d.done) })
	d.logger.Info("anistrm daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Done is closed once the daemon has been stopped.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Sync runs a sync on demand. Calls that overlap a sync of the same mode
// join it instead of starting another.
func (d *Daemon) Sync(ctx context.Context, full bool) (syncer.Summary, error) {
	return d.syncer.Run(ctx, syncer.Request{Mode: syncer.ModeFor(full), Trigger: syncer.TriggerManual})
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	loc, _ := d.cfg.Location()
	status := Status{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		LockFilePath:   d.lockPath,
		HistoryDBPath:  d.store.Path(),
		StrmDir:        d.cfg.Paths.StrmDir,
		Cron:           d.scheduler.Spec(),
		ScheduleActive: d.scheduler.Active(),
	}
	if loc != nil {
		status.Timezone = loc.String()
	}
	d.mu.Lock()
	if status.Running {
		status.StartedAt = d.startedAt
	}
	d.mu.Unlock()
	if next, ok := d.scheduler.Next(); ok {
		status.NextRun = next
	}
	if prev, ok := d.scheduler.Prev(); ok {
		status.PrevRun = prev
	}
	if req, ok := d.syncer.Running(); ok {
		status.Syncing = true
		status.SyncingMode = string(req.Mode)
	}

	if last, err := d.store.LastRun(ctx); err != nil {
		d.logger.Debug("last run lookup failed", logging.Error(err))
	} else {
		status.LastRun = last
	}
	if stats, err := d.store.Stats(ctx); err != nil {
		d.logger.Debug("history stats failed", logging.Error(err))
	} else {
		status.Stats = stats
	}
	return status
}

func (d *Daemon) repairHistory(ctx context.Context) {
	if n, err := d.store.MarkInterrupted(ctx); err != nil {
		logging.WarnWithContext(d.logger, "could not mark interrupted runs", "history_repair_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "runs from a previous crash stay marked as running"),
		)
	} else if n > 0 {
		d.logger.Info("marked interrupted runs", logging.Int64("count", n))
	}

	days := d.cfg.History.RetentionDays
	if days <= 0 {
		return
	}
	cutoff := d.now().AddDate(0, 0, -days)
	removed, err := d.store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(d.logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history database keeps growing"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("pruned run history",
			logging.Int64("removed", removed),
			logging.Int("retention_days", days),
		)
	}
}
