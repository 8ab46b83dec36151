// Package daemon runs a long-lived counter store wired with the
// journal, the action bus, metrics, and periodic state checkpoints.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/reflux"
	"git.home.luguber.info/inful/reflux/internal/bus"
	"git.home.luguber.info/inful/reflux/internal/config"
	"git.home.luguber.info/inful/reflux/internal/counter"
	"git.home.luguber.info/inful/reflux/internal/journal"
	"git.home.luguber.info/inful/reflux/internal/metrics"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Daemon owns the store and its attached infrastructure.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string
	status     atomic.Value // Status
	startTime  time.Time

	store   *reflux.Store[counter.State]
	journal journal.Journal
	sink    *journal.Sink

	publisher  *bus.Publisher
	subscriber *bus.Subscriber

	registry *prom.Registry
	recorder *metrics.PrometheusRecorder
	httpSrv  *http.Server

	scheduler *Scheduler
	watcher   *ConfigWatcher
}

// New creates a daemon from the given configuration. Components are
// wired here; network and file resources open in Start.
func New(cfg *config.Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	d := &Daemon{cfg: cfg}
	d.status.Store(StatusStopped)

	var opts []reflux.Option[counter.State]

	if cfg.Journal.Enabled {
		j, err := journal.NewSQLiteJournal(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.journal = j
		d.sink = journal.NewSink(j, cfg.Session.ID)
		opts = append(opts, reflux.WithSink[counter.State](d.sink))
	}

	if cfg.Bus.Enabled {
		pub, err := bus.NewPublisher(cfg.Bus.URL, cfg.Bus.Subject)
		if err != nil {
			d.closeJournal()
			return nil, fmt.Errorf("create bus publisher: %w", err)
		}
		d.publisher = pub
		opts = append(opts, reflux.WithSink[counter.State](pub))
	}

	if cfg.Metrics.Enabled {
		d.registry = prom.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
		opts = append(opts, reflux.WithRecorder[counter.State](d.recorder))
	}

	d.store = reflux.New(counter.Reduce, opts...)
	d.store.Subscribe(reflux.SlogSubscriber[counter.State](slog.Default(), "State rendered"))

	scheduler, err := NewScheduler(d.store)
	if err != nil {
		d.closeEverything()
		return nil, err
	}
	d.scheduler = scheduler

	return d, nil
}

// NewWithConfigFile creates a daemon that also watches its config file
// and hot-reloads safe changes.
func NewWithConfigFile(cfg *config.Config, configPath string) (*Daemon, error) {
	d, err := New(cfg)
	if err != nil {
		return nil, err
	}
	d.configPath = configPath

	watcher, err := NewConfigWatcher(configPath, d)
	if err != nil {
		d.closeEverything()
		return nil, err
	}
	d.watcher = watcher
	return d, nil
}

// Start bootstraps the store with the initial dispatch and brings up
// the bus subscriber, snapshot scheduler, config watcher, and metrics
// endpoint. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	cfg := d.GetConfig()

	// Initial dispatch: materializes default state and first render.
	if err := d.store.Init(ctx); err != nil {
		slog.Warn("Initial dispatch reported sink errors", "error", err)
	}
	if d.sink != nil {
		slog.Info("Journaling session", "session", d.sink.SessionID(), "path", cfg.Journal.Path)
	}

	if cfg.Bus.Enabled {
		sub, err := bus.NewSubscriber(cfg.Bus.URL, cfg.Bus.Subject, d.store)
		if err != nil {
			return fmt.Errorf("create bus subscriber: %w", err)
		}
		if err := sub.Start(ctx); err != nil {
			_ = sub.Close()
			return fmt.Errorf("start bus subscriber: %w", err)
		}
		d.subscriber = sub
	}

	interval, err := cfg.Snapshot.IntervalDuration()
	if err != nil {
		return err
	}
	if interval > 0 {
		if err := d.scheduler.ScheduleSnapshots(interval); err != nil {
			return err
		}
	}
	d.scheduler.Start(ctx)

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return fmt.Errorf("start config watcher: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		d.serveMetrics(cfg.Metrics.Listen)
	}

	d.status.Store(StatusRunning)
	slog.Info("Daemon running",
		"journal", cfg.Journal.Enabled,
		"bus", cfg.Bus.Enabled,
		"metrics", cfg.Metrics.Enabled,
		"snapshot_interval", interval)
	return nil
}

func (d *Daemon) serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	d.httpSrv = &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Metrics endpoint listening", "addr", listen)
		if err := d.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics endpoint failed", "error", err)
		}
	}()
}

// Stop shuts everything down gracefully.
func (d *Daemon) Stop(ctx context.Context) error {
	d.status.Store(StatusStopping)

	var errs []error

	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.subscriber != nil {
		if err := d.subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.closeJournal(); err != nil {
		errs = append(errs, err)
	}

	d.status.Store(StatusStopped)
	slog.Info("Daemon stopped", "uptime", time.Since(d.startTime).Round(time.Second))
	return errors.Join(errs...)
}

func (d *Daemon) closeJournal() error {
	if d.journal == nil {
		return nil
	}
	err := d.journal.Close()
	d.journal = nil
	return err
}

func (d *Daemon) closeEverything() {
	if d.publisher != nil {
		_ = d.publisher.Close()
	}
	_ = d.closeJournal()
}

// Dispatch feeds an action into the daemon's store.
func (d *Daemon) Dispatch(ctx context.Context, act reflux.Action) error {
	return d.store.Dispatch(ctx, act)
}

// State returns the store's current state snapshot.
func (d *Daemon) State() (counter.State, bool) {
	return d.store.State()
}

// Status returns the daemon lifecycle status.
func (d *Daemon) Status() Status {
	return d.status.Load().(Status)
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// ReloadConfig applies a hot-reloaded configuration. Only the snapshot
// interval changes at runtime; journal, bus, metrics, and logging
// wiring require a restart.
func (d *Daemon) ReloadConfig(ctx context.Context, newCfg *config.Config) error {
	if err := newCfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	current := d.GetConfig()
	if newCfg.Journal != current.Journal || newCfg.Bus != current.Bus || newCfg.Metrics != current.Metrics {
		slog.Warn("Journal, bus, or metrics changes require a restart; keeping current wiring")
	}

	interval, err := newCfg.Snapshot.IntervalDuration()
	if err != nil {
		return err
	}
	if err := d.scheduler.Reschedule(interval); err != nil {
		return err
	}

	if newCfg.Logging != current.Logging {
		slog.Warn("Logging changes require a restart; keeping current handler")
	}

	d.mu.Lock()
	d.cfg = newCfg
	d.mu.Unlock()

	slog.Info("Configuration reloaded", "snapshot_interval", interval)
	return nil
}
