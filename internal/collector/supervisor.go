package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/blackwell-systems/apptraffic/internal/attribution"
	"github.com/blackwell-systems/apptraffic/internal/config"
	"github.com/blackwell-systems/apptraffic/internal/metrics"
	"github.com/blackwell-systems/apptraffic/internal/model"
	"github.com/blackwell-systems/apptraffic/internal/store"
)

// Snapshotter is the sampling dependency of the Supervisor. It is
// satisfied by *sampler.Sampler.
type Snapshotter interface {
	Sample(ctx context.Context) (*model.Snapshot, error)
}

// Supervisor owns the collector's steady state: one store handle, one
// previous-snapshot slot, and the sampling tick loop. There are no
// ambient globals; everything it touches is passed in at construction.
type Supervisor struct {
	store         *store.Store
	sampler       Snapshotter
	pidFile       *PIDFile
	logger        *slog.Logger
	configPath    string
	metricsListen string

	mu          sync.Mutex
	interval    time.Duration
	retention   time.Duration
	cleanupCron string

	// prev is the only cross-tick mutable state: the snapshot the next
	// delta is computed against.
	prev *model.Snapshot
}

// New assembles a Supervisor from its collaborators and the loaded
// configuration.
func New(st *store.Store, smp Snapshotter, pidFile *PIDFile, cfg *config.Config, configPath string, logger *slog.Logger) (*Supervisor, error) {
	interval, err := cfg.Collector.IntervalParsed()
	if err != nil {
		return nil, fmt.Errorf("parsing collector interval: %w", err)
	}
	return &Supervisor{
		store:         st,
		sampler:       smp,
		pidFile:       pidFile,
		logger:        logger,
		configPath:    configPath,
		metricsListen: cfg.Metrics.Listen,
		interval:      interval,
		retention:     cfg.Collector.Retention(),
		cleanupCron:   cfg.Collector.CleanupCron,
	}, nil
}

// Run executes the collector until ctx is cancelled. It acquires the
// singleton lock, writes the PID marker, primes the previous snapshot,
// and then ticks at the configured interval. Errors inside a tick are
// logged and the loop continues; only setup failures are fatal. The PID
// marker is removed unconditionally on the way out.
func (s *Supervisor) Run(ctx context.Context) error {
	release, err := s.pidFile.Acquire()
	if err != nil {
		return err
	}
	defer release()

	// The flock already excludes a second collector where locks are
	// supported; the marker probe covers platforms where Acquire is a
	// no-op. Our own PID is skipped because the parent writes the
	// child's PID into the marker before the child reaches here.
	if pid, live := s.pidFile.LivePID(); live && pid != os.Getpid() {
		return fmt.Errorf("collector already running (PID %d)", pid)
	}

	if err := s.pidFile.Write(os.Getpid()); err != nil {
		return err
	}
	defer s.pidFile.Remove()

	sched := cron.New(cron.WithSeconds())
	if _, err := sched.AddFunc(s.cleanupCron, s.runCleanup); err != nil {
		return fmt.Errorf("scheduling retention cleanup: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if s.metricsListen != "" {
		s.serveMetrics(ctx)
	}

	watcher := s.watchConfig()
	if watcher != nil {
		defer watcher.Close()
	}

	// Prime the baseline so the first real tick has a delta to attribute.
	if snap, err := s.sampler.Sample(ctx); err != nil {
		s.logger.Warn("initial sample failed, first tick will carry no bytes", "error", err)
	} else {
		s.prev = snap
	}

	s.logger.Info("collector started",
		"pid", os.Getpid(),
		"interval", s.interval,
		"store", s.store.Path(),
		"retention", s.retention)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("collector shutting down")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		case ev, ok := <-configEvents(watcher):
			if !ok {
				continue
			}
			if s.handleConfigEvent(ev) {
				s.mu.Lock()
				ticker.Reset(s.interval)
				s.mu.Unlock()
			}
		case err, ok := <-configErrors(watcher):
			if ok && err != nil {
				s.logger.Warn("config watcher error", "error", err)
			}
		}
	}
}

// tick runs one sample→attribute→record cycle. Nothing in here may crash
// the loop: errors are counted and logged, and a panicking OS probe is
// recovered.
func (s *Supervisor) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TickErrorsTotal.Inc()
			s.logger.Error("tick panicked", "panic", r)
		}
	}()

	snap, err := s.sampler.Sample(ctx)
	if err != nil {
		metrics.TickErrorsTotal.Inc()
		s.logger.Warn("sampling failed, skipping tick", "error", err)
		return
	}

	usage := attribution.Attribute(s.prev, snap)
	s.prev = snap

	if err := s.store.Record(snap.TakenAt, usage); err != nil {
		metrics.TickErrorsTotal.Inc()
		s.logger.Error("recording tick failed", "error", err)
		return
	}

	var sent, recv float64
	active := 0
	for _, u := range usage {
		if u.Active() {
			active++
		}
		sent += u.Sent
		recv += u.Recv
	}
	metrics.TicksTotal.Inc()
	metrics.AttributedBytesTotal.WithLabelValues("sent").Add(sent)
	metrics.AttributedBytesTotal.WithLabelValues("recv").Add(recv)
	metrics.ActiveApps.Set(float64(active))
}

// runCleanup executes one retention sweep. Invoked by the cron schedule.
func (s *Supervisor) runCleanup() {
	s.mu.Lock()
	retention := s.retention
	s.mu.Unlock()

	deleted, err := s.store.Cleanup(retention)
	if err != nil {
		s.logger.Error("retention cleanup failed", "error", err)
		return
	}
	metrics.RowsDeletedTotal.Add(float64(deleted))
	s.logger.Info("retention cleanup complete", "deleted", deleted, "retention", retention)
}

// serveMetrics exposes the Prometheus endpoint and shuts it down with
// ctx.
func (s *Supervisor) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: s.metricsListen, Handler: mux}

	go func() {
		s.logger.Info("metrics listening", "addr", s.metricsListen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// watchConfig starts an fsnotify watcher on the config file's directory
// so interval and retention changes apply without a restart. A missing
// directory or watcher failure just disables hot-reload.
func (s *Supervisor) watchConfig() *fsnotify.Watcher {
	if s.configPath == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("config hot-reload unavailable", "error", err)
		return nil
	}
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		s.logger.Warn("config hot-reload unavailable", "error", err)
		watcher.Close()
		return nil
	}
	return watcher
}

// handleConfigEvent reloads the config when the watched file changes.
// Returns true when the sampling interval changed and the ticker must be
// reset.
func (s *Supervisor) handleConfigEvent(ev fsnotify.Event) bool {
	if ev.Name != s.configPath || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return false
	}

	cfg, err := config.Load(s.configPath)
	if err != nil {
		s.logger.Warn("config reload failed", "error", err)
		return false
	}
	if err := cfg.Validate(); err != nil {
		s.logger.Warn("config reload rejected", "error", err)
		return false
	}

	interval, err := cfg.Collector.IntervalParsed()
	if err != nil {
		return false
	}

	s.mu.Lock()
	changed := interval != s.interval
	s.interval = interval
	s.retention = cfg.Collector.Retention()
	s.mu.Unlock()

	s.logger.Info("config reloaded", "interval", interval, "retention_days", cfg.Collector.RetentionDays)
	return changed
}

// configEvents adapts a possibly-nil watcher for use in select.
func configEvents(w *fsnotify.Watcher) chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func configErrors(w *fsnotify.Watcher) chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}
