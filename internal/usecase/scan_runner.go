package usecase

import (
	"context"
	"sync"
	"time"

	"InsiderScan/internal/domain/models"
	drepo "InsiderScan/internal/domain/repository"
	"InsiderScan/internal/scan"
	"InsiderScan/pkg/config"
	applogger "InsiderScan/pkg/logger"
)

// ScanRunner executes the crossing detector over the event store and keeps the
// latest result set for readers. Detection is always recomputed from the full
// store, never patched incrementally.
type ScanRunner struct {
	store   drepo.EventStore
	metrics drepo.Metrics
	pub     drepo.SignalPublisher // optional
	cfg     *config.Config
	l       *applogger.Logger

	mu     sync.RWMutex
	latest []models.Signal
}

func NewScanRunner(store drepo.EventStore, metrics drepo.Metrics, pub drepo.SignalPublisher, cfg *config.Config) *ScanRunner {
	return &ScanRunner{store: store, metrics: metrics, pub: pub, cfg: cfg}
}

func (r *ScanRunner) SetLogger(l *applogger.Logger) { r.l = l }

// configFor maps a request onto detector tunables, falling back to configured
// defaults for anything the caller left unset.
func (r *ScanRunner) configFor(req models.ScanRequest) scan.Config {
	excl := r.cfg.Scan.ExcludeScheduledPlans
	if req.ExcludeScheduled != nil {
		excl = *req.ExcludeScheduled
	}
	return scan.Config{
		Window:           time.Duration(req.WindowDays) * 24 * time.Hour,
		MinActors:        req.MinActors,
		MinNotional:      req.MinNotional,
		ExcludeScheduled: excl,
	}
}

// Run detects crossing events over the current store contents, replaces the
// latest snapshot, and publishes the result when a publisher is wired.
func (r *ScanRunner) Run(ctx context.Context, req models.ScanRequest) ([]models.Signal, error) {
	start := time.Now()
	cfg := r.configFor(req)

	bySym, err := r.store.BySymbol(ctx)
	if err != nil {
		r.metrics.RecordError("scan_store")
		return nil, err
	}

	signals, err := scan.DetectParallel(bySym, cfg)
	if err != nil {
		r.metrics.RecordError("scan_detect")
		return nil, err
	}

	r.mu.Lock()
	r.latest = signals
	r.mu.Unlock()

	r.metrics.RecordSignals(len(signals))
	r.metrics.RecordLatency("scan", time.Since(start).Seconds())

	if r.pub != nil && len(signals) > 0 {
		if err := r.pub.Publish(ctx, signals); err != nil {
			r.metrics.RecordError("signal_publish")
			if r.l != nil {
				r.l.Error("signal publish failed", applogger.Error(err))
			}
		}
	}

	if r.l != nil {
		r.l.Info("scan complete",
			applogger.Int("symbols", len(bySym)),
			applogger.Int("signals", len(signals)),
			applogger.Duration("took", time.Since(start)))
	}
	return signals, nil
}

// Latest returns the most recent scan snapshot filtered by the request. The
// snapshot is the output of the last Run; callers never trigger detection here.
func (r *ScanRunner) Latest(req models.SignalsRequest) []models.Signal {
	r.mu.RLock()
	src := r.latest
	r.mu.RUnlock()

	out := make([]models.Signal, 0, len(src))
	for _, s := range src {
		if req.Symbol != "" && s.Symbol != req.Symbol {
			continue
		}
		out = append(out, s)
	}
	if req.Limit > 0 && len(out) > req.Limit {
		// keep the most recent tail; the snapshot is time-ascending
		out = out[len(out)-req.Limit:]
	}
	return out
}

// Alerts aggregates trailing-window activity per symbol as of now.
func (r *ScanRunner) Alerts(ctx context.Context, req models.AlertsRequest) ([]models.SymbolActivity, error) {
	events, err := r.store.Events(ctx)
	if err != nil {
		r.metrics.RecordError("alerts_store")
		return nil, err
	}
	window := time.Duration(req.Days) * 24 * time.Hour
	filter := scan.FilterFor(r.cfg.Scan.ExcludeScheduledPlans)
	return scan.RecentActivity(events, time.Now().UTC(), window, req.MinActors, req.MinNotional, filter), nil
}
