package usecase

import (
	"context"

	"InsiderScan/internal/domain/models"
	"InsiderScan/pkg/config"
	applogger "InsiderScan/pkg/logger"
)

// ScanJob is the background rescan unit of work. It runs the detector with
// the configured defaults and logs symbols whose recent activity clears the
// alert thresholds. Instances may be enqueued or invoked directly.
type ScanJob struct {
	scanner *ScanRunner
	cfg     *config.Config
	l       *applogger.Logger
}

func NewScanJob(scanner *ScanRunner, cfg *config.Config, l *applogger.Logger) *ScanJob {
	return &ScanJob{scanner: scanner, cfg: cfg, l: l}
}

func (j *ScanJob) Name() string { return "scan-runner" }

func (j *ScanJob) Type() string { return "scan.run" }

func (j *ScanJob) Handle(ctx context.Context, _ interface{}) error {
	req := models.ScanRequest{
		WindowDays:  j.cfg.Scan.WindowDays,
		MinActors:   j.cfg.Scan.MinActors,
		MinNotional: j.cfg.Scan.MinNotional,
	}
	signals, err := j.scanner.Run(ctx, req)
	if err != nil {
		return err
	}

	alerts, err := j.scanner.Alerts(ctx, models.AlertsRequest{
		Days:        j.cfg.Alerts.Days,
		MinActors:   j.cfg.Scan.MinActors,
		MinNotional: j.cfg.Scan.MinNotional,
	})
	if err != nil {
		return err
	}
	for _, a := range alerts {
		j.l.Info("activity alert",
			applogger.String("symbol", a.Symbol),
			applogger.Int("distinct_actors", a.DistinctActors),
			applogger.Float64("total_notional", a.TotalNotional))
	}

	j.l.Debug("scheduled scan done",
		applogger.Int("signals", len(signals)),
		applogger.Int("alerts", len(alerts)))
	return nil
}
