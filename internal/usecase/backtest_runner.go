package usecase

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"InsiderScan/internal/backtest"
	"InsiderScan/internal/domain/models"
	drepo "InsiderScan/internal/domain/repository"
	"InsiderScan/internal/report"
	icache "InsiderScan/internal/service/cache"
	pkgcache "InsiderScan/pkg/cache"
	"InsiderScan/pkg/config"
	applogger "InsiderScan/pkg/logger"
)

// BacktestRunner evaluates detected signals against daily price series. Price
// series are fetched once per symbol per run and cached as JSON so repeated
// backtests over the same universe do not refetch.
type BacktestRunner struct {
	scanner *ScanRunner
	prices  drepo.PriceProvider
	cache   icache.BytesCache // optional
	metrics drepo.Metrics
	cfg     *config.Config
	l       *applogger.Logger
}

func NewBacktestRunner(scanner *ScanRunner, prices drepo.PriceProvider, cache icache.BytesCache, metrics drepo.Metrics, cfg *config.Config) *BacktestRunner {
	return &BacktestRunner{scanner: scanner, prices: prices, cache: cache, metrics: metrics, cfg: cfg}
}

func (r *BacktestRunner) SetLogger(l *applogger.Logger) { r.l = l }

// Run scans with the request's detector settings, then evaluates the emitted
// signals over the request's horizons. A report row is produced per signal; a
// CSV copy is written when a report path is configured.
func (r *BacktestRunner) Run(ctx context.Context, req models.BacktestRequest) (models.BacktestReport, error) {
	start := time.Now()

	horizons := req.Horizons
	if len(horizons) == 0 {
		horizons = r.cfg.Backtest.Horizons
	}

	signals, err := r.scanner.Run(ctx, req.ScanRequest)
	if err != nil {
		return models.BacktestReport{}, err
	}

	// Price fetch range: from the earliest signal back one day (entry can be
	// the signal day itself) out far enough to cover the longest horizon in
	// calendar terms. Weekends and holidays thin the series, so over-fetch by
	// a factor of two in days.
	series := make(map[string][]models.PriceBar)
	if len(signals) > 0 {
		maxH := 0
		for _, h := range horizons {
			if h > maxH {
				maxH = h
			}
		}
		earliest := signals[0].EventTime
		for _, s := range signals {
			if s.EventTime.Before(earliest) {
				earliest = s.EventTime
			}
		}
		from := earliest.UTC().Truncate(24 * time.Hour)
		to := time.Now().UTC().Add(time.Duration(2*maxH) * 24 * time.Hour)

		for _, s := range signals {
			if _, ok := series[s.Symbol]; ok {
				continue
			}
			bars, err := r.fetchBars(ctx, s.Symbol, from, to)
			if err != nil {
				r.metrics.RecordError("price_fetch")
				if r.l != nil {
					r.l.Warn("price fetch failed", applogger.String("symbol", s.Symbol), applogger.Error(err))
				}
				series[s.Symbol] = nil
				continue
			}
			series[s.Symbol] = bars
		}
	}

	rep, err := backtest.EvaluateAll(signals, func(sym string) []models.PriceBar { return series[sym] }, horizons, req.CostBPS)
	if err != nil {
		r.metrics.RecordError("backtest_evaluate")
		return rep, err
	}

	for _, res := range rep.Results {
		if len(res.Missing) > 0 {
			r.metrics.RecordEvaluation("partial")
		} else {
			r.metrics.RecordEvaluation("complete")
		}
	}
	for i := 0; i < rep.Unevaluable; i++ {
		r.metrics.RecordEvaluation("unevaluable")
	}
	r.metrics.RecordLatency("backtest", time.Since(start).Seconds())

	if p := r.cfg.Backtest.ReportPath; p != "" {
		if err := r.writeReport(p, rep, horizons); err != nil {
			r.metrics.RecordError("report_write")
			if r.l != nil {
				r.l.Error("report write failed", applogger.String("path", p), applogger.Error(err))
			}
		}
	}

	if r.l != nil {
		r.l.Info("backtest complete",
			applogger.Int("signals", len(signals)),
			applogger.Int("evaluated", len(rep.Results)),
			applogger.Int("unevaluable", rep.Unevaluable),
			applogger.Duration("took", time.Since(start)))
	}
	return rep, nil
}

// fetchBars returns the cached series when present, otherwise asks the
// provider and caches what it got. Cache failures degrade to a direct fetch.
func (r *BacktestRunner) fetchBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	key := pkgcache.GenerateKeyWithParams("bars", symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if r.cache != nil {
		if b, ok, err := r.cache.GetBytes(key); err == nil && ok {
			var bars []models.PriceBar
			if json.Unmarshal(b, &bars) == nil {
				return bars, nil
			}
		}
	}

	bars, err := r.prices.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && len(bars) > 0 {
		if b, err := json.Marshal(bars); err == nil {
			_ = r.cache.SetBytes(key, b, r.cfg.Cache.PriceTTL)
		}
	}
	return bars, nil
}

func (r *BacktestRunner) writeReport(path string, rep models.BacktestReport, horizons []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteCSV(f, report.Rows(rep.Results, horizons))
}
