package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"InsiderScan/internal/domain/repository"
	"InsiderScan/internal/usecase"
	pkgch "InsiderScan/pkg/clickhouse"
	"InsiderScan/pkg/config"
	xhttp "InsiderScan/pkg/http"
	pkgkafka "InsiderScan/pkg/kafka"
	applogger "InsiderScan/pkg/logger"
	pkgqueue "InsiderScan/pkg/queue"
)

// App encapsulates the entire application lifecycle. Every dependency except
// the config, logger, and HTTP handler is optional: a memory-only deployment
// runs with just the API surface.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	collector   *usecase.EventCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	pub         repository.SignalPublisher
	scanQueue   *pkgqueue.RedisQueue
	scanJob     *usecase.ScanJob
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.EventCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	pub repository.SignalPublisher,
	scanQueue *pkgqueue.RedisQueue,
	scanJob *usecase.ScanJob,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		chClient:    chClient,
		pub:         pub,
		scanQueue:   scanQueue,
		scanJob:     scanJob,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequestLog(a.l, 2*time.Second),
	)

	// Start feed collector if configured
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.l.Error("collector error", applogger.Error(err))
			}
		}()
		a.l.Info("feed collector started", applogger.String("url", a.cfg.Ingest.FeedURL))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start background rescans if configured
	if a.cfg.Scan.Interval > 0 {
		if a.scanQueue != nil {
			if err := a.scanQueue.Start(); err != nil {
				a.l.Error("scan queue start error", applogger.Error(err))
			}
		}
		go a.runScheduler(ctx)
		a.l.Info("scan scheduler started", applogger.Duration("interval", a.cfg.Scan.Interval))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// runScheduler kicks off a rescan every interval. With a queue the tick is
// enqueued so any consumer instance may pick it up; without one the job runs
// in-process.
func (a *App) runScheduler(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Scan.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.scanQueue != nil {
				if err := a.scanQueue.PublishMessage(ctx, a.scanJob.Type(), struct{}{}); err != nil {
					a.l.Warn("scan enqueue error", applogger.Error(err))
				}
				continue
			}
			if err := a.scanJob.Handle(ctx, nil); err != nil {
				a.l.Warn("scheduled scan error", applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.scanQueue != nil {
		if err := a.scanQueue.Stop(shutdownCtx); err != nil {
			a.l.Warn("scan queue stop error", applogger.Error(err))
		}
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.l.Warn("signal publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
