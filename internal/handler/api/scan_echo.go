package api

import (
	"time"

	models "InsiderScan/internal/domain/models"
	svcmetrics "InsiderScan/internal/service/metrics"
	"InsiderScan/internal/usecase"
	xhttp "InsiderScan/pkg/http"
	xlogger "InsiderScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScanEchoHandler exposes the detector and evaluator over HTTP.
type ScanEchoHandler struct {
	logger    *xlogger.Logger
	scanner   *usecase.ScanRunner
	backtest  *usecase.BacktestRunner
	collector *usecase.EventCollector // optional, health only
}

func NewScanEchoHandler(logger *xlogger.Logger, scanner *usecase.ScanRunner, backtest *usecase.BacktestRunner, collector *usecase.EventCollector) *ScanEchoHandler {
	svcmetrics.Register()
	return &ScanEchoHandler{logger: logger, scanner: scanner, backtest: backtest, collector: collector}
}

func (h *ScanEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/scan", h.Scan)
	g.GET("/signals", h.Signals)
	g.POST("/backtest", h.Backtest)
	g.GET("/alerts", h.Alerts)
	e.GET("/healthz", h.Health)
}

// Scan recomputes crossing events over the current store contents.
func (h *ScanEchoHandler) Scan(c echo.Context) error {
	start := time.Now()
	defer func() { svcmetrics.APILatency.WithLabelValues("scan").Observe(time.Since(start).Seconds()) }()

	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("scan").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.scanner.Run(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("scan usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("scan").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// Signals serves the snapshot produced by the last scan.
func (h *ScanEchoHandler) Signals(c echo.Context) error {
	start := time.Now()
	defer func() { svcmetrics.APILatency.WithLabelValues("signals").Observe(time.Since(start).Seconds()) }()

	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("signals").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	signals := h.scanner.Latest(*req)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// Backtest scans, then evaluates forward returns over daily bars.
func (h *ScanEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	defer func() { svcmetrics.APILatency.WithLabelValues("backtest").Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("backtest").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	rep, err := h.backtest.Run(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("backtest").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rep)
}

// Alerts aggregates recent activity per symbol as of now.
func (h *ScanEchoHandler) Alerts(c echo.Context) error {
	start := time.Now()
	defer func() { svcmetrics.APILatency.WithLabelValues("alerts").Observe(time.Since(start).Seconds()) }()

	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("alerts").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	activity, err := h.scanner.Alerts(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("alerts usecase error", xlogger.Error(err))
		svcmetrics.APIErrors.WithLabelValues("alerts").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, activity, int64(len(activity)))
}

func (h *ScanEchoHandler) Health(c echo.Context) error {
	status := map[string]any{"status": "ok"}
	if h.collector != nil {
		status["feed_connected"] = h.collector.IsConnected()
	}
	return xhttp.SuccessResponse(c, status)
}

var _ xhttp.Handler = (*ScanEchoHandler)(nil)
