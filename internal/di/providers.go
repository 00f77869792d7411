package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"InsiderScan/internal/domain/repository"
	"InsiderScan/internal/handler/api"
	mid "InsiderScan/internal/middleware"
	internalrepo "InsiderScan/internal/repository"
	icache "InsiderScan/internal/service/cache"
	"InsiderScan/internal/service/feed"
	"InsiderScan/internal/store"
	"InsiderScan/internal/usecase"
	pkgcache "InsiderScan/pkg/cache"
	pkgch "InsiderScan/pkg/clickhouse"
	"InsiderScan/pkg/config"
	xhttp "InsiderScan/pkg/http"
	pkgkafka "InsiderScan/pkg/kafka"
	applogger "InsiderScan/pkg/logger"
	"InsiderScan/pkg/metrics"
	pkgqueue "InsiderScan/pkg/queue"
	"InsiderScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "console"
	if cfg.Environment == "production" {
		format = "json"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// archive schema. Returns nil when ClickHouse is disabled; the rest of the
// stack degrades to memory-only operation.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".insider_trades (symbol String, actor String, shares Float64, price Float64, scheduled_plan Bool, event_time DateTime64(9, 'UTC'), source_ref String) ENGINE=MergeTree ORDER BY (symbol, event_time)",
		"CREATE TABLE IF NOT EXISTS " + db + ".daily_bars (symbol String, session Date, open Float64, adj_close Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, session)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEventArchive creates the ClickHouse archive, or nil when disabled.
func ProvideEventArchive(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHEventArchive {
	if chClient == nil {
		return nil
	}
	archive := internalrepo.NewCHEventArchive(chClient, cfg.ClickHouse.Database+".insider_trades")
	archive.SetLogger(l)
	return archive
}

// ProvideEventStore creates the deduplicating in-memory store, warmed from
// the archive when one is available. Replay is idempotent through dedup.
func ProvideEventStore(archive *internalrepo.CHEventArchive, l *applogger.Logger) (repository.EventStore, error) {
	s := store.NewMemoryStore()
	if archive == nil {
		return s, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	events, err := archive.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("warm store from archive: %w", err)
	}
	accepted, duplicates, err := s.Append(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("warm store append: %w", err)
	}
	l.Info("store warmed from archive",
		applogger.Int("accepted", accepted),
		applogger.Int("duplicates", duplicates),
		applogger.Int64("dropped", s.Dropped()))
	return s, nil
}

// ProvideSignalPublisher creates the Kafka signal publisher, or nil when the
// producer or topic is not configured.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil || cfg.Kafka.SignalsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML, or nil
// when no brokers are configured.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.TradesTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTradesHandler registers the handler for the trades topic.
func ProvideKafkaTradesHandler(proc *usecase.EventProcessor, m repository.Metrics, cfg *config.Config) *usecase.KafkaTradesHandler {
	return usecase.NewKafkaTradesHandler(cfg.Kafka.TradesTopic, proc, m, cfg.Ingest.TimeField)
}

// ProvideFeedStream creates the filing feed WebSocket stream, or nil when no
// feed URL is configured (batch-only deployments).
func ProvideFeedStream(cfg *config.Config) repository.EventStream {
	if cfg.Ingest.FeedURL == "" {
		return nil
	}
	return feed.New(
		cfg.Ingest.FeedURL,
		feed.TimeField(cfg.Ingest.TimeField),
		cfg.Ingest.ReconnectDelay,
		cfg.Ingest.PingInterval,
	)
}

// ProvideEventProcessor creates the ingest processor use case.
func ProvideEventProcessor(s repository.EventStore, archive *internalrepo.CHEventArchive, m repository.Metrics) *usecase.EventProcessor {
	return usecase.NewEventProcessor(s, archive, m, "ingest")
}

// ProvideEventCollector creates the feed collector, or nil without a stream.
func ProvideEventCollector(
	stream repository.EventStream,
	proc *usecase.EventProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.EventCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewIngestPipeline(proc, m,
		mid.WithMaxRPS(cfg.Ingest.MaxRPS),
		mid.WithBufferSize(cfg.Ingest.BufferSize),
	)
	return usecase.NewEventCollector(stream, proc, m, pipe)
}

// ProvidePriceProvider prefers the ClickHouse bar store and falls back to the
// HTTP price service.
func ProvidePriceProvider(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.PriceProvider {
	if chClient != nil {
		s := internalrepo.NewCHPriceStore(chClient, cfg.ClickHouse.Database+".daily_bars")
		s.SetLogger(l)
		return s
	}
	return internalrepo.NewHTTPPriceProvider(cfg.Prices.ServiceURL, cfg.Prices.Timeout)
}

// ProvideRedisCache creates the shared Redis cache, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Cache.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Cache.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
}

// ProvidePriceCache creates the bar cache: layered memory+Redis when Redis is
// enabled, in-process memory otherwise.
func ProvidePriceCache(rc *pkgcache.RedisCache) icache.BytesCache {
	if rc != nil {
		return icache.NewServiceCache(pkgcache.NewLayeredCache(rc))
	}
	return icache.NewServiceCache(pkgcache.NewMemoryCache())
}

// ProvideScanJob creates the background rescan job.
func ProvideScanJob(scanner *usecase.ScanRunner, cfg *config.Config, l *applogger.Logger) *usecase.ScanJob {
	return usecase.NewScanJob(scanner, cfg, l)
}

// ProvideScanQueue creates the Redis-backed job queue consuming scan jobs.
// Returns nil without Redis or a rescan interval; the scheduler then invokes
// the job in-process.
func ProvideScanQueue(cfg *config.Config, l *applogger.Logger, rc *pkgcache.RedisCache, job *usecase.ScanJob) *pkgqueue.RedisQueue {
	if rc == nil || cfg.Scan.Interval <= 0 {
		return nil
	}
	return pkgqueue.NewRedisConsumer(l, &pkgqueue.QueueConfig{
		Workers:    1,
		QueueSize:  100,
		RetryLimit: 2,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), []pkgqueue.Job{job})
}

// ProvideScanRunner creates the detector use case.
func ProvideScanRunner(s repository.EventStore, m repository.Metrics, pub repository.SignalPublisher, cfg *config.Config, l *applogger.Logger) *usecase.ScanRunner {
	r := usecase.NewScanRunner(s, m, pub, cfg)
	r.SetLogger(l)
	return r
}

// ProvideBacktestRunner creates the evaluator use case.
func ProvideBacktestRunner(
	scanner *usecase.ScanRunner,
	prices repository.PriceProvider,
	cache icache.BytesCache,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.BacktestRunner {
	r := usecase.NewBacktestRunner(scanner, prices, cache, m, cfg)
	r.SetLogger(l)
	return r
}

// ProvideAPIHandler creates the Echo HTTP handler.
func ProvideAPIHandler(
	l *applogger.Logger,
	scanner *usecase.ScanRunner,
	backtest *usecase.BacktestRunner,
	collector *usecase.EventCollector,
) xhttp.Handler {
	return api.NewScanEchoHandler(l, scanner, backtest, collector)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.EventCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTradesHandler,
	chClient *pkgch.Client,
	pub repository.SignalPublisher,
	scanQueue *pkgqueue.RedisQueue,
	scanJob *usecase.ScanJob,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, l, collector, consumer, kh, chClient, pub, scanQueue, scanJob, handler)
}
