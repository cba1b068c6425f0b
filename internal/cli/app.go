package cli

import (
	"context"
	"fmt"
	"time"

	"catalog-mirror/config"
	"catalog-mirror/internal/broker"
	"catalog-mirror/internal/platform"
	"catalog-mirror/internal/redisclient"
	"catalog-mirror/internal/service"
	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

const serviceName = "catalog-mirror"

// app holds the collaborators one command needs. Optional backends stay
// nil when unconfigured or unreachable.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	store    *store.Store
	cache    *redisclient.Client
	producer *broker.Producer
	tracer   *sdktrace.TracerProvider
}

func newApp(opts *RootOptions) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	if err := util.InitLogger(cfg.App.Env, opts.Verbose); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := util.GetLogger()

	a := &app{cfg: cfg, logger: logger}

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer(serviceName, cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", zap.Error(err))
		} else {
			a.tracer = tp
		}
	}

	a.store, err = store.NewStore(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Debug("Store opened", zap.String("driver", cfg.Database.Driver))

	if cfg.Redis.Addr != "" {
		cache, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			logger.Warn("Export cache disabled", zap.Error(err))
		} else {
			a.cache = cache
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		a.producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSyncEvent)
	}

	return a, nil
}

// exportCache returns nil, not a typed nil, when no cache is configured
func (a *app) exportCache() service.ExportCache {
	if a.cache == nil {
		return nil
	}
	return a.cache
}

func (a *app) syncService() (*service.SyncService, error) {
	if err := a.cfg.Shopify.RequireShopify(); err != nil {
		return nil, err
	}

	client := platform.NewClient(a.cfg.Shopify.BaseURL, a.cfg.Shopify.Token, a.cfg.Shopify.APIVersion, a.cfg.Shopify.Timeout)

	var publisher service.EventPublisher
	if a.producer != nil {
		publisher = broker.NewEventPublisher(a.producer)
	}

	svc := service.NewSyncService(a.store, client, publisher, a.exportCache(), syncOptions(a.cfg.Sync))
	if a.cache != nil {
		svc.WithLocker(a.cache, a.cfg.Sync.LockTTL)
	}
	return svc, nil
}

func syncOptions(c config.SyncConfig) service.SyncOptions {
	opts := service.SyncOptions{
		PageLimit: c.PageLimit,
		SoftDelay: c.SoftDelay,
		OrderCap:  c.OrderCap,
		PageSize:  service.FixedPageSize{},
		Retry: service.RetryPolicy{
			MaxAttempts:     c.RetryMaxAttempts,
			InitialInterval: c.RetryInitialInterval,
			MaxInterval:     c.RetryMaxInterval,
		},
	}
	if c.AdaptivePageSize {
		opts.PageSize = service.ThrottleFallback{Fallback: 1}
	}
	return opts
}

// pushMetrics is best effort; a batch run never fails on it
func (a *app) pushMetrics(job string) {
	if a.cfg.Observ.PushgatewayURL == "" {
		return
	}
	if err := util.PushMetrics(a.cfg.Observ.PushgatewayURL, job); err != nil {
		a.logger.Warn("Failed to push metrics", zap.String("job", job), zap.Error(err))
	}
}

func (a *app) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("Failed to close kafka producer", zap.Error(err))
		}
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}
	util.SyncLogger()
}
