package main

import (
	"Go_Attach/config"
	"Go_Attach/internal/events"
	"Go_Attach/internal/handler"
	"Go_Attach/internal/linkindex"
	"Go_Attach/internal/listener"
	"Go_Attach/internal/mq"
	"Go_Attach/internal/recordstore"
	"Go_Attach/internal/repo"
	"Go_Attach/internal/service"
	"Go_Attach/internal/settings"
	"Go_Attach/internal/storage"
	"Go_Attach/router"
	"Go_Attach/utils"
	"context"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// app holds the wired components of one process.
type app struct {
	cfg         config.Config
	settings    *settings.Settings
	store       storage.Store
	records     *recordstore.Store
	coordinator *service.Coordinator
	accounts    *service.Accounts
	heartbeat   *service.Heartbeat
	registry    *prometheus.Registry
	logger      zerolog.Logger
	closers     []func()
}

// loadSettings reads and validates the attachment.* namespace.
func loadSettings(cfg config.Config) (*settings.Settings, error) {
	raw, err := config.LoadAttachmentSettings(cfg.AttachmentConfigFile)
	if err != nil {
		return nil, err
	}
	return settings.Parse(raw)
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, logger: utils.Logger(), registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := loadSettings(cfg)
	if err != nil {
		return nil, err
	}
	a.settings = s

	db, err := repo.InitDB()
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.closers = append(a.closers, func() { _ = sqlDB.Close() })

	observer, err := storage.NewPrometheusObserver(a.registry)
	if err != nil {
		return nil, a.abort(err)
	}
	store, err := storage.InitStore(ctx, config.NewStorageConfig(s.Backend()), observer)
	if err != nil {
		return nil, a.abort(err)
	}
	a.store = store
	if closer, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, func() { _ = closer.Close() })
	}

	dispatcher := events.NewDispatcher()
	a.records = recordstore.New(db, dispatcher)
	a.coordinator = service.NewCoordinator(s, store, linkindex.New(db), a.records, cfg.AttachmentField)
	a.coordinator.SetLogger(a.logger.With().Str("component", "attachments").Logger())
	a.accounts = service.NewAccounts(db)

	dispatcher.Register(listener.NewAttachmentGuard(cfg.AttachmentField))
	dispatcher.Register(listener.NewCascadeListener(a.coordinator, a.logger))
	if cfg.EventsAMQPEnabled {
		client, err := mq.Dial(cfg.RabbitMQURL, cfg.EventsExchange)
		if err != nil {
			return nil, a.abort(fmt.Errorf("connect rabbitmq: %w", err))
		}
		a.closers = append(a.closers, client.Close)
		dispatcher.Register(mq.NewEventForwarder(client, a.logger))
	}

	redisClient, err := repo.InitRedis(ctx)
	if err != nil {
		return nil, a.abort(fmt.Errorf("connect redis: %w", err))
	}
	if redisClient == nil {
		a.heartbeat = service.NewHeartbeat(nil, 0, a.logger)
	} else {
		cache := utils.NewRedisCache(redisClient)
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		a.heartbeat = service.NewHeartbeat(cache, cfg.HeartbeatCacheTTL, a.logger)
		a.heartbeat.Register(service.CheckCache, service.PingProbe(service.CheckCache, cache.Ping, a.logger))
	}
	a.heartbeat.Register(service.CheckAttachments, service.AttachmentsPing(store, cfg.ReadOnly, a.logger))
	a.heartbeat.Register(service.CheckStorage, service.PingProbe(service.CheckStorage, a.records.Ping, a.logger))
	return a, nil
}

// abort releases what newApp opened so far.
func (a *app) abort(err error) error {
	a.Close()
	return err
}

func (a *app) router() *gin.Engine {
	h := handler.New(a.cfg, a.coordinator, a.records, a.accounts, a.heartbeat, a.logger)
	return router.InitRouter(h, a.cfg, a.registry)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
