package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/backend"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/redis"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/metrics"
	"github.com/example/ec-storefront/internal/projection"
	"github.com/example/ec-storefront/internal/query"
)

const (
	serviceName     = "storefront-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Init(serviceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)
	log := logger.Component("api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	log.Info().
		Str("event_store", cfg.EventStore).
		Strs("kafka", cfg.KafkaBrokers).
		Str("backend", cfg.BackendURL).
		Msg("starting storefront")

	// Read side
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)

	// Event delivery: Kafka when configured, otherwise inline projection
	var (
		publisher store.Publisher = &projection.InlinePublisher{Projector: projector}
		consumer  *kafka.Consumer
	)
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		consumer = kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ConsumerGroup)
		defer consumer.Close()
	}

	eventStore, closeStore, err := openEventStore(ctx, cfg, publisher)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open event store")
	}
	defer closeStore()

	replayed, err := projector.Replay(ctx, eventStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to replay events")
	}
	log.Info().Int("events", replayed).Msg("read models rebuilt")

	var wg sync.WaitGroup
	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("projector consumer stopped")
			}
		}()
	}

	// Catalog
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	cache := catalog.NewCache(func(collection string) {
		m.StaleDiscards.WithLabelValues(collection).Inc()
	})
	loader := catalog.NewLoader(backendClient, cache, cfg.CatalogPageSize).
		WithObserver(func(collection, result string) {
			m.CatalogRefresh.WithLabelValues(collection, result).Inc()
			if collection == catalog.CollectionProducts && result == "ok" {
				m.CatalogProducts.Set(float64(len(cache.Products())))
			}
		})

	if cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, catalog warm start disabled")
		} else {
			defer client.Close()
			loader.WithSnapshots(redis.NewSnapshotStore(client, serviceName, cfg.CatalogCacheTTL))
			loader.Warm(ctx)
		}
	}

	if err := loader.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial catalog load incomplete")
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		loader.Run(ctx, cfg.RefreshInterval)
	}()

	// Write side
	cartSvc := cart.NewService(eventStore, nil)
	orderSvc := order.NewService(eventStore, backendClient)
	cmdHandler := command.NewHandler(cache, cartSvc, orderSvc, m)
	queryHandler := query.NewHandler(cache, readStore, cartSvc)

	routerCfg := api.RouterConfig{
		Metrics:      m,
		Gatherer:     registry,
		CORSOrigins:  cfg.CORSOrigin,
		SecureCookie: !cfg.IsDevelopment(),
	}
	if cfg.JWTSecret != "" {
		routerCfg.Validator = auth.NewJWTService(cfg.JWTSecret, 15*time.Minute)
	} else {
		log.Warn().Msg("JWT_SECRET not set, every shopper is a guest")
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandlers(cmdHandler, queryHandler, loader), routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server started")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	wg.Wait()
}

// openEventStore builds the configured event store and returns its cleanup
func openEventStore(ctx context.Context, cfg *config.Config, publisher store.Publisher) (store.EventStoreInterface, func(), error) {
	log := logger.Component("api")
	noop := func() {}

	switch cfg.EventStore {
	case config.StorePostgres:
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		es := store.NewPostgresEventStore(db, publisher)
		if err := es.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Info().Msg("connected to PostgreSQL")
		return es, closer(db), nil

	case config.StoreDynamo:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, err
		}
		client := dynamodb.NewFromConfig(awsCfg)
		log.Info().Str("table", cfg.DynamoEventsTable).Msg("using DynamoDB")
		return store.NewDynamoEventStore(client, cfg.DynamoEventsTable, cfg.DynamoSnapshotsTable, publisher), noop, nil

	default:
		log.Info().Msg("using in-memory event store, carts reset on restart")
		return store.NewEventStore(publisher), noop, nil
	}
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
