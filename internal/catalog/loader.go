package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/ec-storefront/internal/logger"
)

// Source fetches catalog data from the backend
type Source interface {
	AllProducts(ctx context.Context, limit int) ([]Product, error)
	ListEntities(ctx context.Context, kind EntityKind) ([]Entity, error)
}

// SnapshotStore persists the last good copy of a collection (Redis in production)
type SnapshotStore interface {
	Save(ctx context.Context, collection string, v any) error
	Load(ctx context.Context, collection string, v any) (bool, error)
}

// FetchObserver is told the outcome of every fetch ("ok", "error", "stale")
type FetchObserver func(collection, result string)

type Loader struct {
	source    Source
	cache     *Cache
	snapshots SnapshotStore
	pageSize  int
	observe   FetchObserver
}

func NewLoader(source Source, cache *Cache, pageSize int) *Loader {
	return &Loader{source: source, cache: cache, pageSize: pageSize}
}

// WithSnapshots enables the snapshot store for warm starts
func (l *Loader) WithSnapshots(s SnapshotStore) *Loader {
	l.snapshots = s
	return l
}

// WithObserver sets the fetch outcome callback
func (l *Loader) WithObserver(o FetchObserver) *Loader {
	l.observe = o
	return l
}

// Refresh fetches the products and every entity list concurrently.
// A failing fetch does not cancel the others and keeps that collection's
// previous data. All failures are returned joined.
func (l *Loader) Refresh(ctx context.Context) error {
	log := logger.Component("catalog")

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	record := func(collection string, err error) {
		result := "ok"
		if err != nil {
			result = "error"
			log.Error().Err(err).Str("collection", collection).Msg("fetch failed")
			mu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", collection, err))
			mu.Unlock()
		}
		l.report(collection, result)
	}

	g.Go(func() error {
		ticket := l.cache.Begin(CollectionProducts)
		products, err := l.source.AllProducts(ctx, l.pageSize)
		if err != nil {
			record(CollectionProducts, err)
			return nil
		}
		if !l.cache.CommitProducts(ticket, products) {
			l.report(CollectionProducts, "stale")
			return nil
		}
		record(CollectionProducts, nil)
		l.save(ctx, CollectionProducts, products)
		return nil
	})

	for _, kind := range EntityKinds {
		g.Go(func() error {
			ticket := l.cache.Begin(string(kind))
			entities, err := l.source.ListEntities(ctx, kind)
			if err != nil {
				record(string(kind), err)
				return nil
			}
			if !l.cache.CommitEntities(kind, ticket, entities) {
				l.report(string(kind), "stale")
				return nil
			}
			record(string(kind), nil)
			l.save(ctx, string(kind), entities)
			return nil
		})
	}

	_ = g.Wait()

	err := errors.Join(errs...)
	if err == nil {
		log.Info().Int("products", len(l.cache.Products())).Msg("catalog refreshed")
	}
	return err
}

// Warm fills collections that were never loaded from the snapshot store.
// Call it before the first Refresh.
func (l *Loader) Warm(ctx context.Context) {
	if l.snapshots == nil {
		return
	}
	log := logger.Component("catalog")

	if !l.cache.Loaded(CollectionProducts) {
		var products []Product
		ok, err := l.snapshots.Load(ctx, CollectionProducts, &products)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("collection", CollectionProducts).Msg("warm start failed")
		case ok:
			l.cache.CommitProducts(l.cache.Begin(CollectionProducts), products)
		}
	}

	for _, kind := range EntityKinds {
		if l.cache.Loaded(string(kind)) {
			continue
		}
		var entities []Entity
		ok, err := l.snapshots.Load(ctx, string(kind), &entities)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("collection", string(kind)).Msg("warm start failed")
		case ok:
			l.cache.CommitEntities(kind, l.cache.Begin(string(kind)), entities)
		}
	}
}

// Run refreshes every interval until ctx is done
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = l.Refresh(ctx)
		}
	}
}

func (l *Loader) save(ctx context.Context, collection string, v any) {
	if l.snapshots == nil {
		return
	}
	if err := l.snapshots.Save(ctx, collection, v); err != nil {
		log := logger.Component("catalog")
		log.Warn().Err(err).Str("collection", collection).Msg("snapshot save failed")
	}
}

func (l *Loader) report(collection, result string) {
	if l.observe != nil {
		l.observe(collection, result)
	}
}
