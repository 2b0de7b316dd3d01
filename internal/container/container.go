package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"cakemap/catalog/internal/bookmark"
	"cakemap/catalog/internal/client"
	"cakemap/catalog/internal/config"
	"cakemap/catalog/internal/feed"
	"cakemap/catalog/internal/handler"
	"cakemap/catalog/internal/proxy"
	"cakemap/catalog/internal/queue"
	"cakemap/catalog/internal/repository"
	"cakemap/catalog/internal/service"
	"cakemap/catalog/internal/state"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Client    *client.HTTPClient
	Shops     repository.ShopRepository
	Bookmarks bookmark.Store
	Settings  state.Store
	Feed      *feed.Paginator

	Catalog *service.Catalog
	Router  *gin.Engine

	bookmarkRepo repository.BookmarkRepository
	redis        *redis.Client
	detach       func()
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	if cfg.Settings.Driver == "redis" || cfg.Redis.PublishEvent {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		container.redis = rdb
	}

	bookmarkRepo, err := newBookmarkRepository(ctx, cfg)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.bookmarkRepo = bookmarkRepo

	switch cfg.Settings.Driver {
	case "redis":
		container.Settings = state.NewRedisStore(container.redis, cfg.Redis.KeyPrefix)
	default:
		container.Settings = state.NewMemoryStore()
	}

	catalogClient := client.NewCatalogClient(cfg.Upstream)
	container.Client = catalogClient

	container.Shops = repository.NewShopRepository(catalogClient)
	container.Bookmarks = bookmark.NewStore(bookmarkRepo)
	container.Feed = feed.NewPaginator(catalogClient, cfg.Feed.PrefetchThreshold)

	if cfg.Redis.PublishEvent {
		container.detach = queue.Attach(container.Bookmarks, queue.NewRedisPublisher(container.redis, cfg.Redis))
		log.Info("📣 Publishing bookmark changes to Redis stream")
	}

	previewTimeout := time.Duration(cfg.Upstream.PreviewTimeout) * time.Second
	proxies := proxy.NewSupplier(ctx, cfg.Upstream.PreviewProxies, cfg.Upstream.PreviewProxyCheckURL, previewTimeout)
	previewer := client.NewLinkPreviewer(previewTimeout, proxies)

	container.Catalog = service.NewCatalog(
		container.Shops,
		catalogClient,
		container.Bookmarks,
		container.Settings,
		container.Feed,
		previewer,
	)
	container.Router = handler.NewRouter(handler.NewCatalogHandler(container.Catalog))

	return container, nil
}

func newBookmarkRepository(ctx context.Context, cfg *config.Config) (repository.BookmarkRepository, error) {
	switch cfg.Bookmarks.Driver {
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		repo, err := repository.NewPostgresBookmarkRepository(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("✅ Bookmarks stored in Postgres")
		return repo, nil
	default:
		db, err := repository.OpenBadger(cfg.Bookmarks.BadgerDir)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewBadgerBookmarkRepository(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Infof("✅ Bookmarks stored in Badger at %s", cfg.Bookmarks.BadgerDir)
		return repo, nil
	}
}

// Run serves the HTTP API until ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    c.Config.Server.Addr(),
		Handler: c.Router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 Listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("🛑 Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Config.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.detach != nil {
		c.detach()
	}
	if c.Client != nil {
		errs = append(errs, c.Client.Close())
	}
	if c.bookmarkRepo != nil {
		errs = append(errs, c.bookmarkRepo.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}

	log.Info("Container shut down successfully")
	return errors.Join(errs...)
}
