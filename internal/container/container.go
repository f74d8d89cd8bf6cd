package container

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anime-shed/image-discovery-go/internal/analyzer"
	"github.com/anime-shed/image-discovery-go/internal/config"
	"github.com/anime-shed/image-discovery-go/internal/database"
	"github.com/anime-shed/image-discovery-go/internal/factory"
	"github.com/anime-shed/image-discovery-go/internal/geocode"
	"github.com/anime-shed/image-discovery-go/internal/logger"
	"github.com/anime-shed/image-discovery-go/internal/observer"
	"github.com/anime-shed/image-discovery-go/internal/repository"
	"github.com/anime-shed/image-discovery-go/internal/service"
	"github.com/anime-shed/image-discovery-go/internal/storage"
	"github.com/anime-shed/image-discovery-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	store     storage.ObjectStore
	db        *sql.DB
	publisher observer.Subject
	services  transport.Services
	handler   http.Handler
}

// NewContainer builds the dependency graph for cfg. Without a database URL
// only the analysis route is served.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return build(ctx, cfg, factory.NewComponentFactory())
}

func build(ctx context.Context, cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	store, err := components.StorageFactory.CreateStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	provider, err := components.ModelFactory.CreateProvider(ctx, cfg.Gemini)
	if err != nil {
		return nil, fmt.Errorf("failed to create model provider: %w", err)
	}

	observer.RegisterMetrics(prometheus.DefaultRegisterer)
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(observer.NewMetricsObserver())

	opts := analyzer.OptionsFromConfig(cfg)
	analysis := service.NewImageAnalysisService(service.NewPipeline(store, provider, opts), opts, publisher)

	c := &Container{
		config:    cfg,
		store:     store,
		publisher: publisher,
		services:  transport.Services{Analysis: analysis},
	}

	if cfg.Database.URL != "" {
		if err := c.wireDatabase(ctx, analysis); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("DATABASE_URL is not set; image, post and search routes are disabled")
	}

	c.handler = transport.NewHandler(c.services, cfg, prometheus.DefaultGatherer)
	return c, nil
}

func (c *Container) wireDatabase(ctx context.Context, analysis service.ImageAnalysisService) error {
	cfg := c.config

	db, err := database.Connect(ctx, cfg.Database.URL, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	c.db = db

	geocoder, err := geocode.NewNominatimClient(geocode.Config{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Language:  cfg.Geocoder.Language,
		Timeout:   cfg.Geocoder.Timeout,
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create geocoder: %w", err)
	}

	imageRepo := repository.NewPGImageRepository(db)
	postRepo := repository.NewPGPostRepository(db)
	searchRepo := repository.NewPGSearchRepository(db)

	zones, err := geocode.NewZoneFinder()
	if err != nil {
		logger.WithError(err).Warn("time zone boundaries unavailable; local times fall back to UTC")
	}

	location := service.NewLocationService(geocoder, zones)
	images := service.NewImageService(imageRepo, c.store, cfg.Storage.Bucket, cfg.Storage.SignedURLTTL)

	c.services.Images = images
	c.services.Posts = service.NewPostService(postRepo, location, cfg.RecentPostsDelay)
	c.services.Search = service.NewSearchService(searchRepo, postRepo)
	c.services.Discovery = service.NewDiscoveryService(images, location, analysis)
	return nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the database pool.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
