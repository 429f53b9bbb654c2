package container

import (
	"fmt"

	"github.com/pindrop/pindrop/cmd/server/repository"
	"github.com/pindrop/pindrop/cmd/server/service"
	"github.com/pindrop/pindrop/common/assets"
	"github.com/pindrop/pindrop/common/bootstrap"
	"github.com/pindrop/pindrop/common/enrich"
	"github.com/pindrop/pindrop/common/fetch"
	"github.com/pindrop/pindrop/common/render"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components
	Assets     *assets.Store

	// Repositories
	PinRepo  *repository.PinRepository
	TagRepo  *repository.TagRepository
	UserRepo *repository.UserRepository

	// Services
	TagResolver *service.TagResolver
	Assembler   *service.PinAssembler
	Lifecycle   *service.PinLifecycle
	Tracker     *service.Tracker
	Sweeper     *service.Sweeper
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	store, err := assets.New(cfg.Assets.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}

	// Initialize repositories
	pinRepo := repository.NewPinRepository(components.DB)
	tagRepo := repository.NewTagRepository(components.DB)
	userRepo := repository.NewUserRepository(components.DB)

	// Pipeline stages
	renderer := render.New(
		cfg.Render.Timeout,
		cfg.Render.ViewportWidth,
		cfg.Render.ViewportHeight,
		components.Logger,
	)
	enricher := enrich.New(
		cfg.Enrich.Endpoint,
		cfg.Enrich.APIKey,
		cfg.Enrich.Model,
		cfg.Enrich.Timeout,
		components.Logger,
	)
	fetcher := fetch.New(cfg.Enrich.Timeout)

	// Initialize services (bottom-up: dependencies first)
	tagResolver := service.NewTagResolver(tagRepo, components.Logger)

	var cache service.Cache
	if components.Redis != nil {
		cache = components.Redis
	}

	assembler := service.NewPinAssembler(
		pinRepo,
		tagResolver,
		renderer,
		enricher,
		fetcher,
		store,
		cache,
		cfg.Redis.CacheTTL,
		components.Logger,
	)

	tracker := service.NewTracker()
	sweeper := service.NewSweeper(tracker, store, cfg.Cleanup.SweepInterval, components.Logger)

	lifecycle := service.NewPinLifecycle(
		pinRepo,
		tagRepo,
		tagResolver,
		enricher,
		cache,
		cfg.Redis.CacheTTL,
		store,
		tracker,
		cfg.Cleanup.DeleteRetries,
		cfg.Cleanup.DeleteRetryDelay,
		components.Logger,
	)

	return &Container{
		Components:  components,
		Assets:      store,
		PinRepo:     pinRepo,
		TagRepo:     tagRepo,
		UserRepo:    userRepo,
		TagResolver: tagResolver,
		Assembler:   assembler,
		Lifecycle:   lifecycle,
		Tracker:     tracker,
		Sweeper:     sweeper,
	}, nil
}
