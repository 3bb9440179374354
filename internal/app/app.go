// Package app is the composition root. It registers every service with a
// registry under a fixed name and hands the wired graph to the commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sofia/internal/ai"
	"sofia/internal/clock"
	"sofia/internal/config"
	"sofia/internal/database"
	"sofia/internal/logger"
	"sofia/internal/records"
	"sofia/internal/registry"
	"sofia/internal/services"
	"sofia/internal/userlock"
)

// Service names in the registry.
const (
	ServiceAI        = "ai"
	ServiceImages    = "images"
	ServiceStore     = "store"
	ServiceLedger    = "ledger"
	ServiceDetector  = "detector"
	ServiceEditFlow  = "editflow"
	ServiceAssistant = "assistant"
)

const (
	aiMaxRetryDelay   = 10 * time.Second
	aiBackoffFactor   = 2.0
	aiJitterFraction  = 0.2
	perplexityTimeout = 60 * time.Second
)

// Options override parts of the graph that would otherwise be built from
// configuration.
type Options struct {
	Backend   records.Backend
	Completer ai.Completer
	Images    ai.ImageAnalyzer
	Clock     clock.Clock
}

// App holds the wired services.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Clock    clock.Clock
	Locks    *userlock.Locker

	Store     services.UserDataServicer
	Ledger    services.LedgerServicer
	Assistant services.AssistantServicer

	closers []func() error
}

// New builds the service graph. The storage backend and AI providers are
// chosen from cfg unless opts supplies them.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{
		Config:   cfg,
		Registry: registry.New(),
		Clock:    opts.Clock,
		Locks:    userlock.New(),
	}
	if a.Clock == nil {
		a.Clock = clock.Real()
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = a.openBackend(ctx)
		if err != nil {
			return nil, err
		}
	}

	completer, images := opts.Completer, opts.Images
	aiConfigured := completer != nil
	if completer == nil {
		var err error
		completer, images, err = a.openProviders(ctx, images)
		if err != nil {
			a.Close()
			return nil, err
		}
		aiConfigured = cfg.AIConfigured()
	}

	a.register(backend, completer, images, aiConfigured)
	if err := a.Registry.Wire(); err != nil {
		a.Close()
		return nil, err
	}

	var err error
	if a.Store, err = registry.MustResolve[services.UserDataServicer](a.Registry, ServiceStore); err != nil {
		a.Close()
		return nil, err
	}
	if a.Ledger, err = registry.MustResolve[services.LedgerServicer](a.Registry, ServiceLedger); err != nil {
		a.Close()
		return nil, err
	}
	if a.Assistant, err = registry.MustResolve[services.AssistantServicer](a.Registry, ServiceAssistant); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) register(backend records.Backend, completer ai.Completer, images ai.ImageAnalyzer, aiConfigured bool) {
	cfg := a.Config
	r := a.Registry

	r.Register(ServiceAI, func(registry.Resolver) (any, error) {
		return completer, nil
	})
	r.Register(ServiceImages, func(registry.Resolver) (any, error) {
		if images == nil {
			return ai.ImageAnalyzer(ai.Disabled{}), nil
		}
		return images, nil
	})
	r.Register(ServiceStore, func(registry.Resolver) (any, error) {
		return services.NewUserDataService(backend, a.Clock, cfg.HistoryRetention), nil
	})
	r.Register(ServiceLedger, func(res registry.Resolver) (any, error) {
		store, err := registry.MustResolve[services.UserDataServicer](res, ServiceStore)
		if err != nil {
			return nil, err
		}
		c, err := registry.MustResolve[ai.Completer](res, ServiceAI)
		if err != nil {
			return nil, err
		}
		return services.NewLedgerService(store, c, a.Clock), nil
	})
	r.Register(ServiceDetector, func(res registry.Resolver) (any, error) {
		c, err := registry.MustResolve[ai.Completer](res, ServiceAI)
		if err != nil {
			return nil, err
		}
		return services.NewDetectorService(c, nil), nil
	})
	r.Register(ServiceEditFlow, func(res registry.Resolver) (any, error) {
		store, err := registry.MustResolve[services.UserDataServicer](res, ServiceStore)
		if err != nil {
			return nil, err
		}
		ledger, err := registry.MustResolve[services.LedgerServicer](res, ServiceLedger)
		if err != nil {
			return nil, err
		}
		detector, err := registry.MustResolve[services.DetectorServicer](res, ServiceDetector)
		if err != nil {
			return nil, err
		}
		return services.NewEditFlowService(store, ledger, detector, a.Clock, cfg.PendingActionTTL), nil
	})
	r.Register(ServiceAssistant, func(res registry.Resolver) (any, error) {
		store, err := registry.MustResolve[services.UserDataServicer](res, ServiceStore)
		if err != nil {
			return nil, err
		}
		ledger, err := registry.MustResolve[services.LedgerServicer](res, ServiceLedger)
		if err != nil {
			return nil, err
		}
		detector, err := registry.MustResolve[services.DetectorServicer](res, ServiceDetector)
		if err != nil {
			return nil, err
		}
		editFlow, err := registry.MustResolve[services.EditFlowServicer](res, ServiceEditFlow)
		if err != nil {
			return nil, err
		}
		c, err := registry.MustResolve[ai.Completer](res, ServiceAI)
		if err != nil {
			return nil, err
		}
		img, _ := registry.Resolve[ai.ImageAnalyzer](res, ServiceImages)
		return services.NewAssistantService(store, ledger, detector, editFlow, c, img, a.Locks, services.AssistantOptions{
			AIConfigured:     aiConfigured,
			ImagesConfigured: images != nil,
			MaxTokens:        cfg.AIMaxTokens,
			SearchContext:    cfg.SearchContextSize,
		}), nil
	})
}

// openBackend selects the record store named by STORAGE_BACKEND.
func (a *App) openBackend(ctx context.Context) (records.Backend, error) {
	cfg := a.Config
	switch cfg.StorageBackend {
	case "memory":
		logger.Get().Warn("Using in-memory record storage, data is lost on exit")
		return records.NewMemory(), nil
	case "gcs":
		gcs, err := records.NewGCSBackend(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentials)
		if err != nil {
			return nil, fmt.Errorf("failed to open gcs storage: %w", err)
		}
		a.closers = append(a.closers, gcs.Close)
		logger.Get().Infow("Using GCS record storage", "bucket", cfg.GCSBucket, "prefix", cfg.GCSPrefix)
		return gcs, nil
	case "sql", "":
		dbConfig, err := database.NewConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load database configuration: %w", err)
		}
		dbManager, err := database.NewManager(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create database manager: %w", err)
		}
		a.closers = append(a.closers, dbManager.Close)
		if err := dbManager.RunMigrations(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Get().Infow("Using SQL record storage", "driver", dbConfig.Driver)
		return records.NewSQLBackend(dbManager.DB()), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// openProviders builds the completer named by AI_PROVIDER, wrapped with a
// timeout and retries. Gemini doubles as the image analyzer whenever a
// Gemini key is present.
func (a *App) openProviders(ctx context.Context, images ai.ImageAnalyzer) (ai.Completer, ai.ImageAnalyzer, error) {
	cfg := a.Config
	log := logger.Get()

	var gemini *ai.Gemini
	if cfg.GeminiAPIKey != "" {
		g, err := ai.NewGemini(ctx, ai.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			VisionModel: cfg.GeminiVisionModel,
			MaxTokens:   cfg.AIMaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		gemini = g
		if images == nil {
			images = g
		}
	}

	var inner ai.Completer
	switch {
	case !cfg.AIConfigured():
		log.Warnw("AI collaborator not configured, replies use local fallbacks", "provider", cfg.AIProvider)
		return ai.Disabled{}, images, nil
	case cfg.AIProvider == "perplexity":
		inner = ai.NewPerplexity(&http.Client{Timeout: perplexityTimeout}, ai.PerplexityConfig{
			BaseURL:   cfg.PerplexityBaseURL,
			APIKey:    cfg.PerplexityAPIKey,
			Model:     cfg.PerplexityModel,
			MaxTokens: cfg.AIMaxTokens,
		})
	case cfg.AIProvider == "gemini" && gemini != nil:
		inner = gemini
	default:
		return nil, nil, errors.New("unsupported AI provider " + cfg.AIProvider)
	}

	log.Infow("AI collaborator configured", "provider", cfg.AIProvider, "images", images != nil)
	return ai.NewResilient(inner, a.Clock, cfg.AITimeout, ai.RetryConfig{
		MaxRetries:     cfg.AIMaxRetries,
		InitialDelay:   cfg.AIRetryInitialWait,
		MaxDelay:       aiMaxRetryDelay,
		BackoffFactor:  aiBackoffFactor,
		JitterFraction: aiJitterFraction,
	}), images, nil
}

// Close releases storage connections. It is safe to call more than once.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
