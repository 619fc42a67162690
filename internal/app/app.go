package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/KrisMoody/stryktipset-predictor-sub003/external/apifootball"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/config"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/enrichment"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/jobscheduler"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/mapping"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/match"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/unresolved"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/domain/usage"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/events"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/jobqueue"
	cacherepo "github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/cache"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/memory"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/infrastructure/repository/postgres"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/interfaces/httpapi"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/cache"
	idgen "github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/id"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/logging"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/metrics"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/resilience"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/platform/textmatch"
	"github.com/KrisMoody/stryktipset-predictor-sub003/internal/usecase"
)

// App holds the wired service. Close releases everything New opened.
type App struct {
	Server       *http.Server
	Jobs         *usecase.AutoFetchSweep
	Provider     *apifootball.Client
	Cache        *cache.Tiered
	// FixtureCache holds resolved fixture identities. They are not provider
	// envelopes, so the envelope emptiness check must not filter them.
	FixtureCache *cache.Tiered

	logger  *logging.Logger
	closers []func(context.Context) error
}

type repositories struct {
	matches    match.Repository
	records    enrichment.Repository
	mappings   mapping.Repository
	unresolved unresolved.Repository
	usage      usage.Repository
	dispatches jobscheduler.Repository
	durable    cache.Backend
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}
	readiness := map[string]httpapi.ReadinessCheck{}

	repos, err := a.openRepositories(ctx, cfg, readiness)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	recorder, err := metrics.NewRecorder("enrichment", otel.GetMeterProvider())
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("create metrics recorder: %w", err)
	}

	a.Cache = cache.NewTiered(cache.NewStore[[]byte](0), repos.durable, apifootball.IsEmptyEnvelope, logger.Named("cache"))
	a.FixtureCache = cache.NewTiered(cache.NewStore[[]byte](0), repos.durable, cache.IsPlaceholderPayload, logger.Named("fixture_cache"))

	provider, err := apifootball.NewClient(apifootball.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.APIFootball.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Auth: apifootball.AuthConfig{
			Mode:            apifootball.AuthMode(cfg.APIFootball.AuthMode),
			APIKey:          cfg.APIFootball.APIKey,
			BaseURL:         cfg.APIFootball.BaseURL,
			RapidAPIKey:     cfg.APIFootball.RapidAPIKey,
			RapidAPIHost:    cfg.APIFootball.RapidAPIHost,
			RapidAPIBaseURL: cfg.APIFootball.RapidAPIBaseURL,
		},
		Timeout:    cfg.APIFootball.Timeout,
		MaxRetries: cfg.APIFootball.MaxRetries,
		RateLimit: resilience.RateLimitConfig{
			RequestsPerMinute: cfg.APIFootball.RequestsPerMinute,
			MinInterval:       cfg.APIFootball.MinInterval,
		},
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootball.CircuitEnabled,
			FailureThreshold: cfg.APIFootball.CircuitFailureCount,
			OpenTimeout:      cfg.APIFootball.CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootball.CircuitHalfOpenMaxReq,
		},
		DailyLimit: cfg.APIFootball.DailyLimit,
		Cache:      a.Cache,
		Usage:      repos.usage,
		Metrics:    recorder,
		Logger:     logger,
	})
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("create api-football client: %w", err)
	}
	a.Provider = provider

	teamAliases, leagueAliases, err := textmatch.LoadAliases(cfg.AliasFile)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("load aliases: %w", err)
	}

	publisher, err := a.newEventPublisher(cfg)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	autoFetchTypes, err := enrichment.ParseDataTypes(cfg.Enrichment.AutoFetchTypes)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("parse ENRICHMENT_AUTO_FETCH_TYPES: %w", err)
	}

	matcher := usecase.NewEntityMatcher(usecase.EntityMatcherDeps{
		Mappings:      repos.mappings,
		Unresolved:    repos.unresolved,
		Catalog:       provider,
		TeamAliases:   teamAliases,
		LeagueAliases: leagueAliases,
		IDs:           idgen.NewUUIDGenerator(),
		Config: usecase.MatcherConfig{
			FuzzyThreshold:          cfg.Matcher.FuzzyThreshold,
			HighConfidenceThreshold: cfg.Matcher.HighConfidenceThreshold,
			UnscopedThreshold:       cfg.Matcher.UnscopedThreshold,
			CandidateLimit:          cfg.Matcher.CandidateLimit,
			RosterTTL:               cfg.Matcher.RosterTTL,
		},
		Logger:        logger.Named("matcher"),
	})
	resolver := usecase.NewFixtureResolver(provider, provider, a.FixtureCache, logger.Named("resolver"))
	orchestrator := usecase.NewEnrichmentOrchestrator(usecase.EnrichmentOrchestratorDeps{
		Matches:    repos.matches,
		Records:    repos.records,
		Mappings:   repos.mappings,
		Unresolved: repos.unresolved,
		Matcher:    matcher,
		Resolver:   resolver,
		Catalog:    provider,
		Provider:   provider,
		Monitor:    provider,
		Events:     publisher,
		Metrics:    recorder,
		Config: usecase.EnrichmentConfig{
			AutoFetchTypes:     autoFetchTypes,
			LineupsEnabled:     cfg.Enrichment.LineupsEnabled,
			LineupWindow:       cfg.Enrichment.LineupWindow,
			SequentialDelay:    cfg.Enrichment.SequentialDelay,
			QuotaGuardRatio:    cfg.Enrichment.QuotaGuardRatio,
			ParallelMaxWorkers: cfg.Enrichment.ParallelMaxWorkers,
			HeadToHeadLimit:    cfg.Enrichment.HeadToHeadLimit,
			Bookmakers:         cfg.Enrichment.Bookmakers,
		},
		Logger: logger.Named("enrichment"),
	})
	resultSync := usecase.NewResultFallbackSync(usecase.ResultFallbackSyncDeps{
		Matches:    repos.matches,
		Fixtures:   provider,
		References: orchestrator,
		Events:     publisher,
		Metrics:    recorder,
		Config: usecase.ResultSyncConfig{
			Grace:      cfg.Jobs.ResultSyncGrace,
			MaxWorkers: cfg.Jobs.ResultSyncWorkers,
		},
		Logger: logger.Named("resultsync"),
	})

	var queue usecase.JobQueue
	if cfg.Jobs.QStashEnabled {
		qstash, err := jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
			BaseURL:          cfg.Jobs.QStashBaseURL,
			Token:            cfg.Jobs.QStashToken,
			TargetBaseURL:    cfg.Jobs.QStashTargetBaseURL,
			Retries:          cfg.Jobs.QStashRetries,
			InternalJobToken: cfg.Jobs.InternalJobToken,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.Jobs.QStashCircuitEnabled,
				FailureThreshold: cfg.Jobs.QStashCircuitFailures,
				OpenTimeout:      cfg.Jobs.QStashCircuitTimeout,
				HalfOpenMaxReq:   1,
			},
		}, logger)
		if err != nil {
			_ = a.Close(context.Background())
			return nil, fmt.Errorf("create qstash publisher: %w", err)
		}
		queue = qstash
	}
	a.Jobs = usecase.NewAutoFetchSweep(usecase.AutoFetchSweepDeps{
		Matches:    repos.matches,
		Runner:     orchestrator,
		ResultSync: resultSync,
		Queue:      queue,
		Dispatches: repos.dispatches,
		Config: usecase.AutoFetchSweepConfig{
			Horizon: cfg.Jobs.SweepHorizon,
			Bucket:  usecase.DefaultAutoFetchSweepConfig().Bucket,
			Stagger: cfg.Jobs.SweepStagger,
		},
		Logger: logger.Named("jobs"),
	})

	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Enrichment:      orchestrator,
		Mappings:        matcher,
		Unresolved:      repos.unresolved,
		Results:         resultSync,
		Jobs:            a.Jobs,
		ProviderStatus:  usecase.NewProviderStatusService(provider, repos.usage, orchestrator),
		JobDispatchRepo: repos.dispatches,
		Readiness:       readiness,
		Logger:          logger.Named("httpapi"),
	})

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = recorder.Handler()
	}
	var captureBytes int
	if cfg.UptraceCaptureRequestBody {
		captureBytes = cfg.UptraceRequestBodyMaxBytes
	}
	router := httpapi.NewRouter(handler, logger, httpapi.RouterOptions{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.Jobs.InternalJobToken,
		CaptureBodyBytes:   captureBytes,
		Metrics:            metricsHandler,
	})

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config, readiness map[string]httpapi.ReadinessCheck) (repositories, error) {
	var repos repositories

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := openDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		readiness["database"] = db.PingContext

		repos = repositories{
			matches:    postgres.NewMatchRepository(db),
			records:    postgres.NewEnrichmentRepository(db),
			mappings:   postgres.NewMappingRepository(db),
			unresolved: postgres.NewUnresolvedRepository(db),
			usage:      postgres.NewUsageRepository(db),
			dispatches: postgres.NewJobDispatchRepository(db),
		}
		if cfg.DurableCache == config.DurableCachePostgres {
			repos.durable = postgres.NewProviderCacheRepository(db)
		}
		if cfg.AppEnv == config.EnvDev {
			if err := postgres.BootstrapSeed(ctx, db, time.Now()); err != nil {
				a.logger.WarnContext(ctx, "bootstrap seed skipped", "error", err)
			}
		}
	default:
		var seed []match.Match
		if cfg.AppEnv == config.EnvDev {
			seed = memory.SeedMatches(time.Now())
		}
		repos = repositories{
			matches:    memory.NewMatchRepository(seed...),
			records:    memory.NewEnrichmentRepository(),
			mappings:   memory.NewMappingRepository(),
			unresolved: memory.NewUnresolvedRepository(),
			usage:      memory.NewUsageRepository(),
			dispatches: memory.NewJobDispatchRepository(),
		}
	}

	switch cfg.DurableCache {
	case config.DurableCacheMemory:
		repos.durable = memory.NewCacheBackend()
	case config.DurableCacheRedis:
		client, err := cacherepo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return repositories{}, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		readiness["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		repos.durable = cacherepo.NewRedisBackend(client, "")
	}

	repos.mappings = cacherepo.NewMappingRepository(repos.mappings, cfg.MappingCacheTTL)
	return repos, nil
}

func (a *App) newEventPublisher(cfg config.Config) (usecase.EventPublisher, error) {
	if !cfg.Jobs.AMQPEnabled {
		return usecase.NoopEventPublisher{}, nil
	}

	publisher, err := events.NewAMQPPublisher(events.AMQPPublisherConfig{
		URL:      cfg.Jobs.AMQPURL,
		Exchange: cfg.Jobs.AMQPExchange,
	}, a.logger.Named("events"))
	if err != nil {
		return nil, fmt.Errorf("create amqp publisher: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })
	return publisher, nil
}

// RestoreQuota seeds today's quota usage from persisted usage records.
func (a *App) RestoreQuota(ctx context.Context) error {
	if a.Provider == nil {
		return nil
	}
	return a.Provider.RestoreQuota(ctx)
}

// PurgeCache drops expired provider cache entries from both tiers. The
// fixture cache shares the durable backend, so its pass usually drops nothing
// beyond its own memory entries.
func (a *App) PurgeCache(ctx context.Context) (int64, error) {
	var purged int64
	for _, tiered := range []*cache.Tiered{a.Cache, a.FixtureCache} {
		if tiered == nil {
			continue
		}
		n, err := tiered.PurgeExpired(ctx)
		if err != nil {
			return purged, err
		}
		purged += n
	}
	return purged, nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
