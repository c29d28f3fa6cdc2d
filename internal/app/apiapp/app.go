package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/config"
	s3infra "github.com/humapedia/humapedia/internal/infra/s3"
	"github.com/humapedia/humapedia/internal/jobs/cleanup"
	pgrepo "github.com/humapedia/humapedia/internal/repo/postgres"
	redrepo "github.com/humapedia/humapedia/internal/repo/redis"
	creditssvc "github.com/humapedia/humapedia/internal/services/credits"
	facesvc "github.com/humapedia/humapedia/internal/services/facesearch"
	historysvc "github.com/humapedia/humapedia/internal/services/history"
	profilessvc "github.com/humapedia/humapedia/internal/services/profiles"
	ratesvc "github.com/humapedia/humapedia/internal/services/rate"
	searchsvc "github.com/humapedia/humapedia/internal/services/search"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	profileRepo := pgrepo.NewProfileRepo(pool)
	creditRepo := pgrepo.NewCreditRepo(pool)
	historyRepo := redrepo.NewHistoryRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	searchService := searchsvc.NewService(profileRepo, searchsvc.Config{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	})

	paymentProvider := creditssvc.NewSimulatedPaymentProvider(
		cfg.Providers.Payment.Latency,
		cfg.Providers.Payment.SuccessRate,
	)
	creditsService := creditssvc.NewService(creditRepo, paymentProvider, creditssvc.Config{
		FaceSearchCost: cfg.Credits.FaceSearchCost,
		TextSearchCost: cfg.Credits.TextSearchCost,
		BulkSearchCost: cfg.Credits.BulkSearchCost,
		Pricing: creditssvc.Pricing{
			Small:      creditssvc.Tier(cfg.Credits.Tiers.Small),
			Medium:     creditssvc.Tier(cfg.Credits.Tiers.Medium),
			Large:      creditssvc.Tier(cfg.Credits.Tiers.Large),
			Enterprise: creditssvc.Tier(cfg.Credits.Tiers.Enterprise),
		},
		ProviderTimeout: cfg.Providers.Payment.Timeout,
	}, log)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Limits.FaceSearchPerMinute,
		cfg.Limits.FaceSearchPer10Seconds,
	)

	imageStorage := facesvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	inferenceProvider := facesvc.NewSimulatedInferenceProvider(cfg.Providers.Inference.Latency)
	faceSearchService := facesvc.NewService(
		profileRepo,
		creditsService,
		inferenceProvider,
		rateLimiter,
		imageStorage,
		facesvc.Config{ProviderTimeout: cfg.Providers.Inference.Timeout},
		log,
	)

	historyService := historysvc.NewService(historyRepo, historysvc.Config{
		MaxEntries:      cfg.History.MaxEntries,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	})

	profilesService := profilessvc.NewService(profileRepo, log)

	cleanupJob := cleanup.New(historyRepo, imageStorage, cfg.History.Retention, log)

	RegisterRoutes(r, Dependencies{
		SearchService:     searchService,
		FaceSearchService: faceSearchService,
		CreditsService:    creditsService,
		HistoryService:    historyService,
		ProfilesService:   profilesService,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
		cleanupJob: cleanupJob,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// CleanupJob exposes the history retention job so main can schedule it.
func (a *App) CleanupJob() *cleanup.Job {
	return a.cleanupJob
}
