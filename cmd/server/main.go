package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/maynagashev/autojob/internal/config"
	"github.com/maynagashev/autojob/internal/handlers"
	"github.com/maynagashev/autojob/internal/logger"
	"github.com/maynagashev/autojob/internal/metrics"
	appmiddleware "github.com/maynagashev/autojob/internal/middleware"
	"github.com/maynagashev/autojob/internal/repository"
	"github.com/maynagashev/autojob/internal/services"
	"github.com/maynagashev/autojob/internal/storage"
	"github.com/maynagashev/autojob/internal/upload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second

	rateLimitCleanupInterval = 5 * time.Minute
	redisPingTimeout         = 3 * time.Second
	loginRateLimitMessage    = "Too many login attempts. Please try again in 15 minutes."
)

// infrastructure - внешние ресурсы, поверх которых собираются сервисы.
type infrastructure struct {
	db           handlers.Pinger
	users        repository.UserRepository
	applications repository.ApplicationRepository
	files        storage.FileStorage
	windows      appmiddleware.WindowStore
	registry     *prometheus.Registry
}

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	tokens           services.TokenIssuer
	funnel           *handlers.Funnel
	recorder         metrics.Recorder
	registry         *prometheus.Registry
	authHandler      *handlers.AuthHandler
	resumeHandler    *handlers.ResumeHandler
	dashboardHandler *handlers.DashboardHandler
	healthHandler    *handlers.HealthHandler
	loginLimiter     *appmiddleware.FixedWindowLimiter
	throttle         *appmiddleware.Throttle // nil, если общий лимит отключен
	corsOrigin       string
	trustProxy       bool

	closers []func()
}

// close освобождает ресурсы в порядке, обратном созданию.
func (d *dependencies) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Ошибка выполнения сервера", slog.Any("error", err))
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.Info("Запуск сервера AutoJob...", slog.String("env", cfg.AppEnv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      setupRouter(deps),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			slog.Info("Запуск HTTPS-сервера", slog.String("port", cfg.Port), slog.String("cert", cfg.CertFile))
			serveErr <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		slog.Info("Запуск HTTP-сервера", slog.String("port", cfg.Port))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Получен сигнал завершения, останавливаем сервер...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	slog.Info("Сервер остановлен")
	return nil
}

// setupDependencies подключается к внешним ресурсам и собирает зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	var closers []func()
	fail := func(err error) (*dependencies, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	// 1. Миграции и подключение к БД
	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(cfg.DatabaseDSN); err != nil {
			return nil, fmt.Errorf("ошибка миграций: %w", err)
		}
	}
	db, err := repository.NewPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	closers = append(closers, func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Warn("Ошибка закрытия соединения с БД", slog.Any("error", closeErr))
		}
	})

	// 2. Хранилище файлов
	files, err := setupFileStorage(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	// 3. Хранилище окон ограничителя входа
	var windows appmiddleware.WindowStore
	if cfg.RateLimitRedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimitRedisAddr, Password: cfg.RateLimitRedisPass})
		closers = append(closers, func() { _ = client.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fail(fmt.Errorf("ошибка подключения к Redis %s: %w", cfg.RateLimitRedisAddr, err))
		}
		slog.Info("Ограничитель входа использует Redis", slog.String("addr", cfg.RateLimitRedisAddr))
		windows = appmiddleware.NewRedisStore(client, cfg.LoginRateWindow, "autojob:ratelimit:login:")
	} else {
		memory := appmiddleware.NewMemoryStore(cfg.LoginRateWindow, rateLimitCleanupInterval)
		closers = append(closers, memory.Stop)
		windows = memory
	}

	deps := buildDependencies(cfg, infrastructure{
		db:           db,
		users:        repository.NewPostgresUserRepository(db),
		applications: repository.NewPostgresApplicationRepository(db),
		files:        files,
		windows:      windows,
		registry:     newRegistry(),
	})
	deps.closers = append(closers, deps.closers...)
	return deps, nil
}

// setupFileStorage создает хранилище резюме согласно STORAGE_BACKEND.
func setupFileStorage(ctx context.Context, cfg *config.Config) (storage.FileStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageMinio:
		client, err := storage.NewMinioClient(ctx, storage.MinioConfig{
			Endpoint:        cfg.MinioEndpoint,
			AccessKeyID:     cfg.MinioUser,
			SecretAccessKey: cfg.MinioPassword,
			UseSSL:          cfg.MinioUseSSL,
			BucketName:      cfg.MinioBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
		}
		return client, nil
	default:
		local, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
		}
		return local, nil
	}
}

// newRegistry создает реестр метрик со стандартными метриками процесса и рантайма.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildDependencies собирает сервисы и обработчики поверх готовой инфраструктуры.
func buildDependencies(cfg *config.Config, infra infrastructure) *dependencies {
	recorder := metrics.NewCollector(infra.registry)
	funnel := handlers.NewFunnel(cfg.IsProduction())

	tokens := services.NewJWTIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)

	authService := services.NewAuthService(infra.users, hasher, tokens, recorder)
	resumeService := services.NewResumeService(infra.users, infra.files, recorder)
	dashboardService := services.NewDashboardService(infra.users, infra.applications)

	deps := &dependencies{
		tokens:           tokens,
		funnel:           funnel,
		recorder:         recorder,
		registry:         infra.registry,
		authHandler:      handlers.NewAuthHandler(authService, funnel),
		resumeHandler:    handlers.NewResumeHandler(resumeService, upload.NewReceiver(cfg.UploadMaxBytes, cfg.UploadStagingDir), funnel),
		dashboardHandler: handlers.NewDashboardHandler(dashboardService, funnel),
		healthHandler:    handlers.NewHealthHandler(infra.db, cfg.IsProduction()),
		loginLimiter: appmiddleware.NewFixedWindowLimiter(appmiddleware.FixedWindowConfig{
			Name:    "login",
			Limit:   int64(cfg.LoginRateLimit),
			Window:  cfg.LoginRateWindow,
			Message: loginRateLimitMessage,
		}, infra.windows, recorder),
		corsOrigin: cfg.CORSAllowedOrigin,
		trustProxy: cfg.TrustProxy,
	}

	if cfg.APIRatePerSec > 0 {
		deps.throttle = appmiddleware.NewThrottle(cfg.APIRatePerSec, cfg.APIRateBurst, rateLimitCleanupInterval, recorder)
		deps.closers = append(deps.closers, deps.throttle.Stop)
	}
	return deps
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Без доверенного прокси заголовки адреса задает сам клиент, ключом остается адрес сокета
	if deps.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(appmiddleware.RequestLogger(slog.Default(), deps.recorder))
	r.Use(deps.funnel.Recoverer)
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(appmiddleware.CORS(deps.corsOrigin))

	// --- Маршруты --- //
	r.Get("/ping", handlers.Ping)
	r.Handle("/metrics", metrics.Handler(deps.registry))

	// Определяем базовый маршрут /api
	r.Route("/api", func(r chi.Router) {
		if deps.throttle != nil {
			r.Use(deps.throttle.Middleware)
		}

		// Публичные маршруты
		r.Get("/health", deps.healthHandler.Check)
		r.Post("/register", deps.authHandler.Register)
		r.With(deps.loginLimiter.Middleware).Post("/login", deps.authHandler.Login)

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(deps.tokens))

			r.Get("/me", deps.authHandler.Me)
			r.Get("/dashboard", deps.dashboardHandler.Get)
			r.Post("/upload-cv", deps.resumeHandler.Upload)
			r.Get("/cv", deps.resumeHandler.Download)
		})
	})
	return r
}
