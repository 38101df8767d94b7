package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/exam-engine-api/internal/config"
	"github.com/yourusername/exam-engine-api/internal/domain/repository"
	"github.com/yourusername/exam-engine-api/internal/event"
	"github.com/yourusername/exam-engine-api/internal/handler"
	"github.com/yourusername/exam-engine-api/internal/metrics"
	"github.com/yourusername/exam-engine-api/internal/middleware"
	pgRepo "github.com/yourusername/exam-engine-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/exam-engine-api/internal/repository/redis"
	"github.com/yourusername/exam-engine-api/internal/service"
	"github.com/yourusername/exam-engine-api/internal/service/examengine"
	"github.com/yourusername/exam-engine-api/pkg/auth"
	"github.com/yourusername/exam-engine-api/pkg/database"
	"github.com/yourusername/exam-engine-api/pkg/logger"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLogger, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database, cfg.Log.Mode)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal("Failed to migrate database", "error", err)
	}

	// Redis: блокировка старта попытки, кеш вопросов версии, rate limiting
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()
	appLogger.Info("Successfully connected to Redis", "mode", cfg.Redis.Mode)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
	if err != nil {
		appLogger.Fatal("Failed to initialize CacheRepo", "error", err)
	}

	// Инициализируем репозитории
	evaluationRepo := pgRepo.NewEvaluationRepo(db)
	versionRepo := pgRepo.NewVersionRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)
	enrollmentRepo := pgRepo.NewEnrollmentRepo(db)
	userRepo := pgRepo.NewUserRepo(db)
	certificateRepo := pgRepo.NewCertificateRepo(db)
	auditRepo := pgRepo.NewAuditRepo(db)

	// Аудит: таблица audit_log и (если настроено) RabbitMQ
	publisher, err := event.NewAuditPublisher(cfg.Audit.AMQPURL, cfg.Audit.Exchange, cfg.Audit.RoutingKey, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize audit publisher", "error", err)
	}
	sinks := []repository.AuditSink{auditRepo}
	if publisher.Enabled() {
		sinks = append(sinks, publisher)
	}
	auditService := service.NewAuditService(cfg.Audit.Timeout, appLogger, sinks...)

	// Уведомления о результатах
	var notifier service.ResultNotifier = service.NewNoopResultNotifier(appLogger)
	if cfg.Email.ResendAPIKey != "" {
		resendNotifier, err := service.NewResendResultNotifier(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			appLogger.Fatal("Failed to initialize Resend notifier", "error", err)
		}
		notifier = resendNotifier
		appLogger.Info("Result notifications enabled", "from", cfg.Email.From)
	}

	// Метрики Prometheus
	var examMetrics service.ExamMetrics
	var httpObserver middleware.HTTPObserver
	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(registry)
		examMetrics = m
		httpObserver = m
	}

	// Сервисы
	rnd := examengine.NewRandom()
	evaluationService := service.NewEvaluationService(
		evaluationRepo, versionRepo, questionRepo, cacheRepo,
		examengine.NewVersionGenerator(rnd), auditService, examMetrics,
		cfg.Exam.DefaultPassingScore, appLogger,
	)
	attemptService := service.NewAttemptService(
		evaluationRepo, versionRepo, attemptRepo, answerRepo, questionRepo, enrollmentRepo, cacheRepo,
		auditService, examMetrics, rnd,
		service.AttemptConfig{
			StrictDeadline:   cfg.Exam.StrictDeadline,
			StartLockTTL:     cfg.Exam.StartLockTTL,
			QuestionCacheTTL: cfg.Exam.QuestionCacheTTL,
		},
		appLogger,
	)
	gradingService := service.NewGradingService(
		evaluationRepo, versionRepo, attemptRepo, answerRepo, questionRepo, userRepo,
		notifier, auditService, examMetrics, appLogger,
	)
	reportService := service.NewReportService(evaluationRepo, attemptRepo, userRepo)
	certificateService := service.NewCertificateService(
		evaluationRepo, attemptRepo, enrollmentRepo, certificateRepo, userRepo,
		auditService, rnd, appLogger,
	)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize JWT service", "error", err)
	}

	// Инициализируем роутер Gin
	isProduction := gin.Mode() == gin.ReleaseMode
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(appLogger), middleware.Metrics(httpObserver))

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production не доверяем прокси-заголовкам, в development доверяем localhost
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		appLogger.Warn("Failed to set trusted proxies", "error", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	// Настраиваем маршруты API
	handler.Routes{
		Auth:         middleware.NewAuthMiddleware(jwtService),
		Limiter:      middleware.NewRateLimiter(cacheRepo, appLogger),
		ExamLimit:    middleware.ExamRateLimitConfig(cfg.Exam.RateLimit, cfg.Exam.RateLimitWindow),
		Evaluations:  handler.NewEvaluationHandler(evaluationService, attemptService, reportService, appLogger),
		Attempts:     handler.NewAttemptHandler(attemptService, gradingService, appLogger),
		Certificates: handler.NewCertificateHandler(certificateService, appLogger),
	}.Register(router.Group("/api"))

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	appLogger.Info("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}

	// Дожидаемся фоновых уведомлений и записей аудита до закрытия соединений
	gradingService.Wait()
	auditService.Wait()

	if err := publisher.Close(); err != nil {
		appLogger.Warn("Error closing audit publisher", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("Server exited properly")
}
