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

	"github.com/yourusername/examprep-api/internal/config"
	"github.com/yourusername/examprep-api/internal/handler"
	"github.com/yourusername/examprep-api/internal/middleware"
	pgRepo "github.com/yourusername/examprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/examprep-api/internal/repository/redis"
	"github.com/yourusername/examprep-api/internal/service"
	ws "github.com/yourusername/examprep-api/internal/websocket"
	"github.com/yourusername/examprep-api/pkg/auth"
	"github.com/yourusername/examprep-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	videoRepo := pgRepo.NewVideoRepo(db)
	dailyXPRepo := pgRepo.NewDailyXPRepo(db)
	streakRepo := pgRepo.NewStreakRepo(db)
	referralRepo := pgRepo.NewReferralRepo(db)
	reelRepo := pgRepo.NewReelRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Конфигурация игрового движка
	engineConfig := cfg.Engine.ToEngineConfig()
	log.Printf("Движок: уровней=%d, вопросов на уровень=%d, таймзона=%s",
		engineConfig.MaxLevel, engineConfig.QuestionsPerLevel, engineConfig.Timezone)

	// JWT-сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы.
	// Лидерборд создается до хаба, хаб — до сервиса наград: хаб служит
	// источником снапшотов для подключающихся клиентов, а сервис наград
	// дергает хаб при каждом начислении XP.
	leaderboardService := service.NewLeaderboardService(dailyXPRepo, cacheRepo, engineConfig)

	hub := ws.NewHub(leaderboardService)
	go hub.Run()

	lifelineManager := service.NewLifelineManager(attemptRepo, engineConfig)
	rewardService := service.NewRewardService(userRepo, attemptRepo, videoRepo, dailyXPRepo, cacheRepo, lifelineManager, hub, engineConfig, db)
	streakService := service.NewStreakService(streakRepo, cacheRepo, engineConfig, db)
	referralService := service.NewReferralService(userRepo, referralRepo, rewardService, engineConfig, db)
	attemptService := service.NewAttemptService(userRepo, questionRepo, attemptRepo, rewardService, streakService, lifelineManager, engineConfig, db)
	reelsService := service.NewReelsService(reelRepo, userRepo, db)
	userService := service.NewUserService(userRepo, dailyXPRepo, streakService, referralService, engineConfig, db)

	// Инициализируем обработчики
	userHandler := handler.NewUserHandler(userService, referralService, jwtService)
	attemptHandler := handler.NewAttemptHandler(attemptService, rewardService)
	reelsHandler := handler.NewReelsHandler(reelsService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	wsHandler := handler.NewWSHandler(hub)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		// Production: не доверять прокси-заголовкам
		// Если используете load balancer, замените nil на []string{"IP_БАЛАНСИРОВЩИКА"}
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Регистрация (подтверждение номера выполняет внешний SMS-сервис)
		api.POST("/auth/register", rateLimiter.Limit(middleware.RegisterRateLimitConfig()), userHandler.Register)

		// Все остальные маршруты требуют аутентификации.
		// TrackActivity отмечает день активности для серий.
		authed := api.Group("/")
		authed.Use(authMiddleware.RequireAuth(), middleware.TrackActivity(streakService))
		{
			// Пользователи
			users := authed.Group("/users")
			{
				users.GET("/me", userHandler.GetProfile)
				users.PUT("/me", userHandler.UpdateProfile)
				users.GET("/me/referrals", userHandler.GetReferralStats)
			}

			// Карта уровней и старт попытки
			levels := authed.Group("/levels")
			{
				levels.GET("", attemptHandler.ListLevels)

				levelWithID := levels.Group("/:level")
				levelWithID.Use(middleware.ExtractUintParam("level", "level")) // Применяем middleware
				{
					levelWithID.POST("/start", attemptHandler.StartAttempt)
				}
			}

			// Попытки
			attempts := authed.Group("/attempts")
			{
				attempts.GET("", attemptHandler.ListAttempts)
				attempts.GET("/active", attemptHandler.GetActiveAttempt)

				attemptWithID := attempts.Group("/:id")
				attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
				{
					attemptWithID.GET("", attemptHandler.GetAttempt)
					attemptWithID.GET("/responses", attemptHandler.GetAttemptResponses)
					attemptWithID.POST("/answer", rateLimiter.Limit(middleware.AnswerRateLimitConfig()), attemptHandler.AnswerQuestion)
					attemptWithID.POST("/abandon", attemptHandler.AbandonAttempt)
					attemptWithID.POST("/video-complete", attemptHandler.CompleteVideo)
					attemptWithID.POST("/lifeline-restore", attemptHandler.RestoreLifelines)
				}
			}

			// Каталог промо-видео
			authed.GET("/videos", attemptHandler.ListPromoVideos)

			// Лента рилов
			reels := authed.Group("/reels")
			reels.Use(rateLimiter.Limit(middleware.ReelsRateLimitConfig()))
			{
				reels.GET("", reelsHandler.GetFeed)

				reelWithID := reels.Group("/:id")
				reelWithID.Use(middleware.ExtractUintParam("id", "reelID"))
				{
					reelWithID.GET("", reelsHandler.GetReel)
					reelWithID.POST("/start", reelsHandler.MarkStarted)
					reelWithID.POST("/watch", reelsHandler.MarkWatched)
					reelWithID.POST("/heart", reelsHandler.ToggleHeart)
				}
			}

			// Дневной лидерборд
			authed.GET("/leaderboard/daily", leaderboardHandler.GetDaily)
		}
	}

	// WebSocket маршрут (токен приходит query-параметром)
	router.GET("/ws/leaderboard", authMiddleware.RequireAuth(), wsHandler.HandleLeaderboard)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем хаб, чтобы клиенты получили close-фреймы
	hub.Shutdown()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
