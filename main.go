package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-market/backend/chat"
	"campus-market/backend/config"
	"campus-market/backend/database"
	"campus-market/backend/handlers"
	"campus-market/backend/middleware"
	"campus-market/backend/relay"
	"campus-market/backend/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors" // 引入 CORS 庫
	"github.com/sirupsen/logrus"
)

func initLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("invalid LOG_LEVEL, falling back to info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func main() {
	// 設定載入前先用預設 logger，之後依設定重建
	bootLogger := logrus.New()
	cfg, err := config.LoadConfig(bootLogger)
	if err != nil {
		bootLogger.WithError(err).Fatal("Failed to load config")
	}
	logger := initLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	// 持久層：mongo 或 memory（僅供開發與測試）
	var store database.Store
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		store = database.NewMemoryStore()
	default:
		client, err := database.ConnectMongoDB(ctx, cfg.MongoDBURI, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		defer database.DisconnectMongoDB(client, logger)

		db := client.Database(cfg.DBName)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			logger.WithError(err).Fatal("Failed to create MongoDB indexes")
		}
		store = database.NewMongoStore(db)
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	registry := websocket.NewRegistry(logger)

	// 有設定 REDIS_ADDR 時透過 Redis 轉送推送，否則直接交給本地 registry
	var deliverer chat.Deliverer = registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := relay.Ping(ctx, rdb); err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		r := relay.New(rdb, cfg.RedisChannel, registry, logger)
		if err := r.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to subscribe delivery relay")
		}
		deliverer = r
		checks["redis"] = func(ctx context.Context) error { return relay.Ping(ctx, rdb) }
	}

	validate := validator.New()
	tracker := chat.NewTracker(store, deliverer, cfg.ReadScope, logger)
	directory := chat.NewDirectory(store, tracker, logger, cfg.EnforceSellerMatch)
	msgRouter := chat.NewRouter(store, directory, tracker, deliverer, registry, validate, logger, chat.RouterOptions{
		MaxMessageLength: cfg.MaxMessageLength,
		Sanitize:         cfg.SanitizeMessages,
	})
	gateway := websocket.NewGateway(registry, store, directory, msgRouter, tracker, validate, logger, websocket.GatewayOptions{
		JWTSecret:         cfg.JWTSecret,
		AllowedOrigins:    cfg.CORSOrigins,
		SendRatePerMinute: cfg.SendRatePerMinute,
		SendBurst:         cfg.SendBurst,
	})

	auth := middleware.JWTMiddleware(cfg.JWTSecret, logger)
	router := mux.NewRouter()

	// 健康檢查路由
	router.HandleFunc("/health", handlers.Health(checks, logger)).Methods(http.MethodGet)
	// WebSocket 路由，驗證在連線後的 authenticate 事件
	router.Handle("/ws", gateway)

	handlers.NewAuthHandler(store, cfg.JWTSecret, cfg.JWTTTL, validate, logger).
		Routes(router.PathPrefix("/api/auth").Subrouter(), auth)

	chatAPI := router.PathPrefix("/api/chat").Subrouter()
	chatAPI.Use(auth)
	handlers.NewChatHandler(directory, tracker, validate, logger).Routes(chatAPI)

	handlers.NewItemHandler(store, validate, logger).
		Routes(router.PathPrefix("/api/items").Subrouter(), auth)

	// 設置 CORS 中介軟體，來源由 CORS_ORIGINS 設定
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      c.Handler(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", serverAddr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Could not listen")
		}
	}()

	// 當按下 Ctrl+C，程式會收到 SIGINT
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutting down server")

	// 最多等30秒關閉；已升級的 WebSocket 連線不在 Shutdown 等待範圍內
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	stop()

	logger.Info("Server exited gracefully.")
}
