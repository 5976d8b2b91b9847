package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"teamtasks-backend/config"
	"teamtasks-backend/internal/api"
	"teamtasks-backend/internal/db"
	"teamtasks-backend/internal/identity"
	"teamtasks-backend/internal/notification"
	"teamtasks-backend/internal/producer"
	"teamtasks-backend/internal/realtime"
	"teamtasks-backend/internal/scanner"
	"teamtasks-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "teamtasks ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatalf("failed to access database handle: %v", err)
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	resolver, issuer := newIdentity(cfg, appStore)

	policy, err := realtime.ParsePolicy(cfg.Realtime.Target)
	if err != nil {
		logger.Fatalf("invalid realtime configuration: %v", err)
	}
	registry := realtime.NewRegistry()

	var fanout realtime.Fanout = registry
	if cfg.Realtime.Relay == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Realtime.RedisAddr, DB: cfg.Realtime.RedisDB})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis at %s: %v", cfg.Realtime.RedisAddr, err)
		}
		relay := realtime.NewRedisRelay(client, cfg.Realtime.RedisChannel, registry)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Printf("redis relay stopped: %v", err)
			}
		}()
		fanout = relay
		logger.Printf("realtime relay via redis channel %s", cfg.Realtime.RedisChannel)
	}

	var webpushOptions *webpush.Options
	var offline notification.Offline
	if cfg.Push.Enabled {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pool.Start(ctx)
		offline = pool
	} else {
		logger.Println("web push is disabled; offline users only get stored notifications")
	}

	dispatcher := notification.NewDispatcher(appStore, fanout, policy, offline)

	scannerSvc, err := scanner.NewService(&cfg.Scanner, appStore, dispatcher)
	if err != nil {
		logger.Fatalf("failed to initialize overdue scanner: %v", err)
	}
	go scannerSvc.Run(ctx)

	loc := scannerSvc.Location()
	router := api.NewRouter(api.RouterConfig{
		Store:    appStore,
		Resolver: resolver,
		Issuer:   issuer,
		Producer: producer.New(appStore, dispatcher),
		Realtime: realtime.NewHandler(resolver, policy, registry, realtime.Options{
			SendBuffer:   cfg.Realtime.SendBuffer,
			WriteTimeout: cfg.Realtime.WriteTimeout,
			PongWait:     cfg.Realtime.PongWait,
		}),
		Webpush:   webpushOptions,
		Location:  loc,
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst: cfg.Server.RateLimitBurst,
		CacheTTL:  time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		Ping:      sqlDB.PingContext,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; they end
	// when the process exits.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

func newIdentity(cfg *config.Config, s store.Store) (identity.Resolver, identity.Issuer) {
	if cfg.Auth.Mode == "jwt" {
		j := identity.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, s)
		return identity.NewCachingResolver(j, cfg.Auth.CacheTTL), j
	}
	return identity.NewCachingResolver(identity.NewTokenResolver(s), cfg.Auth.CacheTTL),
		identity.NewTokenIssuer(s, cfg.Auth.TokenTTL)
}
