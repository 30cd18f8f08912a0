package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/shiftmate/mediaflow-service/docs"
	"github.com/shiftmate/mediaflow-service/internal/config"
	"github.com/shiftmate/mediaflow-service/internal/events"
	"github.com/shiftmate/mediaflow-service/internal/flow"
	"github.com/shiftmate/mediaflow-service/internal/flowstore"
	authHandlers "github.com/shiftmate/mediaflow-service/internal/http/handlers/auth"
	flowHandlers "github.com/shiftmate/mediaflow-service/internal/http/handlers/flows"
	prefHandlers "github.com/shiftmate/mediaflow-service/internal/http/handlers/prefs"
	wsHandlers "github.com/shiftmate/mediaflow-service/internal/http/handlers/websocket"
	"github.com/shiftmate/mediaflow-service/internal/http/middleware"
	"github.com/shiftmate/mediaflow-service/internal/storage"
	"github.com/shiftmate/mediaflow-service/internal/storage/objectstore"
	"github.com/shiftmate/mediaflow-service/internal/storage/postgres"
	"github.com/shiftmate/mediaflow-service/internal/storage/telegram"
	"github.com/shiftmate/mediaflow-service/internal/websocket"
)

// @title MediaFlow Service API
// @version 1.0
// @description Media collection flow coordination and storage routing for bot integrations
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	store, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	// storage backends
	objectBackend, err := objectstore.NewBackend(cfg)
	if err != nil {
		log.Fatal("Failed to initialize object store backend:", err)
	}
	platformBackend := telegram.NewBackend(cfg)
	router := storage.NewRouter(platformBackend, objectBackend, store)

	// websocket hub for owner dashboards
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	// flow coordination
	flowStore := flowstore.NewStore(redisClient, time.Duration(cfg.Flow.TTL)*time.Second)
	coordinator := flow.NewCoordinator(flowStore, router, publisher)

	// middleware
	authMw := middleware.AuthMiddleware(cfg.JWTSecret)
	rateLimits := middleware.NewRateLimitConfig(redisClient)

	// setup server
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /auth/register", authHandlers.Register(store))
	mux.HandleFunc("POST /auth/token", authHandlers.Token(store, cfg.JWTSecret))

	mux.Handle("POST /flows", authMw(flowHandlers.Begin(coordinator)))
	mux.Handle("GET /flows", authMw(flowHandlers.Get(coordinator)))
	mux.Handle("DELETE /flows", authMw(flowHandlers.Cancel(coordinator)))
	mux.Handle("POST /flows/photos", authMw(rateLimits.RateLimitedHandler("photos", flowHandlers.AddPhoto(coordinator))))
	mux.Handle("POST /flows/text", authMw(flowHandlers.AddText(coordinator)))
	mux.Handle("POST /flows/finish", authMw(rateLimits.RateLimitedHandler("finish", flowHandlers.Finish(coordinator, store))))

	mux.Handle("GET /prefs/{context_type}", authMw(prefHandlers.Get(store)))
	mux.Handle("PUT /prefs/{context_type}", authMw(prefHandlers.Set(store)))

	mux.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, cfg.JWTSecret))

	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: mux,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
