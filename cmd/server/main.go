package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/config"
	"github.com/keyhaven/backend/internal/middleware"
	"github.com/keyhaven/backend/internal/models"
	"github.com/keyhaven/backend/internal/notify"
	"github.com/keyhaven/backend/internal/property"
	"github.com/keyhaven/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	// Short server-selection timeout so the service fails fast instead of
	// hanging when the database is unreachable.
	mongoClient, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	db := mongoClient.Database(cfg.MongoDB)
	users := store.NewUserStore(db)
	properties := store.NewPropertyStore(db)
	for _, ensure := range []func(context.Context) error{users.EnsureIndexes, properties.EnsureIndexes} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("mongo indexes: %v", err)
		}
	}
	txRunner := store.NewTxRunner(mongoClient)

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()

	// ── MinIO ────────────────────────────────────────────────
	assets, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Notifications ────────────────────────────────────────
	mailer := notify.NewMailer("", cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailName, cfg.ClientURL)
	var events *notify.Publisher
	if cfg.AmqpURL != "" {
		events, err = notify.NewPublisher(cfg.AmqpURL)
		if err != nil {
			log.Printf("amqp connect: %v; domain events disabled", err)
		}
	}

	// ── Services & handlers ──────────────────────────────────
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authHandler := auth.NewHandler(auth.NewService(users), tokens, mailer, events, !cfg.IsDevelopment())
	propertyHandler := property.NewHandler(property.NewService(properties, users, assets, txRunner, events))

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	requireAuth := middleware.RequireAuth(tokens)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(rdb, 20, time.Minute))
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
		r.With(requireAuth).Get("/me", authHandler.Me)
	})

	r.Route("/api/v1/properties", func(r chi.Router) {
		r.Get("/", propertyHandler.List)
		r.With(requireAuth, middleware.RequireRole(models.RoleAgent, models.RoleAdmin)).
			Get("/mine", propertyHandler.Mine)
		r.Get("/{id}", propertyHandler.Get)
		r.With(requireAuth, middleware.RequireRole(models.RoleAgent)).
			Post("/", propertyHandler.Create)
		r.With(requireAuth, middleware.RequireRole(models.RoleAgent, models.RoleAdmin)).
			Put("/{id}", propertyHandler.Update)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute,
	}

	go func() {
		log.Printf("Backend listening on :%s (%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
