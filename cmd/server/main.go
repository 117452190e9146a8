package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campusfind/campusfind/internal/badges"
	"github.com/campusfind/campusfind/internal/events"
	"github.com/campusfind/campusfind/internal/handlers"
	"github.com/campusfind/campusfind/internal/models"
	"github.com/campusfind/campusfind/internal/storage"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	config := loadConfig()

	log.Info().
		Str("host", config.Host).
		Str("port", config.Port).
		Str("storage", config.StorageDriver).
		Msg("Starting campus lost & found API")

	itemStore, err := newItemStore(config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize item store")
	}
	log.Info().Msg("Item store initialized")

	evaluator, err := badges.NewFileEvaluator(filepath.Join(config.DataDir, "badges.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize badge evaluator")
	}
	log.Info().Msg("Badge evaluator initialized")

	var imageStore *storage.ImageStore
	if config.MinIOEndpoint != "" {
		imageStore, err = storage.NewImageStore(
			config.MinIOEndpoint,
			config.MinIOPublicEndpoint,
			config.MinIOAccessKey,
			config.MinIOSecretKey,
			config.MinIOBucket,
			config.MinIOUseSSL,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize image store")
		}
	} else {
		log.Info().Msg("MinIO not configured, images stay embedded in item records")
	}

	var publisher *events.Publisher
	if config.RabbitMQURL != "" {
		publisher, err = events.NewPublisher(config.RabbitMQURL, config.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event publisher")
		}
		defer publisher.Close()
	} else {
		log.Info().Msg("RabbitMQ not configured, lifecycle events disabled")
	}

	if err := seedItems(itemStore); err != nil {
		log.Error().Err(err).Msg("Failed to seed sample items")
	}

	handler := handlers.NewHandler(itemStore, evaluator, imageStore, publisher)
	router := setupRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", srv.Addr).Msg("Server starting...")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

type Config struct {
	Host                string
	Port                string
	DataDir             string
	StorageDriver       string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
	MinIOEndpoint       string
	MinIOPublicEndpoint string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOBucket         string
	MinIOUseSSL         bool
	RabbitMQURL         string
	RabbitMQExchange    string
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	return &Config{
		Host:                getEnv("API_HOST", "0.0.0.0"),
		Port:                getEnv("API_PORT", "5000"),
		DataDir:             getEnv("DATA_DIR", "data"),
		StorageDriver:       getEnv("STORAGE_DRIVER", "json"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "postgres"),
		DBName:              getEnv("DB_NAME", "campusfind"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", ""),
		MinIOPublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", ""),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:         getEnv("MINIO_BUCKET_NAME", "lost-item-images"),
		MinIOUseSSL:         getEnv("MINIO_USE_SSL", "false") == "true",
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:    getEnv("RABBITMQ_EXCHANGE", "lostfound.events"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newItemStore selects the item store implementation from config.
func newItemStore(config *Config) (storage.ItemStore, error) {
	switch config.StorageDriver {
	case "postgres":
		return storage.NewPostgresStore(
			config.DBHost,
			config.DBPort,
			config.DBUser,
			config.DBPassword,
			config.DBName,
			config.DBSSLMode,
		)
	case "json":
		return storage.NewJSONStore(filepath.Join(config.DataDir, "items.json"))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.StorageDriver)
	}
}

// seedItems installs two sample items when the catalog starts empty, so the
// browse page is not blank on first run.
func seedItems(store storage.ItemStore) error {
	items, err := store.List()
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	samples := []*models.Item{
		{
			Title:       "Blue Backpack",
			Description: "A blue JanSport backpack with laptop compartment. Contains some textbooks.",
			Category:    "Bags",
			Location:    "Library - 2nd Floor",
			Date:        time.Now().AddDate(0, 0, -2).Format("2006-01-02"),
			Type:        models.TypeFound,
			Status:      models.StatusActive,
			ContactName: "Sarah Johnson",
			ContactInfo: "sarah.j@campus.edu",
		},
		{
			Title:       "iPhone 14 Pro",
			Description: "Black iPhone with a cracked screen protector. Has a purple case.",
			Category:    "Electronics",
			Location:    "Student Center",
			Date:        time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
			Type:        models.TypeLost,
			Status:      models.StatusActive,
			ContactName: "Mike Chen",
			ContactInfo: "mike.chen@campus.edu",
		},
	}

	for _, item := range samples {
		if err := store.Create(item); err != nil {
			return err
		}
	}

	log.Info().Int("count", len(samples)).Msg("Sample items seeded")
	return nil
}

// setupRouter configures all routes and middleware. CORS wraps the router
// itself so preflight requests are answered without a matching route.
func setupRouter(h *handlers.Handler) http.Handler {
	r := mux.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", h.ListItems).Methods("GET")
	api.HandleFunc("/items", h.CreateItem).Methods("POST")
	api.HandleFunc("/items/{id}", h.GetItem).Methods("GET")
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods("PUT")
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods("DELETE")
	api.HandleFunc("/items/{id}/similar", h.SimilarItems).Methods("GET")
	api.HandleFunc("/items/{id}/qr", h.ItemQR).Methods("GET")
	api.HandleFunc("/search", h.SearchItems).Methods("GET")
	api.HandleFunc("/search/suggestions", h.Suggestions).Methods("GET")
	api.HandleFunc("/dashboard", h.Dashboard).Methods("GET")
	api.HandleFunc("/badges/{email}", h.UserBadges).Methods("GET")
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")

	log.Info().Msg("Routes configured successfully")
	return corsMiddleware(r)
}

// loggingMiddleware logs all HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration_ms", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows the browser UI, served from another origin, to call
// the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
