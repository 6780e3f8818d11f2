package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/coreybb/bookforge/api"
	"github.com/coreybb/bookforge/auth"
	"github.com/coreybb/bookforge/datastore"
	"github.com/coreybb/bookforge/ebook"
	"github.com/coreybb/bookforge/processing"
	rh "github.com/coreybb/bookforge/route-handlers"
	"github.com/coreybb/bookforge/storage"
	"github.com/coreybb/bookforge/webutil"
)

const (
	defaultPort            = "8080"
	defaultDatabaseURL     = "user=postgres password=password dbname=bookforge host=localhost port=5432 sslmode=disable"
	defaultSQLitePath      = "data/bookforge.db"
	defaultAppRoot         = "."
	defaultUploadsDir      = "uploads"
	defaultExportRateLimit = 20
	shutdownTimeout        = 15 * time.Second
)

type config struct {
	port            string
	dbDriver        string
	databaseURL     string
	appRoot         string
	uploadsDir      string
	jwtSecret       string
	appEnv          string
	exportRateLimit int
}

func main() {
	if err := newRootCommand(loadConfig()).Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config {
	cfg := &config{
		port:            envOr("PORT", defaultPort),
		dbDriver:        envOr("DB_DRIVER", datastore.DriverPostgres),
		databaseURL:     os.Getenv("DB_CONNECTION_STRING"),
		appRoot:         envOr("APP_ROOT", defaultAppRoot),
		uploadsDir:      envOr("UPLOADS_DIR", defaultUploadsDir),
		jwtSecret:       os.Getenv("JWT_SECRET"),
		appEnv:          os.Getenv("APP_ENV"),
		exportRateLimit: defaultExportRateLimit,
	}

	if v := os.Getenv("EXPORT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("WARNING: Ignoring invalid EXPORT_RATE_LIMIT %q, using %d", v, defaultExportRateLimit)
		} else {
			cfg.exportRateLimit = n
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// connectionString applies the per-driver default when none was configured.
func (c *config) connectionString() string {
	if c.databaseURL != "" {
		return c.databaseURL
	}
	if c.dbDriver == datastore.DriverSQLite {
		return defaultSQLitePath
	}
	log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	return defaultDatabaseURL
}

func (c *config) openDatabase() (*sql.DB, error) {
	return datastore.Open(c.dbDriver, c.connectionString())
}

// newExportProcessor wires the export pipeline onto a database.
func (c *config) newExportProcessor(db *sql.DB) *processing.ExportProcessor {
	fetcher := processing.NewContentFetcher(datastore.NewBookRepository(db))
	normalizer := ebook.NewNormalizer(storage.NewAssetResolver(c.appRoot, c.uploadsDir))
	return processing.NewExportProcessor(fetcher, normalizer, ebook.DefaultTheme())
}

func runServer(cfg *config) error {
	if cfg.jwtSecret == "" {
		return errors.New("JWT_SECRET must be set to serve requests")
	}
	webutil.SetDevelopmentMode(cfg.appEnv == "development")

	db, err := cfg.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	authenticator := auth.NewAuthenticator(cfg.jwtSecret, datastore.NewUserRepository(db))
	exportHandler := rh.NewExportHandler(cfg.newExportProcessor(db))

	router := api.SetupRoutes(exportHandler, rh.NewUserHandler(), authenticator, api.RouterConfig{
		ExportRateLimit: cfg.exportRateLimit,
	})

	startServer(cfg.port, router)
	return nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
