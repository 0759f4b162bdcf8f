package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"subtext/internal/analyze"
	"subtext/internal/app"
	"subtext/internal/artifact"
	"subtext/internal/cache"
	"subtext/internal/chat"
	"subtext/internal/config"
	"subtext/internal/handle"
	"subtext/internal/search"
	"subtext/internal/session"
	"subtext/internal/store"
	"subtext/internal/upload"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Postgres is the fallback for whichever store is not configured.
	var db *sql.DB
	openDB := func() *sql.DB {
		if db != nil {
			return db
		}
		opened, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := store.ApplySchema(ctx, opened); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		db = opened
		return db
	}

	var reports session.ReportCache
	var reportsPing func(context.Context) error
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for the report cache")
		redisStore, err := cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		reports = redisStore
		reportsPing = redisStore.Ping
	} else {
		log.Printf("Using PostgreSQL for the report cache")
		pgReports := store.NewReportStore(openDB())
		reports = pgReports
		reportsPing = pgReports.Ping
	}

	var artifacts session.ArtifactStore
	var artifactsPing func(context.Context) error
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("Using MinIO for the artifact store")
		minioStore, err := artifact.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		artifacts = minioStore
		artifactsPing = minioStore.Ping
	} else {
		log.Printf("Using PostgreSQL for the artifact store")
		pgArtifacts := store.NewArtifactStore(openDB())
		artifacts = pgArtifacts
		artifactsPing = pgArtifacts.Ping
	}
	if db != nil {
		defer db.Close()
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewMemory())

	controller := session.NewController(reports, artifacts, handle.NewManager(), searchService)
	pipeline := upload.New(analyze.New(cfg.AnalysisURL), cfg.MaxUploadBytes)
	service := app.New(controller, pipeline, chat.New(cfg.ChatURL), searchService)
	service.RegisterBackend("reports", pingerFunc(reportsPing))
	service.RegisterBackend("artifacts", pingerFunc(artifactsPing))

	service.Bootstrap(ctx)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, cfg.MaxUploadBytes)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Analysis runs while the request is open, so the read and
		// write timeouts cover the full upload round trip.
		ReadTimeout:  6 * time.Minute,
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Subtext API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	service.Close()
}

// pingerFunc adapts a plain ping function to the readiness probe.
type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
