package main

import (
	"context"
	"errors"
	"fmt"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/cache"
	"go-blog-app/internal/config"
	"go-blog-app/internal/data"
	"go-blog-app/internal/handler"
	"go-blog-app/internal/janitor"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/service"
	"go-blog-app/internal/session"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, nil)

	// --- Pre-flight Checks ---
	if cfg.Admin.Password == "" {
		log.Fatal(errors.New("admin password not set"), "Please set the BLOG_ADMIN_PASSWORD environment variable.")
	}

	// --- Storage Initialization ---
	log.Info(fmt.Sprintf("Opening data directory %s...", cfg.Storage.DataDir))
	metadataStore, err := data.NewMetadataStore(cfg.Storage.MetadataPath(), log)
	if err != nil {
		log.Fatal(err, "Failed to initialize metadata store")
	}
	contentStore, err := data.NewContentStore(cfg.Storage.PagesDir())
	if err != nil {
		log.Fatal(err, "Failed to initialize content store")
	}
	mediaStore, err := data.NewMediaStore(cfg.Storage.FilesDir(), log)
	if err != nil {
		log.Fatal(err, "Failed to initialize media store")
	}
	log.Info("Data directory ready.")

	// --- Cache Initialization ---
	log.Info("Initializing SQLite state database...")
	stateDB, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer stateDB.Close()
	log.Info("State database initialized.")

	// --- Session Management Setup ---
	sessionManager := session.New(stateDB.DB(), cfg.Session)

	// --- Authentication and Authorization Setup ---
	log.Info("Initializing authorization...")
	admin := auth.NewAdmin(cfg.Admin.Password)
	enforcer, err := auth.NewEnforcer()
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	if err := auth.SeedDefaultPolicies(enforcer, log); err != nil {
		log.Fatal(err, "Failed to seed authorization policies")
	}

	// --- Media Pipeline ---
	scratch, err := media.NewScratch(cfg.Media.ScratchDir)
	if err != nil {
		log.Fatal(err, "Failed to initialize scratch directory")
	}
	transcoder := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.TranscodeTimeout)
	pipeline := media.NewPipeline(transcoder, scratch, log, media.WithCache(stateDB, cfg.Media.CacheTTL))

	// --- Janitor ---
	sweeper, err := janitor.New(cfg.Janitor, stateDB, scratch.Dir(), log, janitor.WithActiveJobs(scratch))
	if err != nil {
		log.Fatal(err, "Failed to initialize janitor")
	}
	sweeper.Start()

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	stores := service.Stores{
		Metadata: metadataStore,
		Content:  contentStore,
		Media:    mediaStore,
		Locks:    data.NewKeyedMutex(),
	}
	articleService := service.NewArticleService(stores, cfg.List, log)
	fileService := service.NewFileService(stores, pipeline, admin, log)

	articleHandler := handler.NewArticleHandler(articleService, log)
	fileHandler := handler.NewFileHandler(fileService, log)
	authHandler := handler.NewAuthHandler(admin, sessionManager, log)
	seoHandler := handler.NewSeoHandler(articleService, cfg.Server.BaseURL)

	authzMiddleware := middleware.Authorizer(enforcer, admin, sessionManager, log)
	errorMiddleware := middleware.Error(log)
	rateLimiter := middleware.RateLimit(cfg.Server.RateLimit)

	// --- Router Setup ---
	router := handler.NewRouter(articleHandler, fileHandler, authHandler, seoHandler,
		authzMiddleware, errorMiddleware, rateLimiter, sessionManager, cfg.Media.MaxUploadMB<<20)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sweeper.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}
