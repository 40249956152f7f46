package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mirari/uploader/internal/cache"
	"github.com/mirari/uploader/internal/client"
	"github.com/mirari/uploader/internal/config"
	"github.com/mirari/uploader/internal/database"
	"github.com/mirari/uploader/internal/handler"
	"github.com/mirari/uploader/internal/images"
	"github.com/mirari/uploader/internal/queue"
	iredis "github.com/mirari/uploader/internal/redis"
	"github.com/mirari/uploader/internal/repository"
	"github.com/mirari/uploader/internal/service"
	"github.com/mirari/uploader/internal/storage"
	"github.com/mirari/uploader/internal/worker"
)

func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := database.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := iredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	// Verify Redis connection (fail fast if unreachable)
	ctx := context.Background()
	if err := redisClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Printf("Connected to Redis at %s", cfg.RedisURL)

	// Create repositories
	postRepo := repository.NewPostRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Create Redis-backed components
	countCache := cache.NewCountCache(redisClient.Client, postRepo)
	postCache := cache.NewPostCache(redisClient.Client)
	userCache := cache.NewUserCache(redisClient.Client)
	scoreCache := cache.NewScoreCache(redisClient.Client)
	publisher := queue.NewPublisher(redisClient.Client)
	consumer := queue.NewConsumer(redisClient.Client)

	// Object store and external service clients
	store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}
	tagClient := client.NewTagClient(cfg.TagServiceURL)
	userClient := client.NewUserClient(cfg.UserServiceURL)
	cdnClient := client.NewCDNClient(cfg.CDNURL)

	pipeline := images.NewPipeline(cfg.ScratchDir)

	// Create services
	uploadService := service.NewUploadService(
		postRepo, userRepo, pipeline, store,
		postCache, userCache, publisher,
		tagClient, userClient, cdnClient,
	)
	scoreService := service.NewScoreService(scoreRepo, scoreCache)

	// Start the counter worker pool
	workerHandler := worker.NewHandler(countCache)
	workerManager := worker.NewManager(consumer, workerHandler, worker.DefaultManagerConfig())
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker manager: %w", err)
	}
	log.Println("Worker manager started")

	// Create handlers
	postHandler := handler.NewPostHandler(uploadService)
	mediaHandler := handler.NewMediaHandler(uploadService)
	profileHandler := handler.NewProfileHandler(uploadService)
	voteHandler := handler.NewVoteHandler(scoreService)

	router := NewRouter(RouterConfig{
		PostHandler:    postHandler,
		MediaHandler:   mediaHandler,
		ProfileHandler: profileHandler,
		VoteHandler:    voteHandler,
		JWTSecret:      cfg.JWTSecret,
	})

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Printf("Routes:")
	log.Printf("  POST /v1/create_post    - Create post / unpublished slot")
	log.Printf("  POST /v1/upload_image   - Upload image and renditions")
	log.Printf("  POST /v1/update_post    - Update post metadata")
	log.Printf("  POST /v1/update_privacy - Change post privacy")
	log.Printf("  POST /v1/vote           - Vote on a post")
	log.Printf("  POST /v1/set_icon       - Set user icon from a post")
	log.Printf("  POST /v1/set_banner     - Set user banner from a post")

	server := &stdhttp.Server{
		Addr:    addr,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-shutdown:
		log.Println("Shutting down gracefully...")

		// Stop the counter workers first. Stopping cancels their context, so
		// deltas not yet acknowledged stay pending in the stream and are
		// re-read when the workers next start.
		workerManager.Stop()

		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Println("Server stopped")
		return nil
	}
}
