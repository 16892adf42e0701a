package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/api"
	job "github.com/maheshrc27/crosspost-api/internal/jobs"
	"github.com/maheshrc27/crosspost-api/internal/logging"
	"github.com/maheshrc27/crosspost-api/internal/queue"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.New(cfg.LogLevel)

	ctx := context.Background()

	var (
		mongoClient *mongo.Client
		userRepo    repository.UserRepository
		tenantRepo  repository.TenantRepository
		postRepo    repository.SocialPostRepository
	)
	if cfg.MongoURI != "" {
		mongoClient, err = repository.Connect(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		db := mongoClient.Database(cfg.DatabaseName)
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			log.Fatalf("Failed to create indexes: %v", err)
		}
		userRepo = repository.NewUserRepository(db)
		tenantRepo = repository.NewTenantRepository(db)
		postRepo = repository.NewSocialPostRepository(db)
	} else {
		slog.Warn("MONGO_URI not set, using in-memory store")
		userRepo = repository.NewMemoryUserRepository()
		tenantRepo = repository.NewMemoryTenantRepository()
		postRepo = repository.NewMemorySocialPostRepository()
	}

	smtpMailer := service.NewSMTPMailService(cfg.Email)
	mailer := smtpMailer

	var (
		cache       *redis.Client
		asynqClient *asynq.Client
		asynqServer *asynq.Server
	)
	if cfg.RedisURI != "" {
		redisOpts, asynqOpts, err := redisOptions(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}

		cache = redis.NewClient(redisOpts)
		if err := cache.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis is unreachable: %v", err)
		}

		asynqClient = asynq.NewClient(asynqOpts)
		mailer = queue.NewMailQueue(asynqClient)

		queueW := queue.NewQueue(smtpMailer)
		asynqServer = asynq.NewServer(asynqOpts, asynq.Config{
			Concurrency: 10,
		})
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		go func() {
			log.Println("Starting the Asynq server...")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		slog.Warn("REDIS_URI not set, mail is sent inline and rate limiting is disabled")
	}

	mediaHost, err := newMediaHost(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to configure media host: %v", err)
	}

	authService := service.NewAuthService(*cfg, userRepo, mailer)
	userService := service.NewUserService(userRepo)
	credentialsService := service.NewCredentialsService(tenantRepo, utils.NewTokenCipher(cfg.TokenEncryptionKey))
	instagramService := service.NewInstagramService(cfg.GraphAPIURL, cfg.IGPollAttempts, cfg.IGPollInterval)
	facebookService := service.NewFacebookService(cfg.GraphAPIURL)
	postService := service.NewPostService(credentialsService, postRepo, mediaHost, instagramService, facebookService)

	app := api.NewApp(api.Deps{
		Cfg:         *cfg,
		Cache:       cache,
		Auth:        authService,
		Users:       userService,
		Credentials: credentialsService,
		Posts:       postService,
		AccessLog:   true,
	})

	// cron jobs
	tokenExpiryJob := job.NewTokenExpiryJob(*cfg, tenantRepo, userRepo, mailer)

	c := cron.New()
	if err := c.AddFunc(cfg.TokenExpirySchedule, tokenExpiryJob.Run); err != nil {
		log.Fatalf("Invalid TOKEN_EXPIRY_SCHEDULE: %v", err)
	}
	c.Start()

	go func() {
		if err := app.Listen(cfg.Address()); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server started", "addr", cfg.Address(), "media_host", cfg.MediaHost)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	c.Stop()
	if asynqServer != nil {
		asynqServer.Shutdown()
	}
	if asynqClient != nil {
		closeQuietly("asynq client", asynqClient.Close)
	}
	if cache != nil {
		closeQuietly("redis", cache.Close)
	}
	if mongoClient != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		closeQuietly("database", func() error { return mongoClient.Disconnect(shutdownCtx) })
	}
	log.Println("Server shutdown complete.")
}

func newMediaHost(ctx context.Context, cfg config.Config) (service.MediaHost, error) {
	switch cfg.MediaHost {
	case config.MediaHostR2:
		return service.NewR2Service(ctx, cfg.R2)
	default:
		return service.NewCloudinaryService(cfg.Cloudinary)
	}
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(uri string) (*redis.Options, asynq.RedisConnOpt, error) {
	if !strings.Contains(uri, "://") {
		return &redis.Options{Addr: uri}, asynq.RedisClientOpt{Addr: uri}, nil
	}

	redisOpts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, nil, err
	}
	asynqOpts, err := asynq.ParseRedisURI(uri)
	if err != nil {
		return nil, nil, err
	}
	return redisOpts, asynqOpts, nil
}

func closeQuietly(name string, closeFn func() error) {
	fmt.Fprintf(os.Stdout, "Closing %s... ", name)
	if err := closeFn(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close %s: %v\n", name, err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}
