/**
 * @description
 * This is the main entry point for the pledge-gateway. It is responsible
 * for initializing all components of the service: configuration, the
 * database connection pool, the core fundraiser API and payment provider
 * clients, the message broker, the Redis cache and rate limiter, the
 * repository, the application service, the background job scheduler, and
 * the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/fundraiserclient, pkg/paygateclient, pkg/rabbitmq: External service clients.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/crowdfundn/pledge-gateway/internal/api"
	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/internal/config"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
	"github.com/crowdfundn/pledge-gateway/pkg/rabbitmq"
)

// webhookLedgerRetention is how long processed provider event ids are
// kept before the purge job trims them.
const webhookLedgerRetention = 30 * 24 * time.Hour

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting pledge-gateway\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer used by the webhook intake. A
	// broker outage degrades to the fallback producer; the sweep job
	// still times sessions out eventually.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.FallbackProducer{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the external service clients.
	fundraiserClient := fundraiserclient.NewClient(
		cfg.FundraiserAPIBaseURL,
		cfg.FundraiserAPIKey,
		time.Duration(cfg.FundraiserAPITimeoutMS)*time.Millisecond,
	)
	paygateClient := paygateclient.NewClient(cfg.PaygateBaseURL, cfg.PaygateAPIKey)

	// Redis backs the donation page cache and the rate limiter; both
	// degrade gracefully when it is absent.
	var redisClient *redis.Client
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; caching and rate limiting disabled\" env=REDIS_URL")
	} else {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; caching and rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; caching and rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
				redisClient = nil
			} else {
				defer redisClient.Close()
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	checkoutTimeout := time.Duration(cfg.CheckoutTimeoutMinutes) * time.Minute
	gatewayService := app.NewService(
		repository,
		fundraiserClient,
		paygateClient,
		checkoutTimeout,
		cfg.DonationsPerPage,
		cfg.DonationsPerPageMax,
	)
	if redisClient != nil {
		gatewayService.SetDonationCache(app.NewRedisDonationCache(
			redisClient,
			cfg.RedisKeyPrefix,
			time.Duration(cfg.DonationCacheTTLSecs)*time.Second,
		))
		gatewayService.SetRateLimiter(
			app.NewRedisRateLimiter(redisClient, cfg.RedisKeyPrefix),
			cfg.CheckoutRatePerMinute,
			cfg.WebhookRatePerMinute,
		)
	}

	// Start the background job scheduler.
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	jobs := app.NewJobs(
		repository,
		paygateClient,
		logger,
		checkoutTimeout,
		time.Duration(cfg.DraftTTLHours)*time.Hour,
		webhookLedgerRetention,
	)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()
	defer scheduler.Stop()

	// Wire up the payment event consumer.
	paymentConsumer := app.NewPaymentStatusConsumer(gatewayService)
	rabbitConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer unavailable; relying on polling and sweeps\" err=%v", err)
	} else {
		defer rabbitConsumer.Close()
		if err := paymentConsumer.Start(rabbitConsumer, cfg.PaymentEventQueue); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"payment consumer start failed\" err=%v", err)
		}
	}

	// Initialize the API handlers and router.
	gatewayHandlers := api.NewGatewayHandlers(gatewayService)
	webhookHandler := api.NewWebhookHandler(producer, repository, gatewayService, cfg.PaygateWebhookSecret)
	router := api.GatewayRoutes(gatewayHandlers, webhookHandler, cfg.MemberJWKSURL)

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
