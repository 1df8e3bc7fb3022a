package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lexfirma/lexfirma/backend/go-services/handlers"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/artifact"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/config"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/database"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/service"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/oidc"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/payment"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/tokens"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/logger"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/metrics"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: gateway=%v mongo=%v redis=%v minio=%v",
		cfg.Payment.GatewayURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and the order-session store
	// can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Document storage: Mongo when configured, otherwise in-memory (dev/test).
	var repo repository.Repository
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		// Retry/backoff when connecting to MongoDB to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
	}
	var metaStore *artifact.MetadataStore
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(ctx) }()
		db := mongoClient.Database(cfg.MongoDB.Database)
		repo = repository.NewMongoRepo(db.Collection(database.CollectionDocuments))
		metaStore = artifact.NewMetadataStore(db.Collection(database.CollectionArtifacts))
		logger.Infof("Using MongoDB for document storage: %s", cfg.MongoDB.Database)
	} else {
		repo = repository.NewMemoryRepo()
		logger.Warnf("MongoDB unavailable, using in-memory document storage")
	}

	docSvc := service.New(repo)

	// Payment gateway client; nil when unconfigured, which keeps free
	// documents working and fails paid checkout loudly.
	var gateway payment.Gateway
	if cfg.Payment.GatewayURL != "" {
		gw, err := payment.NewHTTPGateway(cfg.Payment.GatewayURL, cfg.Payment.GatewayTimeout)
		if err != nil {
			logger.Fatalf("invalid payment gateway config: %v", err)
		}
		gateway = gw
	} else {
		gateway = payment.UnconfiguredGateway{}
	}

	// Order sessions live in Redis when available so redirect confirmations
	// survive a restart mid-checkout
	var orderSessions payment.SessionStore
	if redisClient != nil {
		orderSessions = payment.NewRedisSessionStore(redisClient, "order:")
	} else {
		orderSessions = payment.NewMemorySessionStore()
	}

	initiator := payment.NewInitiator(gateway, orderSessions, cfg.Payment.SessionTTL)
	reconciler := payment.NewReconciler(repo, gateway, payment.PollConfig{
		Interval:    cfg.Payment.PollInterval,
		MaxAttempts: cfg.Payment.PollMaxAttempts,
		MaxElapsed:  cfg.Payment.PollMaxElapsed,
	})

	// Artifact delivery: MinIO when configured, memory store otherwise
	var objects artifact.ObjectStore
	if cfg.MinIO.Endpoint != "" {
		store, err := artifact.NewMinIOStore(&artifact.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Warnf("failed to initialize MinIO (%s): %v, falling back to memory store", cfg.MinIO.Endpoint, err)
			objects = artifact.NewMemoryStore()
		} else {
			objects = store
			logger.Infof("Connected to MinIO: %s bucket=%s", cfg.MinIO.Endpoint, cfg.MinIO.Bucket)
		}
	} else {
		objects = artifact.NewMemoryStore()
	}
	finalizer := artifact.NewFinalizer(repo, artifact.NewTextRenderer(), objects, metaStore, cfg.Payment.PresignTTL)

	// Reviewer auth: OIDC issuer when configured, locally signed HS256
	// tokens otherwise
	var verifier middleware.Verifier
	if cfg.Auth.OIDCIssuer != "" && cfg.Auth.OIDCClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.Auth.OIDCIssuer, cfg.Auth.OIDCClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.Auth.JWTSecret != "" {
		ver, err := tokens.NewHS256Verifier(cfg.Auth.JWTSecret)
		if err != nil {
			logger.Fatalf("invalid JWT secret: %v", err)
		}
		verifier = ver
		logger.Infof("Using HS256 reviewer tokens")
	}
	// Insecure verifier for integration tests: accepts token claims without
	// signature verification
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure token verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}
	if verifier == nil {
		verifier = rejectAllVerifier{}
		logger.Warnf("no reviewer auth configured; reviewer endpoints will reject all requests")
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness — 200 only when the critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["storage"] = repo != nil
		if cfg.MongoDB.URI != "" && mongoClient == nil {
			deps["storage"] = false
			ready = false
		}
		deps["gateway"] = cfg.Payment.GatewayURL != ""
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": time.Since(startTime).String()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handlers.RegisterFulfillmentRoutes(r, handlers.Fulfillment{
		Service:    docSvc,
		Initiator:  initiator,
		Reconciler: reconciler,
		Finalizer:  finalizer,
	})
	handlers.RegisterReviewRoutes(r, handlers.Review{Service: docSvc}, verifier)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting fulfillment service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

// rejectAllVerifier stands in when no reviewer auth is configured.
type rejectAllVerifier struct{}

func (rejectAllVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	return nil, fmt.Errorf("reviewer authentication is not configured")
}
