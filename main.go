package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"storefront-service/common/auth"
	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	commonmw "storefront-service/common/middleware"
	"storefront-service/controllers"
	"storefront-service/database"
	aws_pkg "storefront-service/pkg/aws"
	"storefront-service/repository"
	"storefront-service/routes"
	"storefront-service/services"
)

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	log := logger.Initialize(env)
	defer log.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := LoadConfig(ctx, log)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	apperrors.Configure(cfg.Env)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- AWS: events, metrics, log shipping ---

	var (
		snsClient     aws_pkg.SNSPublisher
		metrics       aws_pkg.MetricsRecorder
		metricsClient *aws_pkg.MetricsClient
	)
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Warn("AWS config unavailable, events and metrics disabled", zap.Error(err))
	} else {
		if cfg.OrderEventsTopicArn != "" || cfg.PaymentEventsTopicArn != "" {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNS, cfg.MetricsEnabled)
		if cfg.MetricsEnabled {
			metrics = metricsClient
		}
		if cfg.CloudWatchGroup != "" {
			cwWriter, err := aws_pkg.NewCloudWatchLogsWriter(ctx, awsCfg, cfg.CloudWatchGroup, cfg.ServiceName)
			if err != nil {
				log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
			} else {
				log = logger.InitializeWithWriter(cfg.Env, cwWriter)
			}
		}
	}

	// --- Storage ---

	if err := database.ConnectWithConfig(cfg.MongoURI, cfg.MongoDB, log); err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	indexCtx, cancelIndex := context.WithTimeout(ctx, 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, database.DB); err != nil {
		log.Warn("Failed to ensure indexes", zap.Error(err))
	}
	cancelIndex()

	redisClient := database.NewRedisClient(cfg.RedisURL, log)

	productRepo := repository.NewProductRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)
	cartRepo := repository.NewCartRepository(database.DB)
	paymentRepo := repository.NewPaymentRepository(database.DB)

	// --- Services ---

	var stripeGateway services.StripeGateway
	if cfg.StripeSecretKey != "" {
		stripeGateway = services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}

	cache := services.NewCacheManager(redisClient, cfg.CacheTTL, log)
	productService := services.NewProductService(productRepo, cache, metrics, log)
	cartService := services.NewCartService(cartRepo, productRepo, log)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, snsClient, cfg.OrderEventsTopicArn, metrics, log)
	paymentService := services.NewPaymentService(orderRepo, paymentRepo, services.PaymentConfig{
		Currency: cfg.Currency,
		PayHere: services.PayHereConfig{
			MerchantID:     cfg.PayHereMerchantID,
			MerchantSecret: cfg.PayHereMerchantSecret,
			ReturnURL:      cfg.PayHereReturnURL,
			CancelURL:      cfg.PayHereCancelURL,
			NotifyURL:      cfg.PayHereNotifyURL,
			Sandbox:        cfg.PayHereSandbox,
		},
	}, stripeGateway, snsClient, cfg.PaymentEventsTopicArn, metrics, log)

	// --- HTTP Server & Middleware ---

	r := gin.New()
	r.Use(
		apperrors.Recovery(),
		logger.RequestID(),
		commonmw.RequestLogger(log),
		commonmw.SecurityHeaders(),
		commonmw.CORS(cfg.CORSOrigins),
		commonmw.NewRateLimiter(ctx, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 5*time.Minute).Middleware(),
		commonmw.MetricsMiddleware(metricsClient, cfg.ServiceName),
		commonmw.Timeout(cfg.RequestTimeout),
	)

	routes.RegisterRoutes(r, routes.Controllers{
		Orders:   controllers.NewOrderController(orderService),
		Payments: controllers.NewPaymentController(paymentService, log),
		Products: controllers.NewProductController(productService),
		Cart:     controllers.NewCartController(cartService),
		Admin:    controllers.NewAdminController(orderService, productService),
	}, auth.NewVerifier(cfg.SupabaseJWTSecret, cfg.SupabaseAudience))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// --- Graceful Shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storefront service starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down storefront service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}
	if err := database.Close(log); err != nil {
		log.Error("Failed to close MongoDB", zap.Error(err))
	}

	log.Info("Storefront service stopped gracefully")
}
