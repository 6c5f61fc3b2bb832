package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/metrics"
	"github.com/retryexec/retryexec/internal/runner"
	"github.com/retryexec/retryexec/internal/scheduler"
	"github.com/retryexec/retryexec/internal/server"
	sqstransport "github.com/retryexec/retryexec/internal/sqs"
	"github.com/retryexec/retryexec/internal/state"
	"github.com/retryexec/retryexec/internal/tracing"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := server.LoadConfig()
	if cfg.APIKey == "" && !cfg.AllowInsecureNoAuth {
		logger.Error("refusing to start without API authentication", "hint", "set RETRYEXEC_API_KEY or RETRYEXEC_ALLOW_INSECURE_NO_AUTH=true for local development")
		os.Exit(1)
	}
	if cfg.AllowInsecureNoAuth {
		logger.Warn("running without authentication, intended for local development only")
	}

	tracingShutdown, err := tracing.Setup("retryexec", core.Version)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer tracingShutdown()

	// Configure AWS SDK
	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		logger.Error("failed to configure AWS", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	// Create DynamoDB state store
	store := state.NewDynamoDBStore(dynamoClient, cfg.DynamoDBTable)
	if err := store.EnsureTable(context.Background()); err != nil {
		logger.Error("failed to ensure DynamoDB table", "error", err)
		os.Exit(1)
	}
	logger.Info("DynamoDB state store ready", "table", cfg.DynamoDBTable)

	// Create SQS transport
	transport := sqstransport.New(sqsClient, store, cfg.SQSQueuePrefix, cfg.UseFIFO)
	transport.SetLogger(logger)
	defer transport.Close()

	metrics.Init(core.Version, "sqs+dynamodb")

	logger.Info("SQS transport ready",
		"prefix", cfg.SQSQueuePrefix,
		"fifo", cfg.UseFIFO,
		"region", cfg.AWSRegion,
	)

	// Start the execution runner pool
	runnerCtx, stopRunners := context.WithCancel(context.Background())
	run := runner.New(transport, store, runner.Config{
		Queues:                cfg.Queues,
		WorkerCount:           cfg.WorkerCount,
		VisibilityTimeoutSec:  cfg.VisibilityTimeoutSec,
		WaitTimeSec:           cfg.WaitTimeSec,
		DefaultAttemptTimeout: cfg.DefaultAttemptTimeout,
		TerminalRetention:     cfg.TerminalRetention,
	})
	run.SetLogger(logger)
	run.Start(runnerCtx)
	logger.Info("runner pool started", "workers", cfg.WorkerCount, "queues", cfg.Queues)

	// Start background scheduler
	sched := scheduler.New(transport, logger)
	sched.Start()

	// HTTP server
	router := server.NewRouter(transport, logger, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	sched.Stop()
	stopRunners()
	run.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func buildAWSConfig(cfg server.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}

	// For LocalStack or custom endpoints
	if cfg.AWSEndpointURL != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.AWSEndpointURL,
					HostnameImmutable: true,
					PartitionID:       "aws",
				}, nil
			},
		)
		opts = append(opts,
			config.WithEndpointResolverWithOptions(customResolver),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
		)
	}

	return config.LoadDefaultConfig(context.Background(), opts...)
}
