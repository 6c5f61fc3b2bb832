package sqs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/internal/state"
)

// Transport implements core.Backend using AWS SQS for queueing and a
// state.Store (DynamoDB) for execution state.
type Transport struct {
	sqsClient   *sqs.Client
	store       state.Store
	queueURLs   map[string]string // cache: queue name -> SQS queue URL
	queueURLsMu sync.RWMutex
	queuePrefix string
	useFIFO     bool
	startTime   time.Time
	logger      *slog.Logger
}

// New creates a new Transport.
func New(sqsClient *sqs.Client, store state.Store, queuePrefix string, useFIFO bool) *Transport {
	return &Transport{
		sqsClient:   sqsClient,
		store:       store,
		queueURLs:   make(map[string]string),
		queuePrefix: queuePrefix,
		useFIFO:     useFIFO,
		startTime:   time.Now(),
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger for the transport.
func (t *Transport) SetLogger(logger *slog.Logger) {
	t.logger = logger
}

// Store exposes the underlying state store for the runner and scheduler.
func (t *Transport) Store() state.Store {
	return t.store
}

// Close closes the transport.
func (t *Transport) Close() error {
	return t.store.Close()
}

// Health returns the health status of SQS and the state store.
func (t *Transport) Health(ctx context.Context) (*core.HealthResponse, error) {
	start := time.Now()

	_, sqsErr := t.sqsClient.ListQueues(ctx, &sqs.ListQueuesInput{
		MaxResults: aws.Int32(1),
	})

	storeErr := t.store.Ping(ctx)

	latency := time.Since(start).Milliseconds()

	resp := &core.HealthResponse{
		Version:       core.Version,
		UptimeSeconds: int64(time.Since(t.startTime).Seconds()),
	}

	if sqsErr != nil || storeErr != nil {
		resp.Status = "degraded"
		errMsg := ""
		if sqsErr != nil {
			errMsg += "SQS: " + sqsErr.Error()
		}
		if storeErr != nil {
			if errMsg != "" {
				errMsg += "; "
			}
			errMsg += "Store: " + storeErr.Error()
		}
		resp.Backend = core.BackendHealth{
			Type:   "sqs+dynamodb",
			Status: "disconnected",
			Error:  errMsg,
		}
		return resp, fmt.Errorf("health check failed: %s", errMsg)
	}

	resp.Status = "ok"
	resp.Backend = core.BackendHealth{
		Type:      "sqs+dynamodb",
		Status:    "connected",
		LatencyMs: latency,
	}
	return resp, nil
}
