package sqs

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQS queue naming convention:
//   retryexec-{queue_name}       -- standard queue
//   retryexec-{queue_name}.fifo  -- FIFO queue variant

// sqsQueueName returns the SQS queue name for a logical queue.
func (t *Transport) sqsQueueName(queue string) string {
	name := t.queuePrefix + "-" + sanitizeQueueName(queue)
	if t.useFIFO {
		name += ".fifo"
	}
	return name
}

// sanitizeQueueName converts a logical queue name to an SQS-compatible name.
// SQS allows alphanumeric, hyphens, and underscores (and the .fifo suffix).
func sanitizeQueueName(name string) string {
	return strings.ReplaceAll(name, ".", "-")
}

// getOrCreateQueueURL gets (from cache) or creates an SQS queue and returns its URL.
func (t *Transport) getOrCreateQueueURL(ctx context.Context, queue string) (string, error) {
	t.queueURLsMu.RLock()
	if url, ok := t.queueURLs[queue]; ok {
		t.queueURLsMu.RUnlock()
		return url, nil
	}
	t.queueURLsMu.RUnlock()

	sqsName := t.sqsQueueName(queue)
	attrs := map[string]string{
		"ReceiveMessageWaitTimeSeconds": "20",      // Long polling
		"VisibilityTimeout":             "30",      // Default 30s
		"MessageRetentionPeriod":        "1209600", // 14 days
	}

	if t.useFIFO {
		attrs["FifoQueue"] = "true"
		attrs["ContentBasedDeduplication"] = "true"
	}

	result, err := t.sqsClient.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  aws.String(sqsName),
		Attributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("create SQS queue %s: %w", sqsName, err)
	}

	url := *result.QueueUrl

	t.queueURLsMu.Lock()
	t.queueURLs[queue] = url
	t.queueURLsMu.Unlock()

	return url, nil
}

// getQueueURL gets an existing queue URL without creating it.
func (t *Transport) getQueueURL(ctx context.Context, queue string) (string, error) {
	t.queueURLsMu.RLock()
	if url, ok := t.queueURLs[queue]; ok {
		t.queueURLsMu.RUnlock()
		return url, nil
	}
	t.queueURLsMu.RUnlock()

	sqsName := t.sqsQueueName(queue)
	result, err := t.sqsClient.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(sqsName),
	})
	if err != nil {
		return "", fmt.Errorf("get SQS queue URL for %s: %w", sqsName, err)
	}

	url := *result.QueueUrl

	t.queueURLsMu.Lock()
	t.queueURLs[queue] = url
	t.queueURLsMu.Unlock()

	return url, nil
}
