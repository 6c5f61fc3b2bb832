package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/retryexec/retryexec/internal/core"
)

// Receive long-polls a queue for up to max executions. Paused queues yield
// nothing. SQS ReceiveMessage returns at most 10 messages per call.
func (t *Transport) Receive(ctx context.Context, queue string, max int, visibilityTimeoutSec, waitSec int32) ([]*core.Execution, error) {
	paused, _ := t.store.IsQueuePaused(ctx, queue)
	if paused {
		return nil, nil
	}

	queueURL, err := t.getOrCreateQueueURL(ctx, queue)
	if err != nil {
		return nil, err
	}

	maxMessages := int32(max)
	if maxMessages > 10 {
		maxMessages = 10
	}
	if maxMessages < 1 {
		maxMessages = 1
	}

	result, err := t.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:              aws.String(queueURL),
		MaxNumberOfMessages:   maxMessages,
		VisibilityTimeout:     visibilityTimeoutSec,
		WaitTimeSeconds:       waitSec,
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("SQS ReceiveMessage: %w", err)
	}

	execs := make([]*core.Execution, 0, len(result.Messages))
	for _, msg := range result.Messages {
		exec, err := DecodeExecution(*msg.Body)
		if err != nil {
			t.logger.Warn("skipping malformed SQS message", "queue", queue, "error", err)
			continue
		}
		exec.ReceiptHandle = *msg.ReceiptHandle
		execs = append(execs, exec)
	}

	return execs, nil
}

// deleteFromSQS deletes a message from an SQS queue.
func (t *Transport) deleteFromSQS(ctx context.Context, queue, receiptHandle string) error {
	queueURL, err := t.getQueueURL(ctx, queue)
	if err != nil {
		return err
	}

	_, err = t.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	return err
}

// DeleteMessage removes an execution's message from its queue. Called by the
// runner once an execution reaches a terminal state.
func (t *Transport) DeleteMessage(ctx context.Context, queue, receiptHandle string) error {
	return t.deleteFromSQS(ctx, queue, receiptHandle)
}

// ExtendVisibility extends the visibility timeout for an in-flight message
// so long-running attempts are not redelivered mid-run. SQS caps the
// visibility timeout at 12 hours.
func (t *Transport) ExtendVisibility(ctx context.Context, queue, receiptHandle string, seconds int32) error {
	if seconds < 1 {
		seconds = 30
	}
	if seconds > 43200 {
		seconds = 43200
	}

	queueURL, err := t.getQueueURL(ctx, queue)
	if err != nil {
		return err
	}

	_, err = t.sqsClient.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(queueURL),
		ReceiptHandle:     aws.String(receiptHandle),
		VisibilityTimeout: seconds,
	})
	if err != nil {
		return fmt.Errorf("SQS ChangeMessageVisibility: %w", err)
	}

	return nil
}
