package sqs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/retryexec/retryexec/internal/core"
)

// maxSQSDelay is the longest delay SQS applies natively (15 minutes).
// Longer deferrals go through the state store and the scheduler promoter.
const maxSQSDelay = 900 * time.Second

// sendToSQS sends an execution as an SQS message.
func (t *Transport) sendToSQS(ctx context.Context, exec *core.Execution) (string, error) {
	queueURL, err := t.getOrCreateQueueURL(ctx, exec.Queue)
	if err != nil {
		return "", err
	}

	body, err := EncodeExecution(exec)
	if err != nil {
		return "", err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(queueURL),
		MessageBody:       aws.String(body),
		MessageAttributes: BuildMessageAttributes(exec),
	}

	// For FIFO queues, order by queue name and deduplicate by execution ID.
	if t.useFIFO {
		input.MessageGroupId = aws.String(exec.Queue)
		input.MessageDeduplicationId = aws.String(exec.ID)
	}

	result, err := t.sqsClient.SendMessage(ctx, input)
	if err != nil {
		return "", fmt.Errorf("SQS SendMessage: %w", err)
	}

	return *result.MessageId, nil
}

// sqsNativeDelay returns the DelaySeconds value for a scheduled time if SQS
// can handle the deferral natively, or false if the scheduler must own it.
// FIFO queues do not support per-message delays.
func (t *Transport) sqsNativeDelay(scheduledAt string, now time.Time) (int32, bool) {
	if t.useFIFO || scheduledAt == "" {
		return 0, false
	}
	at, err := time.Parse(time.RFC3339, scheduledAt)
	if err != nil {
		return 0, false
	}
	delay := at.Sub(now)
	if delay <= 0 || delay > maxSQSDelay {
		return 0, false
	}
	return int32(delay / time.Second), true
}
