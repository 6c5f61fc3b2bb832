package sqs

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/retryexec/retryexec/internal/core"
)

// Message attribute names. SQS allows max 10 message attributes per message.
const (
	AttrVersion     = "retryexec.version"
	AttrID          = "retryexec.id"
	AttrKind        = "retryexec.kind"
	AttrQueue       = "retryexec.queue"
	AttrAttempt     = "retryexec.attempt"
	AttrMaxAttempts = "retryexec.max_attempts"
	AttrScheduledAt = "retryexec.scheduled_at"
	AttrCreatedAt   = "retryexec.created_at"
)

// BuildMessageAttributes creates SQS message attributes from an Execution.
// These let consumers and ops tooling inspect messages without decoding
// the body.
func BuildMessageAttributes(exec *core.Execution) map[string]types.MessageAttributeValue {
	attrs := make(map[string]types.MessageAttributeValue)

	attrs[AttrVersion] = types.MessageAttributeValue{
		DataType:    strPtr("String"),
		StringValue: strPtr(core.Version),
	}

	attrs[AttrID] = types.MessageAttributeValue{
		DataType:    strPtr("String"),
		StringValue: strPtr(exec.ID),
	}

	attrs[AttrKind] = types.MessageAttributeValue{
		DataType:    strPtr("String"),
		StringValue: strPtr(exec.Operation.Kind),
	}

	attrs[AttrQueue] = types.MessageAttributeValue{
		DataType:    strPtr("String"),
		StringValue: strPtr(exec.Queue),
	}

	attrs[AttrAttempt] = types.MessageAttributeValue{
		DataType:    strPtr("Number"),
		StringValue: strPtr(strconv.Itoa(exec.Attempt)),
	}

	attrs[AttrMaxAttempts] = types.MessageAttributeValue{
		DataType:    strPtr("Number"),
		StringValue: strPtr(strconv.Itoa(exec.MaxAttemptsOrDefault())),
	}

	if exec.ScheduledAt != "" {
		attrs[AttrScheduledAt] = types.MessageAttributeValue{
			DataType:    strPtr("String"),
			StringValue: strPtr(exec.ScheduledAt),
		}
	}

	if exec.CreatedAt != "" {
		attrs[AttrCreatedAt] = types.MessageAttributeValue{
			DataType:    strPtr("String"),
			StringValue: strPtr(exec.CreatedAt),
		}
	}

	return attrs
}

func strPtr(s string) *string {
	return &s
}
