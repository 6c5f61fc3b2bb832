package sqs

import (
	"encoding/json"
	"fmt"

	"github.com/retryexec/retryexec/internal/core"
)

// MaxSQSMessageSize is the maximum SQS message size (256 KB).
const MaxSQSMessageSize = 256 * 1024

// EncodeExecution serializes an Execution to JSON for an SQS message body.
// Returns an error if the encoded payload exceeds 256KB.
func EncodeExecution(exec *core.Execution) (string, error) {
	data, err := json.Marshal(exec)
	if err != nil {
		return "", fmt.Errorf("marshal execution: %w", err)
	}

	if len(data) > MaxSQSMessageSize {
		return "", &core.ExecError{
			Code:    core.ErrCodeInvalidRequest,
			Message: fmt.Sprintf("Execution payload size (%d bytes) exceeds SQS maximum of %d bytes.", len(data), MaxSQSMessageSize),
			Details: map[string]any{
				"payload_size": len(data),
				"max_size":     MaxSQSMessageSize,
				"execution_id": exec.ID,
			},
		}
	}

	return string(data), nil
}

// DecodeExecution deserializes an Execution from an SQS message body.
func DecodeExecution(body string) (*core.Execution, error) {
	var exec core.Execution
	if err := json.Unmarshal([]byte(body), &exec); err != nil {
		return nil, fmt.Errorf("unmarshal execution: %w", err)
	}
	return &exec, nil
}
