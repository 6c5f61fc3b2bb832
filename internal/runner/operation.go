package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/retryexec/retryexec/internal/core"
	"github.com/retryexec/retryexec/retry"
)

// maxResultBytes caps how much of an HTTP response body is kept as the
// execution result.
const maxResultBytes = 64 * 1024

// BuildOperation turns a serializable operation spec into a callable
// retry.Operation. Each call of the returned function is one attempt.
func BuildOperation(spec core.OperationSpec, httpClient *http.Client) (retry.Operation[json.RawMessage], error) {
	switch spec.Kind {
	case core.OpBuiltinEcho:
		payload := spec.Echo
		if payload == nil {
			payload = json.RawMessage(`{}`)
		}
		return func(ctx context.Context) (json.RawMessage, error) {
			return payload, nil
		}, nil

	case core.OpBuiltinFail:
		msg := spec.FailMessage
		if msg == "" {
			msg = "operation failed"
		}
		return func(ctx context.Context) (json.RawMessage, error) {
			return nil, errors.New(msg)
		}, nil

	case core.OpBuiltinFlaky:
		// Per-execution attempt counter. The returned operation must not
		// be shared across executions.
		calls := 0
		succeedAfter := spec.SucceedAfter
		return func(ctx context.Context) (json.RawMessage, error) {
			calls++
			if calls < succeedAfter {
				return nil, fmt.Errorf("flaky operation failed on invocation %d", calls)
			}
			result, _ := json.Marshal(map[string]int{"succeeded_on_invocation": calls})
			return result, nil
		}, nil

	case core.OpHTTPRequest:
		if spec.HTTP == nil {
			return nil, core.NewValidationError("http.request operation requires an http block.", nil)
		}
		return buildHTTPOperation(spec.HTTP, httpClient), nil

	default:
		return nil, core.NewValidationError(
			fmt.Sprintf("Unknown operation kind '%s'.", spec.Kind),
			map[string]any{"kind": spec.Kind},
		)
	}
}

func buildHTTPOperation(op *core.HTTPOperation, client *http.Client) retry.Operation[json.RawMessage] {
	method := op.Method
	if method == "" {
		method = http.MethodGet
	}
	expect := op.ExpectStatus
	if expect == "" {
		expect = "2xx"
	}

	return func(ctx context.Context) (json.RawMessage, error) {
		var body io.Reader
		if len(op.Body) > 0 {
			body = bytes.NewReader(op.Body)
		}

		req, err := http.NewRequestWithContext(ctx, method, op.URL, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range op.Headers {
			req.Header.Set(k, v)
		}
		if len(op.Body) > 0 && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, op.URL, err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes))

		if !statusMatches(resp.StatusCode, expect) {
			return nil, fmt.Errorf("%s %s: unexpected status %d (want %s)", method, op.URL, resp.StatusCode, expect)
		}

		return httpResult(resp.StatusCode, respBody), nil
	}
}

// statusMatches checks a status code against a class pattern like "2xx".
func statusMatches(code int, expect string) bool {
	if len(expect) != 3 {
		return false
	}
	return code/100 == int(expect[0]-'0')
}

// httpResult builds the stored result for an HTTP attempt. JSON response
// bodies are embedded as-is; anything else is kept as a string.
func httpResult(status int, body []byte) json.RawMessage {
	out := map[string]any{"status": status}
	if len(body) > 0 {
		if json.Valid(body) {
			out["body"] = json.RawMessage(body)
		} else {
			out["body"] = string(body)
		}
	}
	result, _ := json.Marshal(out)
	return result
}

// defaultHTTPClient is used when the runner is not given one.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
