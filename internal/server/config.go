package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration from environment variables.
type Config struct {
	Port           string
	AWSRegion      string
	AWSEndpointURL string // For LocalStack
	DynamoDBTable  string
	SQSQueuePrefix string
	UseFIFO        bool

	// Worker pool.
	Queues               []string
	WorkerCount          int
	VisibilityTimeoutSec int32
	WaitTimeSec          int32

	// Execution defaults.
	DefaultAttemptTimeout time.Duration
	TerminalRetention     time.Duration

	// Authentication.
	APIKey              string
	AllowInsecureNoAuth bool

	// HTTP server timeouts.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads configuration from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		Port:           getEnv("RETRYEXEC_PORT", "8080"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""), // Empty = real AWS
		DynamoDBTable:  getEnv("RETRYEXEC_DYNAMODB_TABLE", "retryexec-executions"),
		SQSQueuePrefix: getEnv("RETRYEXEC_SQS_QUEUE_PREFIX", "retryexec"),
		UseFIFO:        getEnvBool("RETRYEXEC_SQS_USE_FIFO", false),

		Queues:               getEnvList("RETRYEXEC_QUEUES", []string{"default"}),
		WorkerCount:          getEnvInt("RETRYEXEC_WORKER_COUNT", 4),
		VisibilityTimeoutSec: int32(getEnvInt("RETRYEXEC_VISIBILITY_TIMEOUT_SEC", 30)),
		WaitTimeSec:          int32(getEnvInt("RETRYEXEC_WAIT_TIME_SEC", 20)),

		DefaultAttemptTimeout: getEnvDuration("RETRYEXEC_DEFAULT_ATTEMPT_TIMEOUT", 30*time.Second),
		TerminalRetention:     getEnvDuration("RETRYEXEC_TERMINAL_RETENTION", 24*time.Hour),

		APIKey:              getEnv("RETRYEXEC_API_KEY", ""),
		AllowInsecureNoAuth: getEnvBool("RETRYEXEC_ALLOW_INSECURE_NO_AUTH", false),

		ReadTimeout:     getEnvDuration("RETRYEXEC_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("RETRYEXEC_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     getEnvDuration("RETRYEXEC_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("RETRYEXEC_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
