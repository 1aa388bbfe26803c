package config

import (
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	APIBaseURL string
	WebhookURL string

	StateDBPath string
	LogFile     string

	HTTPTimeout    time.Duration
	WebhookTimeout time.Duration
}

func Load() Config {
	apiBase := os.Getenv("UNIAGENT_API_BASE_URL")
	if apiBase == "" {
		apiBase = "http://localhost:8080"
	}

	webhookURL := os.Getenv("UNIAGENT_WEBHOOK_URL")

	statePath := os.Getenv("UNIAGENT_STATE_DB")
	if statePath == "" {
		statePath = filepath.Join(homeDir(), ".uniagent", "uniagent.db")
	}

	logFile := os.Getenv("UNIAGENT_LOG_FILE")
	if logFile == "" {
		logFile = filepath.Join(homeDir(), ".uniagent", "uniagent.log")
	}

	httpTimeout := 15 * time.Second
	if v := os.Getenv("UNIAGENT_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			httpTimeout = d
		}
	}

	// The n8n workflow can take a while to answer; give it more room
	// than the plain REST calls.
	webhookTimeout := 90 * time.Second
	if v := os.Getenv("UNIAGENT_WEBHOOK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			webhookTimeout = d
		}
	}

	return Config{
		APIBaseURL:  apiBase,
		WebhookURL:  webhookURL,
		StateDBPath: statePath,
		LogFile:     logFile,

		HTTPTimeout:    httpTimeout,
		WebhookTimeout: webhookTimeout,
	}
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}
