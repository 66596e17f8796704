// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	WatsonxAPIKey    string
	WatsonxProjectID string
	WatsonxBaseURL   string
	IAMTokenURL      string
	ModelID          string
	ListenAddr       string
	DBPath           string
	AllowedOrigins   []string
	ExposeRaw        bool
	IdentityTimeout  time.Duration
	ModelTimeout     time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. BLUEWATERS_WATSONX_API_KEY and BLUEWATERS_WATSONX_PROJECT_ID are
// required; their absence is startup-fatal. Optional variables with defaults:
// BLUEWATERS_WATSONX_BASE_URL, BLUEWATERS_IAM_TOKEN_URL, BLUEWATERS_MODEL_ID,
// BLUEWATERS_LISTEN_ADDR (127.0.0.1:8080), BLUEWATERS_DB_PATH (bluewaters.db),
// BLUEWATERS_ALLOWED_ORIGINS (comma-separated), BLUEWATERS_EXPOSE_RAW (false),
// BLUEWATERS_IDENTITY_TIMEOUT (5s), BLUEWATERS_MODEL_TIMEOUT (30s).
func Load() (*Config, error) {
	apiKey := os.Getenv("BLUEWATERS_WATSONX_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("BLUEWATERS_WATSONX_API_KEY is required")
	}

	projectID := os.Getenv("BLUEWATERS_WATSONX_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("BLUEWATERS_WATSONX_PROJECT_ID is required")
	}

	baseURL := "https://us-south.ml.cloud.ibm.com"
	if v, ok := os.LookupEnv("BLUEWATERS_WATSONX_BASE_URL"); ok {
		baseURL = v
	}

	iamTokenURL := "https://iam.cloud.ibm.com/identity/token"
	if v, ok := os.LookupEnv("BLUEWATERS_IAM_TOKEN_URL"); ok {
		iamTokenURL = v
	}

	modelID := "ibm/granite-13b-chat-v2"
	if v, ok := os.LookupEnv("BLUEWATERS_MODEL_ID"); ok {
		modelID = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("BLUEWATERS_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "bluewaters.db"
	if v, ok := os.LookupEnv("BLUEWATERS_DB_PATH"); ok {
		dbPath = v
	}

	allowedOrigins := []string{"http://localhost:8080"}
	if v, ok := os.LookupEnv("BLUEWATERS_ALLOWED_ORIGINS"); ok && v != "" {
		allowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	exposeRaw := false
	if v, ok := os.LookupEnv("BLUEWATERS_EXPOSE_RAW"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("BLUEWATERS_EXPOSE_RAW has invalid boolean %q: %w", v, err)
		}
		exposeRaw = parsed
	}

	identityTimeout, err := durationEnv("BLUEWATERS_IDENTITY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	modelTimeout, err := durationEnv("BLUEWATERS_MODEL_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		WatsonxAPIKey:    apiKey,
		WatsonxProjectID: projectID,
		WatsonxBaseURL:   baseURL,
		IAMTokenURL:      iamTokenURL,
		ModelID:          modelID,
		ListenAddr:       listenAddr,
		DBPath:           dbPath,
		AllowedOrigins:   allowedOrigins,
		ExposeRaw:        exposeRaw,
		IdentityTimeout:  identityTimeout,
		ModelTimeout:     modelTimeout,
	}, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", name, v, err)
	}

	return parsed, nil
}
