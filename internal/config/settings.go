// SPDX-License-Identifier: MIT

// Package config loads and validates process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Settings is the full runtime configuration of the service. Every field maps
// to one environment variable; a .env file loaded at process start feeds the
// same variables in local development.
type Settings struct {
	// Application
	Environment string
	Debug       bool

	// Server
	Host string
	Port int `validate:"min=1,max=65535"`

	// Database
	DatabaseURL string `validate:"notblank"`

	// Redis
	RedisURL string `validate:"notblank"`

	// Logging
	LogLevel string

	// Secrets and API keys (required, no defaults)
	SupabaseURL            string `validate:"notblank"`
	OpenAIAPIKey           string `validate:"notblank"`
	GoogleAPIKey           string `validate:"notblank"`
	SupabaseServiceRoleKey string `validate:"notblank"`
	ClientURL              string `validate:"notblank"`
	StripeSecretKey        string `validate:"notblank"`
	StripePriceIDPro       string `validate:"notblank"`
	StripePriceIDBusiness  string `validate:"notblank"`
	StripeWebhookSecret    string `validate:"notblank"`

	Worker    Worker
	Telemetry Telemetry
}

// Worker holds tuning knobs for the background worker runtime.
type Worker struct {
	Concurrency       int           `validate:"min=1"`
	IngestInterval    time.Duration `validate:"min=1s"`
	ReclaimInterval   time.Duration `validate:"min=1s"`
	TaskTimeLimit     time.Duration `validate:"min=1s"`
	TaskSoftTimeLimit time.Duration `validate:"min=1s"`
}

// Telemetry holds tracing exporter options.
type Telemetry struct {
	Enabled      bool
	Exporter     string `validate:"oneof=grpc http"`
	Endpoint     string
	SamplingRate float64 `validate:"min=0,max=1"`
	Insecure     bool
}

// requiredEnv maps required struct fields to their environment variable names,
// in the order missing variables are reported.
var requiredEnv = []struct{ field, env string }{
	{"SupabaseURL", "SUPABASE_URL"},
	{"OpenAIAPIKey", "OPENAI_API_KEY"},
	{"GoogleAPIKey", "GOOGLE_API_KEY"},
	{"SupabaseServiceRoleKey", "SUPABASE_SERVICE_ROLE_KEY"},
	{"ClientURL", "CLIENT_URL"},
	{"StripeSecretKey", "STRIPE_SECRET_KEY"},
	{"StripePriceIDPro", "STRIPE_PRICE_ID_PRO"},
	{"StripePriceIDBusiness", "STRIPE_PRICE_ID_BUSINESS"},
	{"StripeWebhookSecret", "STRIPE_WEBHOOK_SECRET"},
	{"DatabaseURL", "DATABASE_URL"},
	{"RedisURL", "REDIS_URL"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// "required" accepts whitespace-only values; required settings must not.
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// Load reads all settings from the environment, applies defaults and
// validates the result.
func Load() (*Settings, error) {
	s := &Settings{
		Environment: ParseString("ENVIRONMENT", "development"),
		Debug:       ParseBool("DEBUG", false),
		Host:        ParseString("HOST", "0.0.0.0"),
		Port:        ParseInt("PORT", 8000),
		DatabaseURL: ParseString("DATABASE_URL", ""),
		RedisURL:    ParseString("REDIS_URL", ""),
		LogLevel:    ParseString("LOG_LEVEL", "info"),

		SupabaseURL:            ParseString("SUPABASE_URL", ""),
		OpenAIAPIKey:           ParseString("OPENAI_API_KEY", ""),
		GoogleAPIKey:           ParseString("GOOGLE_API_KEY", ""),
		SupabaseServiceRoleKey: ParseString("SUPABASE_SERVICE_ROLE_KEY", ""),
		ClientURL:              ParseString("CLIENT_URL", ""),
		StripeSecretKey:        ParseString("STRIPE_SECRET_KEY", ""),
		StripePriceIDPro:       ParseString("STRIPE_PRICE_ID_PRO", ""),
		StripePriceIDBusiness:  ParseString("STRIPE_PRICE_ID_BUSINESS", ""),
		StripeWebhookSecret:    ParseString("STRIPE_WEBHOOK_SECRET", ""),

		Worker: Worker{
			Concurrency:       ParseInt("WORKER_CONCURRENCY", 4),
			IngestInterval:    ParseDuration("INGEST_INTERVAL", 60*time.Second),
			ReclaimInterval:   ParseDuration("RECLAIM_INTERVAL", 5*time.Minute),
			TaskTimeLimit:     ParseDuration("TASK_TIME_LIMIT", 30*time.Minute),
			TaskSoftTimeLimit: ParseDuration("TASK_SOFT_TIME_LIMIT", 25*time.Minute),
		},
		Telemetry: Telemetry{
			Enabled:      ParseBool("TELEMETRY_ENABLED", false),
			Exporter:     ParseString("TELEMETRY_EXPORTER", "grpc"),
			Endpoint:     ParseString("OTLP_ENDPOINT", "localhost:4317"),
			SamplingRate: ParseFloat("TRACE_SAMPLING_RATE", 1.0),
			Insecure:     ParseBool("OTLP_INSECURE", true),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings and returns a MissingVarsError when required
// variables are absent or blank, in the canonical reporting order.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate settings: %w", err)
	}

	blank := make(map[string]bool, len(verrs))
	var rest []string
	for _, fe := range verrs {
		if fe.Tag() == "notblank" {
			blank[fe.StructField()] = true
			continue
		}
		rest = append(rest, fmt.Sprintf("%s failed %q", fe.StructNamespace(), fe.Tag()))
	}

	if len(blank) > 0 {
		var missing []string
		for _, f := range requiredEnv {
			if blank[f.field] {
				missing = append(missing, f.env)
			}
		}
		return &MissingVarsError{Vars: missing}
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(rest, "; "))
}

// Addr returns the host:port the HTTP server binds to.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AllowedOrigins returns the CORS origin allowlist: the configured client URL,
// or a wildcard when none is set.
func (s *Settings) AllowedOrigins() []string {
	if strings.TrimSpace(s.ClientURL) != "" {
		return []string{s.ClientURL}
	}
	return []string{"*"}
}

// MissingVarsError reports required environment variables that are missing or
// empty.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return fmt.Sprintf("required environment variables are missing or empty: %s", strings.Join(e.Vars, ", "))
}
