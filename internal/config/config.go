package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"min=1"`
	KafkaSourceTopic string        `envconfig:"KAFKA_SOURCE_TOPIC" default:"prediction-contexts" validate:"required"`
	KafkaSinkTopic   string        `envconfig:"KAFKA_SINK_TOPIC" default:"surge-reports" validate:"required"`
	KafkaGroupID     string        `envconfig:"KAFKA_GROUP_ID" default:"surge-forecast" validate:"required"`
	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat        string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	BatchSize          int           `envconfig:"BATCH_SIZE" default:"50" validate:"min=1,max=1000"`
	BatchFlushInterval time.Duration `envconfig:"BATCH_FLUSH_INTERVAL" default:"500ms"`

	// Forecast and model settings.
	ForecastDays    int    `envconfig:"FORECAST_DAYS" default:"7" validate:"min=1"`
	ModelParamsFile string `envconfig:"MODEL_PARAMS_FILE" validate:"omitempty,file"`
	APIEnabled      bool   `envconfig:"API_ENABLED" default:"true"`

	// Sink circuit breaker.
	SinkBreakerFailures uint32        `envconfig:"SINK_BREAKER_FAILURES" default:"5" validate:"min=1"`
	SinkBreakerTimeout  time.Duration `envconfig:"SINK_BREAKER_TIMEOUT" default:"30s"`
}

// Load reads configuration from an optional .env file and the environment,
// applying defaults where unset.
func Load() (*Config, error) {
	// A missing .env is not an error; real environment variables take precedence.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	cfg.KafkaBrokers = parseBrokers(cfg.KafkaBrokers)

	if err := newValidator().Struct(cfg); err != nil {
		return nil, describe(err)
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout},
		{"BATCH_FLUSH_INTERVAL", cfg.BatchFlushInterval},
		{"SINK_BREAKER_TIMEOUT", cfg.SinkBreakerTimeout},
	} {
		if d.value <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive duration, got %s", d.name, d.value)
		}
	}

	return &cfg, nil
}

// LoadParams reads the model parameter file at path. An empty path yields the
// built-in defaults.
func LoadParams(path string) (domain.Params, error) {
	if path == "" {
		return domain.DefaultParams(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Params{}, fmt.Errorf("read model params: %w", err)
	}
	p, err := domain.ParseParams(data)
	if err != nil {
		return domain.Params{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// newValidator reports fields by their environment variable names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("invalid %s: failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func parseBrokers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
