package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	API       APIConfig
	Storage   StorageConfig
	Weather   WeatherConfig
	Stripe    StripeConfig
	DevServer DevServerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COFFEECLUB_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"COFFEECLUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COFFEECLUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL             string        `envconfig:"COFFEECLUB_API_URL" required:"true"`
	Timeout             time.Duration `envconfig:"COFFEECLUB_API_TIMEOUT" default:"15s"`
	MerchantDisplayName string        `envconfig:"COFFEECLUB_MERCHANT_NAME" default:"Coffee Club"`
}

type StorageConfig struct {
	Path string `envconfig:"COFFEECLUB_STORAGE_PATH" default:"coffeeclub.db"`
}

type WeatherConfig struct {
	APIKey         string        `envconfig:"COFFEECLUB_OPENWEATHER_API_KEY"`
	Units          string        `envconfig:"COFFEECLUB_WEATHER_UNITS" default:"imperial"`
	FallbackCoords string        `envconfig:"COFFEECLUB_WEATHER_FALLBACK_COORDS"`
	CacheTTL       time.Duration `envconfig:"COFFEECLUB_WEATHER_CACHE_TTL" default:"15m"`
}

// ParseFallbackCoords parses the configured "lat,lon" pair. The boolean is
// false when no usable fallback is configured.
func (w WeatherConfig) ParseFallbackCoords() (lat, lon float64, ok bool) {
	raw := strings.TrimSpace(w.FallbackCoords)
	if raw == "" {
		return 0, 0, false
	}
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

type StripeConfig struct {
	APIKey            string `envconfig:"COFFEECLUB_STRIPE_API_KEY"`
	Env               string `envconfig:"COFFEECLUB_STRIPE_ENV" default:"test"`
	TestPaymentMethod string `envconfig:"COFFEECLUB_STRIPE_TEST_PAYMENT_METHOD" default:"pm_card_visa"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type DevServerConfig struct {
	Port               string        `envconfig:"COFFEECLUB_DEVSERVER_PORT" default:"8080"`
	JWTSecret          string        `envconfig:"COFFEECLUB_DEVSERVER_JWT_SECRET" default:"coffeeclub-dev-secret"`
	JWTIssuer          string        `envconfig:"COFFEECLUB_DEVSERVER_JWT_ISSUER" default:"coffeeclub-devserver"`
	TokenTTL           time.Duration `envconfig:"COFFEECLUB_DEVSERVER_TOKEN_TTL" default:"12h"`
	AllowedOrigins     []string      `envconfig:"COFFEECLUB_DEVSERVER_ALLOWED_ORIGINS" default:"*"`
	FreeDrinkThreshold int           `envconfig:"COFFEECLUB_DEVSERVER_FREE_DRINK_THRESHOLD" default:"10"`

	ArgonMemoryKB    int `envconfig:"COFFEECLUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"COFFEECLUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"COFFEECLUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"COFFEECLUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"COFFEECLUB_ARGON_KEY_LEN" default:"32"`
}
