package confs

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings. Values come from the environment, after an
// optional .env file has been loaded into it.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	LLM       LLMConfig
	MQTT      MQTTConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Addr        string `env:"SERVER_ADDR" env-default:"0.0.0.0:3536"`
	CORSOrigins string `env:"CORS_ORIGINS" env-default:"*"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `env:"DB_DRIVER" env-default:"postgres"`
	URL      string `env:"DB_URL"`
	Host     string `env:"DB_HOST"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME"`
	// SQLitePath is only used with DB_DRIVER=sqlite.
	SQLitePath string `env:"DB_SQLITE_PATH" env-default:"home-energy.db"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET_KEY" env-default:"your-secret-key-change-in-production"`
	TokenTTL  time.Duration `env:"JWT_TOKEN_TTL" env-default:"168h"`
}

type LLMConfig struct {
	BaseURL  string        `env:"LLM_BASE_URL" env-default:"https://api.mistral.ai/v1"`
	Model    string        `env:"LLM_MODEL" env-default:"mistral-small-latest"`
	APIKey   string        `env:"LLM_API_KEY"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" env-default:"30s"`
	CacheTTL time.Duration `env:"LLM_CACHE_TTL" env-default:"10m"`
}

// Enabled reports whether an insight generator can be built.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.BaseURL != "" && c.Model != ""
}

type MQTTConfig struct {
	BrokerURL   string `env:"MQTT_BROKER_URL"`
	ClientID    string `env:"MQTT_CLIENT_ID"`
	TopicPrefix string `env:"MQTT_TOPIC_PREFIX" env-default:"home"`
}

type SchedulerConfig struct {
	// HourlySpec is a cron expression with a seconds field.
	HourlySpec string `env:"HOURLY_INTEGRATION_SPEC" env-default:"5 0 * * * *"`
	Enabled    bool   `env:"HOURLY_INTEGRATION_ENABLED" env-default:"true"`
}

// LoadConfig loads environment variables from a .env file if present and
// reads them into a Config.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL != "" {
			return nil
		}
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Password == "" || c.Database.Name == "" {
			return fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c ServerConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
