package confs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:3536", cfg.Server.Addr)
	assert.Equal(t, "home-energy.db", cfg.Database.SQLitePath)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.LLM.CacheTTL)
	assert.Equal(t, "5 0 * * * *", cfg.Scheduler.HourlySpec)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "home", cfg.MQTT.TopicPrefix)
}

func TestLoadConfigPostgresRequiresConnection(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_URL", "")
	t.Setenv("DB_HOST", "")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("DB_URL", "postgres://u:p@localhost:5432/energy")
	_, err = LoadConfig()
	assert.NoError(t, err)
}

func TestLoadConfigUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	s := ServerConfig{CORSOrigins: " http://a.test, ,http://b.test "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.AllowedOrigins())
}

func TestLLMEnabled(t *testing.T) {
	c := LLMConfig{BaseURL: "http://llm", Model: "m"}
	assert.False(t, c.Enabled())
	c.APIKey = "key"
	assert.True(t, c.Enabled())
}
