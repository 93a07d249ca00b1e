package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: review
  password: secret
  name: reviewgate
ai:
  openaiKey: sk-test
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "sync", cfg.Reviews.DefaultMode)
	assert.Equal(t, 5, cfg.Reviews.QueuePollSeconds)
	assert.Equal(t, 10, cfg.Reviews.QueueBatch)
	assert.Equal(t, "openai", cfg.AI.DefaultProvider)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: review
  password: secret
  name: reviewgate
  sslMode: require
ai:
  geminiKey: g-test
  defaultProvider: gemini
  defaultModel: gemini-1.5-pro
reviews:
  defaultMode: deferred
  queuePollSeconds: 2
workflows:
  article:
    transitions:
      "draft->published": publish
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "deferred", cfg.Reviews.DefaultMode)
	assert.Equal(t, "publish", cfg.Workflows["article"].Transitions["draft->published"])
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=require")
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
}

func TestLoadRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
ai:
  openaiKey: sk-test
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadRunMode(t *testing.T) {
	path := writeConfig(t, `
ai:
  openaiKey: sk-test
reviews:
  defaultMode: whenever
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRequiresProviderKey(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.Host = "h"
	cfg.Database.Port = 3306
	cfg.Database.Name = "d"

	assert.Equal(t, "u:p@tcp(h:3306)/d?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
