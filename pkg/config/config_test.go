package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("telegram:\n  token: abc\n"))
	require.NoError(t, err)

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, DefaultLongPollTimeout, cfg.Telegram.LongPollTimeoutSeconds)
	assert.Equal(t, CitizenshipInputButtons, cfg.Survey.CitizenshipInput)
	assert.Equal(t, DefaultSaveTimeout, cfg.Survey.SaveTimeout)
	assert.Equal(t, DefaultSessionTTL, cfg.Survey.SessionTTL)
	assert.True(t, cfg.Survey.ExplicitStart())
	assert.True(t, cfg.Survey.ShowFullReport())
	assert.Len(t, cfg.Survey.CitizenshipOptions, 8)
	assert.Len(t, cfg.Survey.DateExamples, 4)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, SchemaWide, cfg.Storage.Schema)
	assert.Equal(t, DefaultHTTPListen, cfg.HTTP.ListenAddr())
}

func TestParseReadsSurveyFlags(t *testing.T) {
	raw := `
telegram:
  token: abc
  run_mode: webhook
webhook:
  url: https://example.org/hook
  path: tg
survey:
  require_explicit_start: false
  full_report: false
  citizenship_input: text
  save_timeout: 7s
  citizenship_options:
    - {code: DE, text: "Германия", value: "Германия"}
storage:
  driver: postgres
  dsn: postgres://u:p@localhost/db
  schema: narrow
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, RunModeWebhook, cfg.Telegram.RunMode)
	assert.Equal(t, "/tg", cfg.Webhook.Path)
	assert.False(t, cfg.Survey.ExplicitStart())
	assert.False(t, cfg.Survey.ShowFullReport())
	assert.Equal(t, CitizenshipInputText, cfg.Survey.CitizenshipInput)
	assert.Equal(t, 7*time.Second, cfg.Survey.SaveTimeout)
	require.Len(t, cfg.Survey.CitizenshipOptions, 1)
	assert.Equal(t, "DE", cfg.Survey.CitizenshipOptions[0].Code)
	assert.Equal(t, SchemaNarrow, cfg.Storage.Schema)
}

func TestNormalizeRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"missing token":        "telegram: {}\n",
		"bad run mode":         "telegram: {token: x, run_mode: carrier-pigeon}\n",
		"webhook without url":  "telegram: {token: x, run_mode: webhook}\n",
		"bad input mode":       "telegram: {token: x}\nsurvey: {citizenship_input: voice}\n",
		"bad driver":           "telegram: {token: x}\nstorage: {driver: mongo}\n",
		"postgres without dsn": "telegram: {token: x}\nstorage: {driver: postgres}\n",
		"postgres key-value":   "telegram: {token: x}\nstorage: {driver: postgres, dsn: \"host=localhost user=u dbname=db\"}\n",
		"bad schema":           "telegram: {token: x}\nstorage: {schema: medium}\n",
		"duplicate code":       "telegram: {token: x}\nsurvey:\n  citizenship_options:\n    - {code: A, text: a, value: a}\n    - {code: A, text: b, value: b}\n",
		"bad date example":     "telegram: {token: x}\nsurvey:\n  date_examples: [\"1990-01-01\"]\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestNormalizeInfersPostgresFromDSN(t *testing.T) {
	cfg, err := Parse([]byte("telegram: {token: x}\nstorage: {dsn: \"postgresql://u@h/db\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
}

func TestListenAddrHonoursPort(t *testing.T) {
	assert.Equal(t, ":10000", HTTPConfig{Port: 10000}.ListenAddr())
	assert.Equal(t, "0.0.0.0:9000", HTTPConfig{Listen: "0.0.0.0:8080", Port: 9000}.ListenAddr())
	assert.Equal(t, "127.0.0.1:8081", HTTPConfig{Listen: "127.0.0.1:8081"}.ListenAddr())
}

func TestLoadConfigOverlaysEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram:\n  token: from-file\nlogging:\n  level: info\n"), 0o600))

	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SAVE_TIMEOUT", "9s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9*time.Second, cfg.Survey.SaveTimeout)
}

func TestLoadConfigWithoutFileUsesEnv(t *testing.T) {
	if _, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
		t.Skip("TELEGRAM_BOT_TOKEN takes precedence over BOT_TOKEN")
	}
	t.Setenv("BOT_TOKEN", "only-env")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "only-env", cfg.Telegram.Token)
}
