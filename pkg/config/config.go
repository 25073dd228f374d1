package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

const (
	CitizenshipInputButtons = "buttons"
	CitizenshipInputText    = "text"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	SchemaWide   = "wide"
	SchemaNarrow = "narrow"
)

const (
	DefaultSaveTimeout     = 5 * time.Second
	DefaultSessionTTL      = 24 * time.Hour
	DefaultSweepInterval   = 10 * time.Minute
	DefaultHTTPListen      = ":8080"
	DefaultWebhookPath     = "/webhook"
	DefaultLongPollTimeout = 60
)

type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	HTTP     HTTPConfig     `yaml:"http"`
	Survey   SurveyConfig   `yaml:"survey"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int  `yaml:"longpoll_timeout_seconds" envconfig:"LONGPOLL_TIMEOUT_SECONDS"`
	Debug                  bool `yaml:"debug" envconfig:"DEBUG"`
}

type WebhookConfig struct {
	URL  string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Path string `yaml:"path" envconfig:"WEBHOOK_PATH"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	// Port overrides the port of Listen, hosting platforms pass it as PORT.
	Port int `yaml:"port" envconfig:"PORT"`
}

type SurveyConfig struct {
	RequireExplicitStart *bool  `yaml:"require_explicit_start" envconfig:"REQUIRE_EXPLICIT_START"`
	CitizenshipInput     string `yaml:"citizenship_input" envconfig:"CITIZENSHIP_INPUT"`
	InlineEdit           bool   `yaml:"inline_edit" envconfig:"INLINE_EDIT"`
	FullReport           *bool  `yaml:"full_report" envconfig:"FULL_REPORT"`
	DeleteUserMessages   bool   `yaml:"delete_user_messages" envconfig:"DELETE_USER_MESSAGES"`

	SaveTimeout   time.Duration `yaml:"save_timeout" envconfig:"SAVE_TIMEOUT"`
	SessionTTL    time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`

	CitizenshipOptions []CitizenshipOption `yaml:"citizenship_options" ignored:"true"`
	DateExamples       []string            `yaml:"date_examples" ignored:"true"`
}

// CitizenshipOption is one quick-reply country. Code travels in the selection
// token, Value is what gets stored.
type CitizenshipOption struct {
	Code  string `yaml:"code"`
	Text  string `yaml:"text"`
	Value string `yaml:"value"`
}

type StorageConfig struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	DSN            string `yaml:"dsn" envconfig:"DATABASE_URL"`
	Schema         string `yaml:"schema" envconfig:"DB_SCHEMA"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
}

// ExplicitStart reports whether plain text without a session is rejected.
func (s SurveyConfig) ExplicitStart() bool {
	return s.RequireExplicitStart == nil || *s.RequireExplicitStart
}

// ShowFullReport reports whether the completion report includes generated fields.
func (s SurveyConfig) ShowFullReport() bool {
	return s.FullReport == nil || *s.FullReport
}

// ListenAddr returns the address the HTTP server binds to.
func (h HTTPConfig) ListenAddr() string {
	if h.Port > 0 {
		host := h.Listen
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		return fmt.Sprintf("%s:%d", host, h.Port)
	}
	if h.Listen == "" {
		return DefaultHTTPListen
	}
	return h.Listen
}

var defaultCitizenshipOptions = []CitizenshipOption{
	{Code: "RU", Text: "🇷🇺 Россия", Value: "Россия"},
	{Code: "UA", Text: "🇺🇦 Украина", Value: "Украина"},
	{Code: "BY", Text: "🇧🇾 Беларусь", Value: "Беларусь"},
	{Code: "KZ", Text: "🇰🇿 Казахстан", Value: "Казахстан"},
	{Code: "AM", Text: "🇦🇲 Армения", Value: "Армения"},
	{Code: "AZ", Text: "🇦🇿 Азербайджан", Value: "Азербайджан"},
	{Code: "GE", Text: "🇬🇪 Грузия", Value: "Грузия"},
	{Code: "MD", Text: "🇲🇩 Молдова", Value: "Молдова"},
}

var defaultDateExamples = []string{"15.03.1990", "22.07.1985", "08.12.1995", "30.01.1980"}

// Normalize validates cfg and fills defaults in place.
func (cfg *Config) Normalize() error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("config validation failed: telegram.token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("config validation failed: webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Path == "" {
			cfg.Webhook.Path = DefaultWebhookPath
		}
		if !strings.HasPrefix(cfg.Webhook.Path, "/") {
			cfg.Webhook.Path = "/" + cfg.Webhook.Path
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("config validation failed: telegram.longpoll_timeout_seconds must be >= 0")
		}
		if cfg.Telegram.LongPollTimeoutSeconds == 0 {
			cfg.Telegram.LongPollTimeoutSeconds = DefaultLongPollTimeout
		}
	default:
		return fmt.Errorf("config validation failed: invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := cfg.Survey.normalize(); err != nil {
		return err
	}
	return cfg.Storage.normalize()
}

func (s *SurveyConfig) normalize() error {
	mode := strings.ToLower(strings.TrimSpace(s.CitizenshipInput))
	if mode == "" {
		mode = CitizenshipInputButtons
	}
	if mode != CitizenshipInputButtons && mode != CitizenshipInputText {
		return fmt.Errorf("config validation failed: invalid survey.citizenship_input %q; allowed: buttons, text", s.CitizenshipInput)
	}
	s.CitizenshipInput = mode

	if s.SaveTimeout < 0 || s.SessionTTL < 0 || s.SweepInterval < 0 {
		return fmt.Errorf("config validation failed: survey durations must be >= 0")
	}
	if s.SaveTimeout == 0 {
		s.SaveTimeout = DefaultSaveTimeout
	}
	if s.SessionTTL == 0 {
		s.SessionTTL = DefaultSessionTTL
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = DefaultSweepInterval
	}

	if len(s.CitizenshipOptions) == 0 {
		s.CitizenshipOptions = append([]CitizenshipOption(nil), defaultCitizenshipOptions...)
	}
	codes := make(map[string]bool, len(s.CitizenshipOptions))
	for i, opt := range s.CitizenshipOptions {
		if opt.Code == "" || opt.Text == "" || opt.Value == "" {
			return fmt.Errorf("config validation failed: citizenship option #%d needs code, text and value", i+1)
		}
		if codes[opt.Code] {
			return fmt.Errorf("config validation failed: duplicate citizenship code '%s'", opt.Code)
		}
		codes[opt.Code] = true
	}

	if len(s.DateExamples) == 0 {
		s.DateExamples = append([]string(nil), defaultDateExamples...)
	}
	for _, d := range s.DateExamples {
		if _, err := time.Parse("02.01.2006", d); err != nil {
			return fmt.Errorf("config validation failed: date example %q is not DD.MM.YYYY", d)
		}
	}
	return nil
}

func (s *StorageConfig) normalize() error {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		driver = DriverSQLite
		if isPostgresURL(s.DSN) {
			driver = DriverPostgres
		}
	}
	switch driver {
	case DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("config validation failed: storage.dsn is required for postgres")
		}
		// migrations take the DSN as a URL
		if !isPostgresURL(s.DSN) {
			return fmt.Errorf("config validation failed: storage.dsn must be a postgres:// or postgresql:// URL")
		}
	case DriverSQLite:
		if s.DSN == "" {
			s.DSN = "questionnaire.db"
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config validation failed: invalid storage.driver %q; allowed: postgres, sqlite, memory", s.Driver)
	}
	s.Driver = driver

	schema := strings.ToLower(strings.TrimSpace(s.Schema))
	if schema == "" {
		schema = SchemaWide
	}
	if schema != SchemaWide && schema != SchemaNarrow {
		return fmt.Errorf("config validation failed: invalid storage.schema %q; allowed: wide, narrow", s.Schema)
	}
	s.Schema = schema

	if s.MaxConnections <= 0 {
		s.MaxConnections = 5
	}
	return nil
}

func isPostgresURL(dsn string) bool {
	dsn = strings.TrimSpace(dsn)
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
