package config

import (
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"SlicerQC/internal/domain"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "SLICERQC_CONFIG"
	databaseDSNEnv     = "SLICERQC_DATABASE_DSN"
	logLevelEnv        = "SLICERQC_LOG_LEVEL"
	providerEnv        = "SLICERQC_EXTRACTION_PROVIDER"
	geminiAPIKeyEnv    = "GEMINI_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	slackTokenEnv      = "SLACK_BOT_TOKEN"
	slackChannelEnv    = "SLACK_CHANNEL_ID"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	smtpPasswordEnv    = "SMTP_PASSWORD"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Equipment     []string           `yaml:"equipment"`
	Extraction    ExtractionConfig   `yaml:"extraction"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Logging       LoggingConfig      `yaml:"logging"`
	Specs         []SpecConfig       `yaml:"specs"`
}

// DatabaseConfig selects the History backend. Driver "memory" keeps records
// only for the lifetime of the process.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ExtractionConfig picks the default provider and media-type routes.
type ExtractionConfig struct {
	Provider     string            `yaml:"provider"`
	Routes       map[string]string `yaml:"routes"`
	SystemPrompt string            `yaml:"systemPrompt"`
	Gemini       GeminiConfig      `yaml:"gemini"`
	Anthropic    AnthropicConfig   `yaml:"anthropic"`
	ChatGPT      ChatGPTConfig     `yaml:"chatgpt"`
	OCR          OCRConfig         `yaml:"ocr"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

type AnthropicConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseUrl"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// ChatGPTConfig defines how to contact an OpenAI-compatible API.
type ChatGPTConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

type OCRConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// NotificationConfig encapsulates outbound channels. A channel without
// credentials is disabled.
type NotificationConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

type SlackConfig struct {
	BotToken  string `yaml:"botToken"`
	ChannelID string `yaml:"channelId"`
	APIURL    string `yaml:"apiUrl"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// SchedulerConfig defines when shift summaries are posted.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SpecConfig is one tolerance row of a replacement specification table.
type SpecConfig struct {
	Variant    string  `yaml:"variant"`
	SolidRange string  `yaml:"solidRange"`
	Lower      float64 `yaml:"lower"`
	Upper      float64 `yaml:"upper"`
}

// SpecEntries converts the specs section; nil means the built-in table.
func (c Config) SpecEntries() ([]domain.SpecEntry, error) {
	if len(c.Specs) == 0 {
		return nil, nil
	}
	entries := make([]domain.SpecEntry, 0, len(c.Specs))
	for i, s := range c.Specs {
		v, err := domain.ParseVariant(s.Variant)
		if err != nil {
			return nil, fmt.Errorf("specs[%d]: %w", i, err)
		}
		entries = append(entries, domain.SpecEntry{
			Variant:    v,
			SolidRange: s.SolidRange,
			Lower:      s.Lower,
			Upper:      s.Upper,
		})
	}
	return entries, nil
}

// Load reads YAML configuration from SLICERQC_CONFIG (if set) and applies
// environment overrides.
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file.
func LoadFrom(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Equipment) == 0 {
		cfg.Equipment = defaultConfig().Equipment
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{databaseDSNEnv, &c.Database.DSN},
		{logLevelEnv, &c.Logging.Level},
		{providerEnv, &c.Extraction.Provider},
		{geminiAPIKeyEnv, &c.Extraction.Gemini.APIKey},
		{anthropicAPIKeyEnv, &c.Extraction.Anthropic.APIKey},
		{openAIAPIKeyEnv, &c.Extraction.ChatGPT.APIKey},
		{slackTokenEnv, &c.Notifications.Slack.BotToken},
		{slackChannelEnv, &c.Notifications.Slack.ChannelID},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{smtpPasswordEnv, &c.Notifications.Email.Password},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if len(override.Equipment) > 0 {
		base.Equipment = override.Equipment
	}

	base.Extraction = mergeExtraction(base.Extraction, override.Extraction)

	// notification channels are taken whole so a file can switch one on
	if override.Notifications.Slack != (SlackConfig{}) {
		base.Notifications.Slack = override.Notifications.Slack
	}
	if override.Notifications.Telegram != (TelegramConfig{}) {
		base.Notifications.Telegram = override.Notifications.Telegram
	}
	if override.Notifications.Email != (EmailConfig{}) {
		base.Notifications.Email = override.Notifications.Email
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Specs) > 0 {
		base.Specs = override.Specs
	}

	return base
}

func mergeExtraction(base, override ExtractionConfig) ExtractionConfig {
	if override.Provider != "" {
		base.Provider = override.Provider
	}
	if len(override.Routes) > 0 {
		routes := make(map[string]string, len(base.Routes)+len(override.Routes))
		for k, v := range base.Routes {
			routes[k] = v
		}
		for k, v := range override.Routes {
			routes[k] = v
		}
		base.Routes = routes
	}
	if override.SystemPrompt != "" {
		base.SystemPrompt = override.SystemPrompt
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.BaseURL != "" {
		base.Gemini.BaseURL = override.Gemini.BaseURL
	}

	if override.Anthropic.APIKey != "" {
		base.Anthropic.APIKey = override.Anthropic.APIKey
	}
	if override.Anthropic.Model != "" {
		base.Anthropic.Model = override.Anthropic.Model
	}
	if override.Anthropic.BaseURL != "" {
		base.Anthropic.BaseURL = override.Anthropic.BaseURL
	}
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}

	if override.OCR.Endpoint != "" {
		base.OCR.Endpoint = override.OCR.Endpoint
	}
	if override.OCR.APIKey != "" {
		base.OCR.APIKey = override.OCR.APIKey
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "slicerqc.db"},
		Equipment: []string{"Slicer 1", "Slicer 2", "Slicer 3"},
		Extraction: ExtractionConfig{
			Provider: "gemini",
			Routes:   map[string]string{"text/html": "html"},
			Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
			Anthropic: AnthropicConfig{
				Model:     "claude-sonnet-4-5-20250929",
				MaxTokens: 1024,
			},
			ChatGPT: ChatGPTConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
				Model:    "gpt-4o-mini",
			},
		},
		Notifications: NotificationConfig{
			Email: EmailConfig{Port: 587},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6,14,22 * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
	}
}
