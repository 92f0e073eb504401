package config

import (
	"bytes"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	// DSN selects the Postgres store. When empty the in-memory store is
	// used, which loses all jobs on restart.
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	SubmitPerMinute int `yaml:"submitPerMinute"`
}

type RunnerConfig struct {
	PollIntervalMs  int `yaml:"pollIntervalMs"`
	MaxPollAttempts int `yaml:"maxPollAttempts"`
}

type JanitorConfig struct {
	Secret       string `yaml:"secret"`
	StaleMinutes int    `yaml:"staleMinutes"`
}

// JobTTLConfig controls retention of terminal jobs in days.
type JobTTLConfig struct {
	DefaultDays int `yaml:"defaultDays"`
	ImageDays   int `yaml:"imageDays"`
	VideoDays   int `yaml:"videoDays"`
}

// RetentionConfig controls deletion of old terminal jobs so that the
// database does not grow without bound over time.
type RetentionConfig struct {
	Enabled bool         `yaml:"enabled"`
	Jobs    JobTTLConfig `yaml:"jobs"`
}

type OpenAIConfig struct {
	APIKey         string `yaml:"apiKey"`
	BaseURL        string `yaml:"baseURL"`
	TimeoutMs      int    `yaml:"timeoutMs"`
	VideoTimeoutMs int    `yaml:"videoTimeoutMs"`
}

type GoogleConfig struct {
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseURL"`
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

type ProvidersConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Google GoogleConfig `yaml:"google"`
}

// MediaConfig controls where generated media is written and the public
// URL prefix it is served under.
type MediaConfig struct {
	Dir           string `yaml:"dir"`
	PublicBaseURL string `yaml:"publicBaseURL"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Runner    RunnerConfig    `yaml:"runner"`
	Janitor   JanitorConfig   `yaml:"janitor"`
	Retention RetentionConfig `yaml:"retention"`
	Providers ProvidersConfig `yaml:"providers"`
	Media     MediaConfig     `yaml:"media"`
}

func Load(path string) *Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}
	return cfg
}

// Parse decodes YAML config, expanding ${VAR} references from the
// environment so secrets can stay out of the file, and fills defaults.
func Parse(raw []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Runner.PollIntervalMs <= 0 {
		c.Runner.PollIntervalMs = 5000
	}
	if c.Runner.MaxPollAttempts <= 0 {
		c.Runner.MaxPollAttempts = 240
	}
	if c.Janitor.StaleMinutes <= 0 {
		c.Janitor.StaleMinutes = 20
	}
	if c.Providers.OpenAI.BaseURL == "" {
		c.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.Providers.OpenAI.TimeoutMs <= 0 {
		c.Providers.OpenAI.TimeoutMs = 120000
	}
	if c.Providers.OpenAI.VideoTimeoutMs <= 0 {
		c.Providers.OpenAI.VideoTimeoutMs = 60000
	}
	if c.Providers.Google.BaseURL == "" {
		c.Providers.Google.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Providers.Google.Model == "" {
		c.Providers.Google.Model = "gemini-2.5-flash-image"
	}
	if c.Providers.Google.TimeoutMs <= 0 {
		c.Providers.Google.TimeoutMs = 120000
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "data/media"
	}
	if c.Media.PublicBaseURL == "" {
		c.Media.PublicBaseURL = "/media"
	}
}
