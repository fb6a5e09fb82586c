package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionTime        string `yaml:"question_time"`
		ContinuationTime    string `yaml:"continuation_time"`
		RevealTime          string `yaml:"reveal_time"`
		TickInterval        string `yaml:"tick_interval"`
		QuestionsPerSession int    `yaml:"questions_per_session"`
		RerollAllowance     int    `yaml:"reroll_allowance"`
		ResetAt             string `yaml:"reset_at"`
		Timezone            string `yaml:"timezone"`
	} `yaml:"quiz"`
	Providers []Provider `yaml:"providers"`
	Supply    struct {
		PoliteDelay string `yaml:"polite_delay"`
	} `yaml:"supply"`
	Cache struct {
		CompletionTTL  string `yaml:"completion_ttl"`
		SessionTTL     string `yaml:"session_ttl"`
		SetTTL         string `yaml:"set_ttl"`
		RecentTTL      string `yaml:"recent_ttl"`
		ResetMarkerTTL string `yaml:"reset_marker_ttl"`
	} `yaml:"cache"`
}

type Provider struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Shape   string `yaml:"shape"`
	Timeout string `yaml:"timeout"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty
// or malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ResetAt returns the configured daily reset time-of-day, defaulted.
func (c Config) ResetAt() string {
	if c.Quiz.ResetAt == "" {
		return "09:00"
	}
	return c.Quiz.ResetAt
}

// Timezone returns the configured reference timezone, defaulted.
func (c Config) Timezone() string {
	if c.Quiz.Timezone == "" {
		return "America/New_York"
	}
	return c.Quiz.Timezone
}
