// Package config handles reading and writing ~/.intervue/config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrIdentityNotConfigured is returned when the identity service URL or key is missing.
var ErrIdentityNotConfigured = errors.New(
	"identity service is not configured: set identity.url and identity.anon_key " +
		"(or PUBLIC_SUPABASE_URL and PUBLIC_SUPABASE_ANON_KEY)",
)

// Experience levels accepted by the interview API.
const (
	LevelFresher     = "Fresher"
	LevelExperienced = "Experienced"
)

// Database backends.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version   int             `yaml:"version"`
	API       APIConfig       `yaml:"api"`
	Identity  IdentityConfig  `yaml:"identity"`
	Database  DatabaseConfig  `yaml:"database"`
	Interview InterviewConfig `yaml:"interview"`
	Speech    SpeechConfig    `yaml:"speech"`
}

// APIConfig points at the remote interview API.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// IdentityConfig holds the managed identity/database service credentials.
type IdentityConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// DatabaseConfig selects where session records are read from and written to.
type DatabaseConfig struct {
	Backend       string `yaml:"backend"` // "rest" | "postgres"
	URL           string `yaml:"url"`     // postgres DSN, only for the postgres backend
	SessionsTable string `yaml:"sessions_table"`
	TeamTable     string `yaml:"team_table"`
}

// InterviewConfig holds the topic catalog and session defaults.
type InterviewConfig struct {
	DurationLabel string   `yaml:"duration_label"`
	DefaultLevel  string   `yaml:"default_level"`
	Levels        []string `yaml:"levels"`
	Domains       []Domain `yaml:"domains"`
}

// Domain groups interview topics under a subject area.
type Domain struct {
	ID     string   `yaml:"id"`
	Name   string   `yaml:"name"`
	Topics []string `yaml:"topics"`
}

// SpeechConfig controls the optional speech engines.
type SpeechConfig struct {
	Muted            bool            `yaml:"muted"`
	Persona          string          `yaml:"persona"`
	CaptureLocale    string          `yaml:"capture_locale"`
	SynthCommand     string          `yaml:"synth_command"`     // empty = auto-detect
	RecognizeCommand string          `yaml:"recognize_command"` // empty = capture disabled
	Personas         []PersonaConfig `yaml:"personas"`
}

// PersonaConfig is a named voice configuration.
type PersonaConfig struct {
	ID    string  `yaml:"id"`
	Name  string  `yaml:"name"`
	Lang  string  `yaml:"lang"`
	Voice string  `yaml:"voice,omitempty"`
	Pitch float64 `yaml:"pitch"`
	Rate  float64 `yaml:"rate"`
}

// envOverrides are applied on top of the file. Both the plain and the
// PUBLIC_-prefixed identity variable names are honoured.
type envOverrides struct {
	APIURL            string `env:"INTERVUE_API_URL"`
	SupabaseURL       string `env:"SUPABASE_URL"`
	PublicSupabaseURL string `env:"PUBLIC_SUPABASE_URL"`
	SupabaseKey       string `env:"SUPABASE_ANON_KEY"`
	PublicSupabaseKey string `env:"PUBLIC_SUPABASE_ANON_KEY"`
	DatabaseURL       string `env:"INTERVUE_DATABASE_URL"`
}

const configFile = "config.yaml"

// Home returns the directory holding config, logs and the credential store.
// INTERVUE_HOME wins over the default ~/.intervue.
func Home() (string, error) {
	if dir := os.Getenv("INTERVUE_HOME"); dir != "" {
		return dir, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(userHome, ".intervue"), nil
}

// ReadConfig reads config.yaml from dir.
// Returns an error wrapping os.ErrNotExist if the file is missing.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// WriteConfig writes cfg to config.yaml in dir, creating dir if needed.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Load reads config.yaml from dir (falling back to defaults when it does not
// exist), loads .env files from the working directory and dir, then applies
// environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := ReadConfig(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = DefaultConfig()
	}

	for _, envFile := range []string{".env", filepath.Join(dir, ".env")} {
		if _, statErr := os.Stat(envFile); statErr != nil {
			continue
		}
		if loadErr := godotenv.Load(envFile); loadErr != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, loadErr)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if o.APIURL != "" {
		c.API.BaseURL = o.APIURL
	}
	if v := firstNonEmpty(o.SupabaseURL, o.PublicSupabaseURL); v != "" {
		c.Identity.URL = v
	}
	if v := firstNonEmpty(o.SupabaseKey, o.PublicSupabaseKey); v != "" {
		c.Identity.AnonKey = v
	}
	if o.DatabaseURL != "" {
		c.Database.URL = o.DatabaseURL
		c.Database.Backend = BackendPostgres
	}
	return nil
}

// fillDefaults backfills sections missing from older config files.
func (c *Config) fillDefaults() {
	d := DefaultConfig()
	if c.Version == 0 {
		c.Version = d.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.Identity.URL = strings.TrimRight(c.Identity.URL, "/")
	if c.Database.Backend == "" {
		c.Database.Backend = d.Database.Backend
	}
	if c.Database.SessionsTable == "" {
		c.Database.SessionsTable = d.Database.SessionsTable
	}
	if c.Database.TeamTable == "" {
		c.Database.TeamTable = d.Database.TeamTable
	}
	if c.Interview.DurationLabel == "" {
		c.Interview.DurationLabel = d.Interview.DurationLabel
	}
	if c.Interview.DefaultLevel == "" {
		c.Interview.DefaultLevel = d.Interview.DefaultLevel
	}
	if len(c.Interview.Levels) == 0 {
		c.Interview.Levels = d.Interview.Levels
	}
	if len(c.Interview.Domains) == 0 {
		c.Interview.Domains = d.Interview.Domains
	}
	if c.Speech.Persona == "" {
		c.Speech.Persona = d.Speech.Persona
	}
	if c.Speech.CaptureLocale == "" {
		c.Speech.CaptureLocale = d.Speech.CaptureLocale
	}
	if len(c.Speech.Personas) == 0 {
		c.Speech.Personas = d.Speech.Personas
	}
}

// Validate reports configuration errors that block signing in.
func (c *Config) Validate() error {
	if !c.Identity.Configured() {
		return ErrIdentityNotConfigured
	}
	if c.Database.Backend == BackendPostgres && c.Database.URL == "" {
		return errors.New("database.backend is postgres but database.url is empty")
	}
	return nil
}

// Configured reports whether both the URL and anon key are set.
func (i IdentityConfig) Configured() bool {
	return i.URL != "" && i.AnonKey != ""
}

// Domain looks up a domain by ID.
func (i InterviewConfig) Domain(id string) (Domain, bool) {
	for _, d := range i.Domains {
		if d.ID == id {
			return d, true
		}
	}
	return Domain{}, false
}

// DomainForTopic returns the first domain listing topic.
func (i InterviewConfig) DomainForTopic(topic string) (Domain, bool) {
	for _, d := range i.Domains {
		for _, t := range d.Topics {
			if strings.EqualFold(t, topic) {
				return d, true
			}
		}
	}
	return Domain{}, false
}

// ValidLevel reports whether level is one of the configured experience levels.
func (i InterviewConfig) ValidLevel(level string) bool {
	for _, l := range i.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Database: DatabaseConfig{
			Backend:       BackendREST,
			SessionsTable: "interview_sessions",
			TeamTable:     "team_members",
		},
		Interview: InterviewConfig{
			DurationLabel: "15 min",
			DefaultLevel:  LevelFresher,
			Levels:        []string{LevelFresher, LevelExperienced},
			Domains: []Domain{
				{
					ID:   "cs",
					Name: "Computer Science",
					Topics: []string{
						"Data Structures & Algo", "DBMS", "Operating Systems",
						"OOPs", "Computer Networks", "System Design",
					},
				},
				{
					ID:   "ece",
					Name: "Electronics (ECE)",
					Topics: []string{
						"Digital Electronics", "Microprocessors", "Embedded Systems",
						"Robotics", "VLSI Design", "Signals & Systems",
					},
				},
				{
					ID:   "ai",
					Name: "AI & Data Science",
					Topics: []string{
						"Machine Learning", "Deep Learning", "NLP",
						"Computer Vision", "Data Science", "Generative AI",
					},
				},
			},
		},
		Speech: SpeechConfig{
			Persona:       "male_us",
			CaptureLocale: "en-US",
			Personas: []PersonaConfig{
				{ID: "male_us", Name: "Ethan (Tech Lead - US)", Lang: "en-US", Pitch: 0.9, Rate: 1.0},
				{ID: "female_us", Name: "Ava (HR Manager - US)", Lang: "en-US", Pitch: 1.1, Rate: 1.0},
				{ID: "male_in", Name: "Zoya (Senior Dev - IN)", Lang: "en-IN", Pitch: 1.0, Rate: 1.05},
			},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
