// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values
// Validate config

package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-cvassist-client/internal/storage"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	APIBaseURL     string        `yaml:"api_base_url" env:"CVASSIST_API_URL"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"CVASSIST_REQUEST_TIMEOUT"`
	//Processing poller
	PollInterval time.Duration `yaml:"poll_interval" env:"CVASSIST_POLL_INTERVAL"`
	PollTimeout  time.Duration `yaml:"poll_timeout" env:"CVASSIST_POLL_TIMEOUT"`

	Session Session `yaml:"session"`

	//Optional delivery
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
	//Paths
	CookiesPath     string `yaml:"cookies_path" env:"CVASSIST_COOKIES_PATH"`
	PDFTemplatePath string `yaml:"pdf_template_path"`
	OutputDir       string `yaml:"output_dir" env:"CVASSIST_OUTPUT_DIR"`
}

type Session struct {
	Backend string `yaml:"backend" env:"CVASSIST_SESSION_BACKEND"`
	Path    string `yaml:"path" env:"CVASSIST_SESSION_PATH"`
}

// Load reads path (DefaultPath when empty). A missing file is not an error;
// defaults and env vars still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	//Load yaml config
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("⚠️ Config file %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIBaseURL, "CVASSIST_API_URL")
	setString(&c.Session.Backend, "CVASSIST_SESSION_BACKEND")
	setString(&c.Session.Path, "CVASSIST_SESSION_PATH")
	setString(&c.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.CookiesPath, "CVASSIST_COOKIES_PATH")
	setString(&c.OutputDir, "CVASSIST_OUTPUT_DIR")

	for env, dst := range map[string]*time.Duration{
		"CVASSIST_REQUEST_TIMEOUT": &c.RequestTimeout,
		"CVASSIST_POLL_INTERVAL":   &c.PollInterval,
		"CVASSIST_POLL_TIMEOUT":    &c.PollTimeout,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
		*dst = d
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "http://localhost:8000"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 2 * time.Minute
	}
	if c.Session.Backend == "" {
		c.Session.Backend = storage.BackendFile
	}
	if c.Session.Path == "" {
		name := "session.json"
		if c.Session.Backend == storage.BackendSQLite {
			name = "session.db"
		}
		c.Session.Path = filepath.Join(stateDir(), name)
	}
	if c.CookiesPath == "" {
		c.CookiesPath = filepath.Join(stateDir(), "cookies")
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
}

func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cvassist"
	}
	return filepath.Join(home, ".cvassist")
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an http(s) URL, got %q", c.APIBaseURL)
	}
	if c.RequestTimeout < 0 || c.PollInterval < 0 || c.PollTimeout < 0 {
		return errors.New("timeouts and intervals must be positive")
	}
	if c.PollInterval > c.PollTimeout {
		return fmt.Errorf("poll_interval %s exceeds poll_timeout %s", c.PollInterval, c.PollTimeout)
	}
	switch c.Session.Backend {
	case storage.BackendFile, storage.BackendSQLite:
	default:
		return fmt.Errorf("session.backend must be %q or %q, got %q", storage.BackendFile, storage.BackendSQLite, c.Session.Backend)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

// TelegramEnabled reports whether results should also be sent to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
