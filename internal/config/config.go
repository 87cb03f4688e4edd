package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port              int           `yaml:"port"`
		Host              string        `yaml:"host"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"`
		GenerationTimeout time.Duration `yaml:"generation_timeout"`
		BodyLimit         string        `yaml:"body_limit"`
		AllowedOrigins    []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Supabase struct {
		URL     string        `yaml:"url"`
		AnonKey string        `yaml:"anon_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"supabase"`

	Database struct {
		URL             string        `yaml:"url"`
		MaxConns        int32         `yaml:"max_conns"`
		MinConns        int32         `yaml:"min_conns"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
		// Supabase's transaction pooler does not support prepared statements.
		SimpleProtocol bool `yaml:"simple_protocol"`
		EnsureSchema   bool `yaml:"ensure_schema"`
	} `yaml:"database"`

	Redis struct {
		URL            string        `yaml:"url"`
		Password       string        `yaml:"password"`
		DB             int           `yaml:"db"`
		Timeout        time.Duration `yaml:"timeout"`
		TokenTTL       time.Duration `yaml:"token_ttl"`
		IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
	} `yaml:"redis"`

	LLM struct {
		Provider     string        `yaml:"provider"`
		APIKey       string        `yaml:"api_key"`
		BaseURL      string        `yaml:"base_url"`
		Model        string        `yaml:"model"`
		MaxTokens    int           `yaml:"max_tokens"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryBackoff time.Duration `yaml:"retry_backoff"`
		Breaker      struct {
			MaxFailures  int           `yaml:"max_failures"`
			ResetTimeout time.Duration `yaml:"reset_timeout"`
		} `yaml:"breaker"`
	} `yaml:"llm"`

	RateLimit struct {
		Enabled           bool `yaml:"enabled"`
		RequestsPerMinute int  `yaml:"requests_per_minute"`
		Burst             int  `yaml:"burst"`
	} `yaml:"rate_limit"`

	Render struct {
		RendererURL string        `yaml:"renderer_url"`
		WorkDir     string        `yaml:"work_dir"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"render"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`

		Adapters []AdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`
}

// AdapterConfig describes one logging output
type AdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

var (
	bracedVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references, leaving unknown variables untouched
func expandEnvVars(s string) string {
	lookup := func(name, original string) string {
		if val := os.Getenv(name); val != "" {
			return val
		}
		return original
	}

	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[2:len(match)-1], match)
	})
	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		return lookup(match[1:], match)
	})
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	c := &Config{}

	c.Server.Port = 8080
	c.Server.Host = "0.0.0.0"
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 150 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.GenerationTimeout = 2 * time.Minute
	c.Server.BodyLimit = "1M"
	c.Server.AllowedOrigins = []string{"*"}

	c.Supabase.Timeout = 10 * time.Second

	c.Database.MaxConns = 10
	c.Database.MinConns = 2
	c.Database.MaxConnLifetime = time.Hour
	c.Database.SimpleProtocol = true

	c.Redis.URL = "redis://localhost:6379"
	c.Redis.Timeout = 5 * time.Second
	c.Redis.TokenTTL = 2 * time.Minute
	c.Redis.IdempotencyTTL = 24 * time.Hour

	c.LLM.Provider = "openai"
	c.LLM.Model = "gpt-4.1"
	c.LLM.MaxTokens = 1200
	c.LLM.Timeout = 60 * time.Second
	c.LLM.MaxRetries = 1
	c.LLM.RetryBackoff = 500 * time.Millisecond
	c.LLM.Breaker.MaxFailures = 5
	c.LLM.Breaker.ResetTimeout = 30 * time.Second

	c.RateLimit.Enabled = true
	c.RateLimit.RequestsPerMinute = 20
	c.RateLimit.Burst = 5

	c.Render.WorkDir = os.TempDir()
	c.Render.Timeout = 30 * time.Second

	c.Logging.Level = "info"
	c.Logging.Format = "json"

	return c
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setInt("PORT", &c.Server.Port)
	setString("HOST", &c.Server.Host)
	setDuration("GENERATION_TIMEOUT", &c.Server.GenerationTimeout)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	setString("SUPABASE_URL", &c.Supabase.URL)
	setString("NEXT_PUBLIC_SUPABASE_URL", &c.Supabase.URL)
	setString("SUPABASE_ANON_KEY", &c.Supabase.AnonKey)
	setString("NEXT_PUBLIC_SUPABASE_ANON_KEY", &c.Supabase.AnonKey)

	setString("DATABASE_URL", &c.Database.URL)
	if v := os.Getenv("DATABASE_ENSURE_SCHEMA"); v != "" {
		c.Database.EnsureSchema = v == "true" || v == "1"
	}

	setString("REDIS_URL", &c.Redis.URL)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setInt("REDIS_DB", &c.Redis.DB)
	setDuration("REDIS_TIMEOUT", &c.Redis.Timeout)

	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_MODEL", &c.LLM.Model)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)
	setInt("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	setInt("LLM_MAX_RETRIES", &c.LLM.MaxRetries)
	setDuration("LLM_TIMEOUT", &c.LLM.Timeout)
	// Provider-specific keys win over the generic one when both are set.
	setString("LLM_API_KEY", &c.LLM.APIKey)
	switch c.LLM.Provider {
	case "openai":
		setString("OPENAI_API_KEY", &c.LLM.APIKey)
	case "claude":
		setString("ANTHROPIC_API_KEY", &c.LLM.APIKey)
	}

	setString("PDF_RENDERER_URL", &c.Render.RendererURL)

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)
}

// Validate checks the settings the service cannot start without. A missing
// generation provider key is not fatal, see LLMConfigured.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Supabase.URL == "" {
		problems = append(problems, "supabase.url is required")
	}
	if c.Supabase.AnonKey == "" {
		problems = append(problems, "supabase.anon_key is required")
	}
	if c.Database.URL == "" {
		problems = append(problems, "database.url is required")
	}
	switch c.LLM.Provider {
	case "openai", "claude":
	default:
		problems = append(problems, fmt.Sprintf("unsupported llm.provider: %q", c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		problems = append(problems, "llm.max_tokens must be positive")
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 2 {
		problems = append(problems, "llm.max_retries must be between 0 and 2")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LLMConfigured reports whether a generation provider credential is present
func (c *Config) LLMConfigured() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
