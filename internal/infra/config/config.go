// Package config provides application-wide configuration.
// Values are layered: built-in defaults, then an optional YAML file, then a .env
// file, then process environment. All fields have safe defaults so the binary runs
// locally against Ollama without any setup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Chat modes.
const (
	ModeAgent  = "agent"
	ModeRouter = "router"
)

// LLM providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// MCP transports.
const (
	TransportStreamable = "streamable"
	TransportSSE        = "sse"
	TransportCommand    = "command"
	TransportNone       = "none"
)

// Config holds runtime configuration for splunkchat.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	CORS       CORSConfig       `yaml:"cors"`
	LLM        LLMConfig        `yaml:"llm"`
	MCP        MCPConfig        `yaml:"mcp"`
	Chat       ChatConfig       `yaml:"chat"`
	ToolServer ToolServerConfig `yaml:"tool_server"`
	Audit      AuditConfig      `yaml:"audit"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the public chat listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`          // HTTP_HOST
	Port         int           `yaml:"port"`          // HTTP_PORT
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // HTTP_READ_TIMEOUT
	WriteTimeout time.Duration `yaml:"write_timeout"` // HTTP_WRITE_TIMEOUT
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // HTTP_IDLE_TIMEOUT
}

// CORSConfig names the single origin allowed to call /chat from a browser.
type CORSConfig struct {
	AllowedOrigin string `yaml:"allowed_origin"` // CORS_ALLOWED_ORIGIN
}

// LLMConfig selects and tunes the chat model.
type LLMConfig struct {
	Provider      string        `yaml:"provider"`        // LLM_PROVIDER
	Model         string        `yaml:"model"`           // LLM_MODEL
	BaseURL       string        `yaml:"base_url"`        // LLM_BASE_URL
	APIKey        string        `yaml:"api_key"`         // LLM_API_KEY, falls back to OPENAI_API_KEY
	Temperature   float32       `yaml:"temperature"`     // LLM_TEMPERATURE
	MaxTokens     int           `yaml:"max_tokens"`      // LLM_MAX_TOKENS
	MaxToolRounds int           `yaml:"max_tool_rounds"` // LLM_MAX_TOOL_ROUNDS
	Timeout       time.Duration `yaml:"timeout"`         // LLM_TIMEOUT
}

// MCPConfig describes how to reach the MCP tool server.
type MCPConfig struct {
	Transport string   `yaml:"transport"` // MCP_TRANSPORT
	Endpoint  string   `yaml:"endpoint"`  // MCP_ENDPOINT
	Command   string   `yaml:"command"`   // MCP_COMMAND
	Args      []string `yaml:"args"`
}

// ChatConfig selects how /chat answers. Timeout bounds one whole answer, all
// model rounds and tool calls included, and must stay below the server's write
// timeout so the caller always gets a response.
type ChatConfig struct {
	Mode    string        `yaml:"mode"`    // CHAT_MODE
	Timeout time.Duration `yaml:"timeout"` // CHAT_TIMEOUT
}

// ToolServerConfig is the REST base URL used by router mode.
type ToolServerConfig struct {
	BaseURL string        `yaml:"base_url"` // TOOL_SERVER_URL
	Timeout time.Duration `yaml:"timeout"`  // TOOL_SERVER_TIMEOUT
}

// AuditConfig enables the SQLite audit trail when DBPath is set.
type AuditConfig struct {
	DBPath string `yaml:"db_path"` // AUDIT_DB_PATH
}

// MetricsConfig enables the ops listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // METRICS_ADDR
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // LOG_LEVEL
	Format string `yaml:"format"` // LOG_FORMAT
}

const (
	envKeyConfigFile        = "SPLUNKCHAT_CONFIG"
	envKeyHTTPHost          = "HTTP_HOST"
	envKeyHTTPPort          = "HTTP_PORT"
	envKeyHTTPReadTimeout   = "HTTP_READ_TIMEOUT"
	envKeyHTTPWriteTimeout  = "HTTP_WRITE_TIMEOUT"
	envKeyHTTPIdleTimeout   = "HTTP_IDLE_TIMEOUT"
	envKeyCORSOrigin        = "CORS_ALLOWED_ORIGIN"
	envKeyLLMProvider       = "LLM_PROVIDER"
	envKeyLLMModel          = "LLM_MODEL"
	envKeyLLMBaseURL        = "LLM_BASE_URL"
	envKeyLLMAPIKey         = "LLM_API_KEY"
	envKeyOpenAIAPIKey      = "OPENAI_API_KEY"
	envKeyLLMTemperature    = "LLM_TEMPERATURE"
	envKeyLLMMaxTokens      = "LLM_MAX_TOKENS"
	envKeyLLMMaxToolRounds  = "LLM_MAX_TOOL_ROUNDS"
	envKeyLLMTimeout        = "LLM_TIMEOUT"
	envKeyMCPTransport      = "MCP_TRANSPORT"
	envKeyMCPEndpoint       = "MCP_ENDPOINT"
	envKeyMCPCommand        = "MCP_COMMAND"
	envKeyChatMode          = "CHAT_MODE"
	envKeyChatTimeout       = "CHAT_TIMEOUT"
	envKeyToolServerURL     = "TOOL_SERVER_URL"
	envKeyToolServerTimeout = "TOOL_SERVER_TIMEOUT"
	envKeyAuditDBPath       = "AUDIT_DB_PATH"
	envKeyMetricsAddr       = "METRICS_ADDR"
	envKeyLogLevel          = "LOG_LEVEL"
	envKeyLogFormat         = "LOG_FORMAT"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8081,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		CORS: CORSConfig{AllowedOrigin: "http://localhost:3000"},
		LLM: LLMConfig{
			Provider:      ProviderOllama,
			Temperature:   0.2,
			MaxToolRounds: 8,
			Timeout:       2 * time.Minute,
		},
		MCP: MCPConfig{
			Transport: TransportStreamable,
			Endpoint:  "http://localhost:8080/mcp",
		},
		Chat:       ChatConfig{Mode: ModeAgent, Timeout: 4*time.Minute + 30*time.Second},
		ToolServer: ToolServerConfig{BaseURL: "http://localhost:8080/mcp", Timeout: 30 * time.Second},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path may be empty, in which case SPLUNKCHAT_CONFIG
// is consulted; a missing .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envKeyConfigFile)
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// .env only fills variables that are not already set in the environment.
	_ = godotenv.Load() //nolint:errcheck

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyProviderDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.Host = envOr(envKeyHTTPHost, cfg.Server.Host)
	cfg.CORS.AllowedOrigin = envOr(envKeyCORSOrigin, cfg.CORS.AllowedOrigin)
	cfg.LLM.Provider = envOr(envKeyLLMProvider, cfg.LLM.Provider)
	cfg.LLM.Model = envOr(envKeyLLMModel, cfg.LLM.Model)
	cfg.LLM.BaseURL = envOr(envKeyLLMBaseURL, cfg.LLM.BaseURL)
	cfg.LLM.APIKey = envOr(envKeyLLMAPIKey, envOr(envKeyOpenAIAPIKey, cfg.LLM.APIKey))
	cfg.MCP.Transport = envOr(envKeyMCPTransport, cfg.MCP.Transport)
	cfg.MCP.Endpoint = envOr(envKeyMCPEndpoint, cfg.MCP.Endpoint)
	cfg.MCP.Command = envOr(envKeyMCPCommand, cfg.MCP.Command)
	cfg.Chat.Mode = envOr(envKeyChatMode, cfg.Chat.Mode)
	cfg.ToolServer.BaseURL = envOr(envKeyToolServerURL, cfg.ToolServer.BaseURL)
	cfg.Audit.DBPath = envOr(envKeyAuditDBPath, cfg.Audit.DBPath)
	cfg.Metrics.Addr = envOr(envKeyMetricsAddr, cfg.Metrics.Addr)
	cfg.Log.Level = envOr(envKeyLogLevel, cfg.Log.Level)
	cfg.Log.Format = envOr(envKeyLogFormat, cfg.Log.Format)

	var err error
	if cfg.Server.Port, err = envInt(envKeyHTTPPort, cfg.Server.Port); err != nil {
		return err
	}
	if cfg.LLM.MaxTokens, err = envInt(envKeyLLMMaxTokens, cfg.LLM.MaxTokens); err != nil {
		return err
	}
	if cfg.LLM.MaxToolRounds, err = envInt(envKeyLLMMaxToolRounds, cfg.LLM.MaxToolRounds); err != nil {
		return err
	}
	if cfg.LLM.Temperature, err = envFloat32(envKeyLLMTemperature, cfg.LLM.Temperature); err != nil {
		return err
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{envKeyHTTPReadTimeout, &cfg.Server.ReadTimeout},
		{envKeyHTTPWriteTimeout, &cfg.Server.WriteTimeout},
		{envKeyHTTPIdleTimeout, &cfg.Server.IdleTimeout},
		{envKeyLLMTimeout, &cfg.LLM.Timeout},
		{envKeyChatTimeout, &cfg.Chat.Timeout},
		{envKeyToolServerTimeout, &cfg.ToolServer.Timeout},
	}
	for _, d := range durations {
		if *d.dst, err = envDuration(d.key, *d.dst); err != nil {
			return err
		}
	}
	return nil
}

// Provider-specific defaults, applied only when model or base URL is unset.
const (
	defaultOllamaModel   = "llama3.2:3b"
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// applyProviderDefaults fills model and base URL for the selected provider.
// OpenAI keeps an empty base URL so the SDK default endpoint is used.
func (c *Config) applyProviderDefaults() {
	switch c.LLM.Provider {
	case ProviderOllama:
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOllamaModel
		}
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = defaultOllamaBaseURL
		}
	case ProviderOpenAI:
		if c.LLM.Model == "" {
			c.LLM.Model = defaultOpenAIModel
		}
	}
}

// Validate checks enumerations and numeric bounds.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	switch c.MCP.Transport {
	case TransportStreamable, TransportSSE:
		if c.MCP.Endpoint == "" {
			return fmt.Errorf("%w: mcp.endpoint is required for transport %q", ErrInvalidConfig, c.MCP.Transport)
		}
	case TransportCommand:
		if c.MCP.Command == "" {
			return fmt.Errorf("%w: mcp.command is required for transport %q", ErrInvalidConfig, c.MCP.Transport)
		}
	case TransportNone:
	default:
		return fmt.Errorf("%w: unknown mcp.transport %q", ErrInvalidConfig, c.MCP.Transport)
	}
	switch c.Chat.Mode {
	case ModeAgent, ModeRouter:
	default:
		return fmt.Errorf("%w: unknown chat.mode %q", ErrInvalidConfig, c.Chat.Mode)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Chat.Timeout <= 0 {
		return fmt.Errorf("%w: chat.timeout must be positive", ErrInvalidConfig)
	}
	if c.Server.WriteTimeout > 0 && c.Chat.Timeout >= c.Server.WriteTimeout {
		return fmt.Errorf("%w: chat.timeout %s must be below server.write_timeout %s",
			ErrInvalidConfig, c.Chat.Timeout, c.Server.WriteTimeout)
	}
	if c.LLM.MaxToolRounds <= 0 {
		return fmt.Errorf("%w: llm.max_tool_rounds must be positive", ErrInvalidConfig)
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func envFloat32(key string, fallback float32) (float32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
	}
	return float32(f), nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, v)
	}
	return d, nil
}
