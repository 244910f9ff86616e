package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	LLMProvider    string  // Provider identifier: openrouter, deepseek, openai, siliconflow, dashscope, zai, ollama
	LLMAPIKey      string  // Bearer token for the completion service
	LLMBaseURL     string  // Optional, has default per provider
	LLMModel       string  // Model name: deepseek/deepseek-chat, gpt-4o, etc.
	LLMTimeout     int     // LLM request timeout in seconds (default: 60)
	LLMMaxTokens   int     // default: 1000
	LLMTemperature float32 // default: 0.1
	LLMReferer     string  // HTTP-Referer attribution header (OpenRouter)
	LLMTitle       string  // X-Title attribution header (OpenRouter)

	// SQL agent configuration
	AgentDSN       string // Read-only credential for agent-generated SQL; falls back to DSN
	AgentMaxRounds int    // Reasoning rounds before giving up (default: 5)
	AgentMaxRows   int    // Row cap for agent result sets (default: 100)
	AgentMode      string // fallback, prefer, off

	// Document store configuration
	MongoURI      string
	MongoDatabase string

	// Server configuration
	JWTSecret        string
	CORSOrigins      []string
	QueryConcurrency int     // Max in-flight query orchestrations
	QueryRateLimit   float64 // Requests per second per client on the query endpoint

	Mode     string
	Addr     string
	Port     int
	Data     string
	Driver   string
	DSN      string
	Version  string
	LogLevel string
}

// Provider default configurations for LLM.
// Used when WEALTHSENSE_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

// DefaultCORSOrigins are the local frontend origins allowed when none are configured.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
	"http://localhost:3002",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:3001",
	"http://127.0.0.1:3002",
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
// Local providers (ollama) do not need a key.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// FromEnv loads AI and integration configuration from environment variables.
// Values already set (for example by flags) are kept.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("WEALTHSENSE_AI_LLM_PROVIDER", "openrouter")
	p.LLMAPIKey = getEnvOrDefault("WEALTHSENSE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("WEALTHSENSE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("WEALTHSENSE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("WEALTHSENSE_AI_LLM_TIMEOUT_SECONDS", 60)
	p.LLMMaxTokens = getEnvOrDefaultInt("WEALTHSENSE_AI_LLM_MAX_TOKENS", 1000)
	p.LLMTemperature = float32(getEnvOrDefaultFloat("WEALTHSENSE_AI_LLM_TEMPERATURE", 0.1))
	p.LLMReferer = getEnvOrDefault("WEALTHSENSE_AI_LLM_REFERER", "http://localhost:3000")
	p.LLMTitle = getEnvOrDefault("WEALTHSENSE_AI_LLM_TITLE", "Wealth Portfolio Manager")

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openrouter", "provider", p.LLMProvider)
		p.LLMProvider = "openrouter"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	if p.AgentMaxRounds <= 0 {
		p.AgentMaxRounds = getEnvOrDefaultInt("WEALTHSENSE_AGENT_MAX_ROUNDS", 5)
	}
	if p.AgentMaxRows <= 0 {
		p.AgentMaxRows = getEnvOrDefaultInt("WEALTHSENSE_AGENT_MAX_ROWS", 100)
	}
	if p.AgentMode == "" {
		p.AgentMode = getEnvOrDefault("WEALTHSENSE_AGENT_MODE", "fallback")
	}
	if p.MongoURI == "" {
		p.MongoURI = getEnvOrDefault("WEALTHSENSE_MONGO_URI", "")
	}
	if p.MongoDatabase == "" {
		p.MongoDatabase = getEnvOrDefault("WEALTHSENSE_MONGO_DATABASE", "Valuefydb")
	}
	if p.JWTSecret == "" {
		p.JWTSecret = getEnvOrDefault("WEALTHSENSE_JWT_SECRET", "")
	}
	if p.QueryConcurrency <= 0 {
		p.QueryConcurrency = getEnvOrDefaultInt("WEALTHSENSE_QUERY_CONCURRENCY", 8)
	}
	if p.QueryRateLimit <= 0 {
		p.QueryRateLimit = getEnvOrDefaultFloat("WEALTHSENSE_QUERY_RATE_LIMIT", 5)
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	switch p.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return errors.Errorf("unsupported driver %q (want mysql, postgres or sqlite)", p.Driver)
	}

	switch p.AgentMode {
	case "fallback", "prefer", "off":
	case "":
		p.AgentMode = "fallback"
	default:
		return errors.Errorf("unsupported agent mode %q (want fallback, prefer or off)", p.AgentMode)
	}

	if p.Mode == "prod" && p.JWTSecret == "" {
		return errors.New("jwt secret is required in prod mode")
	}

	if p.Driver == "sqlite" {
		if p.Mode == "prod" && p.Data == "" {
			if runtime.GOOS == "windows" {
				p.Data = filepath.Join(os.Getenv("ProgramData"), "wealthsense")
				if _, err := os.Stat(p.Data); os.IsNotExist(err) {
					if err := os.MkdirAll(p.Data, 0770); err != nil {
						slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
						return err
					}
				}
			} else {
				p.Data = "/var/opt/wealthsense"
			}
		}
		if p.DSN == "" {
			dataDir, err := checkDataDir(p.Data)
			if err != nil {
				slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
			p.Data = dataDir
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("wealthsense_%s.db", p.Mode))
		}
	}

	if p.DSN == "" {
		return errors.Errorf("dsn required for driver %s", p.Driver)
	}
	if p.AgentDSN == "" {
		p.AgentDSN = p.DSN
	}
	if len(p.CORSOrigins) == 0 {
		p.CORSOrigins = DefaultCORSOrigins
	}

	return nil
}
