package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the course assistant.
type Config struct {
	General     GeneralConfig     `mapstructure:"general"`
	Server      ServerConfig      `mapstructure:"server"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Translation TranslationConfig `mapstructure:"translation"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
	WebSearch   WebSearchConfig   `mapstructure:"web_search"`
	Storage     StorageConfig     `mapstructure:"storage"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig configures the Gemini collaborator. The same model serves answer
// generation and translation fallback, so the token ceiling is shared.
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.APIKey) == "" {
		return fmt.Errorf("llm.api_key required (GEMINI_API_KEY)")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	return nil
}

// TranslationConfig paces and bounds calls to the primary translation engine.
type TranslationConfig struct {
	Delay      time.Duration `mapstructure:"delay_between_requests"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// RetrievalConfig controls similarity search over the course index.
type RetrievalConfig struct {
	K                     int `mapstructure:"k"`
	ChunkSize             int `mapstructure:"chunk_size"`
	InsufficientDocsLimit int `mapstructure:"insufficient_docs_threshold"`
}

// WebSearchConfig configures the Google Custom Search collaborator and the
// escalation auto-trigger switches.
type WebSearchConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	APIKey      string            `mapstructure:"api_key"`
	EngineID    string            `mapstructure:"engine_id"`
	MaxResults  int               `mapstructure:"max_results"`
	SafeSearch  string            `mapstructure:"safe_search"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	AutoTrigger AutoTriggerConfig `mapstructure:"auto_trigger"`
}

// AutoTriggerConfig gates the configurable escalation rules. The location and
// vendor rules are always active while web search is enabled.
type AutoTriggerConfig struct {
	InsufficientDocs bool `mapstructure:"insufficient_docs"`
	GeneralQueries   bool `mapstructure:"general_queries"`
	LowConfidence    bool `mapstructure:"low_confidence"`
}

// StorageConfig locates the course CSV, the persisted vector index and the
// optional redis-backed chat history.
type StorageConfig struct {
	CoursesCSV  string        `mapstructure:"courses_csv"`
	IndexPath   string        `mapstructure:"index_path"`
	Redis       RedisConfig   `mapstructure:"redis"`
	HistoryTTL  time.Duration `mapstructure:"history_ttl"`
	MaxMessages int           `mapstructure:"max_messages"`
}

// RedisConfig contains redis connection settings. An empty Addr disables
// persisted history and falls back to the in-memory store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("llm.model", "gemini-2.5-flash")
	viper.SetDefault("llm.embedding_model", "text-embedding-004")
	viper.SetDefault("llm.temperature", 0.0)
	viper.SetDefault("llm.max_tokens", 512)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("llm.max_retries", 3)

	viper.SetDefault("translation.delay_between_requests", 100*time.Millisecond)
	viper.SetDefault("translation.timeout", 10*time.Second)
	viper.SetDefault("translation.max_retries", 3)

	viper.SetDefault("retrieval.k", 3)
	viper.SetDefault("retrieval.chunk_size", 200)
	viper.SetDefault("retrieval.insufficient_docs_threshold", 1)

	viper.SetDefault("web_search.enabled", true)
	viper.SetDefault("web_search.max_results", 3)
	viper.SetDefault("web_search.safe_search", "active")
	viper.SetDefault("web_search.timeout", 10*time.Second)
	viper.SetDefault("web_search.auto_trigger.insufficient_docs", true)
	viper.SetDefault("web_search.auto_trigger.general_queries", true)
	viper.SetDefault("web_search.auto_trigger.low_confidence", true)

	viper.SetDefault("storage.courses_csv", "data/bw_courses.csv")
	viper.SetDefault("storage.index_path", "data/courses.db")
	viper.SetDefault("storage.redis.addr", "")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.history_ttl", 24*time.Hour)
	viper.SetDefault("storage.max_messages", 50)
}

// LoadConfig reads configuration from an optional yaml file, environment
// variables (COURSEASSIST_*) and documented defaults, in that order of
// precedence. Secret credentials are also accepted from their conventional
// environment names.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("COURSEASSIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No file anywhere on the search path: defaults plus env only.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Conventional secret envs win over file-borne empty values.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.WebSearch.APIKey == "" {
		cfg.WebSearch.APIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if cfg.WebSearch.EngineID == "" {
		cfg.WebSearch.EngineID = os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	}
	if cfg.Storage.Redis.Addr == "" {
		cfg.Storage.Redis.Addr = os.Getenv("REDIS_ADDR")
	}
	if cfg.Storage.Redis.Password == "" {
		cfg.Storage.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}

	return &cfg, nil
}
