package appconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/arenalab/promptarena/internal/evaluator"
)

// Config is the application configuration, resolved from defaults, an
// optional promptarena.yaml, environment variables and a .env file.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Session   SessionConfig     `mapstructure:"session"`
	Providers ProvidersConfig   `mapstructure:"providers"`
	Weights   evaluator.Weights `mapstructure:"weights"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

type ProvidersConfig struct {
	OpenAIKey        string `mapstructure:"openai_key"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"`
	AnthropicKey     string `mapstructure:"anthropic_key"`
	AnthropicBaseURL string `mapstructure:"anthropic_base_url"`
	GoogleKey        string `mapstructure:"google_key"`
	GoogleBaseURL    string `mapstructure:"google_base_url"`
	GroqKey          string `mapstructure:"groq_key"`
	GroqBaseURL      string `mapstructure:"groq_base_url"`
}

// Load resolves configuration. A missing config file is fine; defaults and
// environment cover everything.
func Load(configFile string) (*Config, error) {
	// .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("promptarena")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.promptarena")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "promptarena.db")
	v.SetDefault("session.timeout", 60*time.Second)
	v.SetDefault("session.max_attempts", 1)
	v.SetDefault("session.retry_delay", 500*time.Millisecond)

	w := evaluator.DefaultWeights()
	v.SetDefault("weights.relevance", w.Relevance)
	v.SetDefault("weights.hallucination", w.Hallucination)
	v.SetDefault("weights.clarity", w.Clarity)
	v.SetDefault("weights.coherence", w.Coherence)
	v.SetDefault("weights.bias", w.Bias)
}

// bindEnv maps the conventional provider key variables and PROMPTARENA_*
// overrides onto config keys.
func bindEnv(v *viper.Viper) {
	v.BindEnv("providers.openai_key", "OPENAI_API_KEY")
	v.BindEnv("providers.anthropic_key", "ANTHROPIC_API_KEY")
	v.BindEnv("providers.google_key", "GOOGLE_API_KEY")
	v.BindEnv("providers.groq_key", "GROQ_API_KEY")
	v.BindEnv("server.addr", "PROMPTARENA_ADDR")
	v.BindEnv("database.path", "PROMPTARENA_DB")
	v.BindEnv("session.timeout", "PROMPTARENA_SESSION_TIMEOUT")
}
