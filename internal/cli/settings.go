package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/casewatch/internal/model"
)

// configureEnv maps CASEWATCH_* variables onto config keys, so that
// CASEWATCH_LLM_MODEL overrides llm.model
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("CASEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
}

// registerDefaults makes every config key known to v so that AutomaticEnv
// applies to keys that are absent from the config file.
func registerDefaults(v *viper.Viper) {
	walkKeys(reflect.ValueOf(*model.DefaultConfig()), "", func(key string, val any) {
		v.SetDefault(key, val)
	})
}

func walkKeys(val reflect.Value, prefix string, fn func(key string, val any)) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			walkKeys(fv, key, fn)
			continue
		}
		fn(key, fv.Interface())
	}
}

// loadConfig merges defaults, the config file and the environment. Command
// flags are applied by the caller.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	applyEnvAliases(cfg, os.Getenv)
	return cfg, nil
}

// applyEnvAliases fills secrets from the conventional variable names when
// they were not set through CASEWATCH_* or the config file.
func applyEnvAliases(cfg *model.Config, getenv func(string) string) {
	if cfg.CourtListener.APIKey == "" {
		cfg.CourtListener.APIKey = getenv("COURTLISTENER_API_KEY")
	}

	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "anthropic", "claude":
			cfg.LLM.APIKey = firstEnv(getenv, "ANTHROPIC_API_KEY", "CLAUDE_API_KEY")
		case "openai":
			cfg.LLM.APIKey = getenv("OPENAI_API_KEY")
		case "gemini", "google":
			cfg.LLM.APIKey = firstEnv(getenv, "GEMINI_API_KEY", "GOOGLE_API_KEY")
		}
	}
	if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
	}

	if cfg.ObjectStore.AccessKey == "" {
		cfg.ObjectStore.AccessKey = getenv("MINIO_ACCESS_KEY")
	}
	if cfg.ObjectStore.SecretKey == "" {
		cfg.ObjectStore.SecretKey = getenv("MINIO_SECRET_KEY")
	}
}

func firstEnv(getenv func(string) string, names ...string) string {
	for _, n := range names {
		if v := getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// newLogger builds the process logger. --verbose forces a development
// logger at debug level.
func newLogger(cfg model.LogConfig, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	switch cfg.Format {
	case "json":
	case "console", "":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
		zcfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format: %s (supported: console, json)", cfg.Format)
	}
	return zcfg.Build()
}

// setup loads configuration and builds the logger for a command run
func setup() (*model.Config, *zap.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
