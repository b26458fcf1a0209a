// Package config loads the service configuration and the static assistant
// data (FAQ, wizard step script, intent triggers). Defaults are embedded in
// the binary; every file can be replaced by a path.
package config

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sid-assistant/model"
)

var (
	//go:embed config.yaml
	defaultConfig []byte
	//go:embed faq.yaml
	defaultFAQ []byte
	//go:embed steps.yaml
	defaultSteps []byte
	//go:embed intents.yaml
	defaultIntents []byte
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Assistant AssistantConfig `yaml:"assistant"`
	Engine    EngineConfig    `yaml:"engine"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig selects the session store; an empty Addr means in-memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// AssistantConfig enables the OpenAI-backed assistant when APIKey is set.
type AssistantConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens" validate:"gte=0"`
}

type EngineConfig struct {
	MatchThreshold    float64 `yaml:"match_threshold" validate:"gt=0,lte=1"`
	ResponseThreshold float64 `yaml:"response_threshold" validate:"gt=0,lte=1"`
	FAQPath           string  `yaml:"faq_path"`
	StepsPath         string  `yaml:"steps_path"`
	IntentsPath       string  `yaml:"intents_path"`
}

// LoadEnv reads a .env file if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] no .env file loaded: %v", err)
	}
}

// Load reads the YAML config at path (the embedded default when path is
// empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data := defaultConfig
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		data = b
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}
	setString(&c.Assistant.APIKey, "OPENAI_API_KEY")
	setString(&c.Assistant.Model, "OPENAI_MODEL")
	setString(&c.Engine.FAQPath, "FAQ_PATH")
	setString(&c.Engine.StepsPath, "STEPS_PATH")
	setString(&c.Engine.IntentsPath, "INTENTS_PATH")
	return nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s' tag", e.Namespace(), e.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadKnowledgeBase reads the FAQ file, or the embedded default.
func LoadKnowledgeBase(path string) (*model.KnowledgeBase, error) {
	var kb model.KnowledgeBase
	if err := loadYAML(path, defaultFAQ, &kb); err != nil {
		return nil, err
	}
	return &kb, nil
}

// LoadStepTable reads the wizard step script, or the embedded default.
func LoadStepTable(path string) (*model.StepTable, error) {
	var t model.StepTable
	if err := loadYAML(path, defaultSteps, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadIntentConfig reads the intent triggers, or the embedded default.
func LoadIntentConfig(path string) (*model.IntentConfig, error) {
	var c model.IntentConfig
	if err := loadYAML(path, defaultIntents, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadYAML(path string, def []byte, out any) error {
	data := def
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
		data = b
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("解析配置文件失败 %s: %w", path, err)
	}
	return nil
}
