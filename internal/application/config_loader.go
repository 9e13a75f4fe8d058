package application

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// EnvLookup resolves a variable name to its value.
type EnvLookup func(key string) (string, bool)

// MapEnv returns an EnvLookup backed by m.
func MapEnv(m map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// DotenvLookup returns an EnvLookup that prefers the process environment
// and falls back to the given dotenv files (".env" when none are given).
// Missing files are ignored. The process environment is never modified.
func DotenvLookup(files ...string) EnvLookup {
	fileVars, err := godotenv.Read(files...)
	if err != nil {
		fileVars = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}
}

// ConfigLoader parses, defaults, resolves and validates configuration.
type ConfigLoader struct {
	validator *validator.Validate
	env       EnvLookup
}

// NewConfigLoader creates a loader that resolves credentials through env.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader(env EnvLookup) (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if env == nil {
		env = DotenvLookup()
	}
	return &ConfigLoader{validator: v, env: env}, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path yields
// DefaultConfig with credentials resolved.
func (cl *ConfigLoader) LoadFromFile(path string) (Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		return cl.finish(cfg)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, ports.NewConfigError(path, ports.ErrConfigNotFound)
		}
		return Config{}, ports.NewConfigError(path, err)
	}
	return cl.load(data)
}

// LoadFromReader loads configuration from r.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return cl.load(data)
}

func (cl *ConfigLoader) load(data []byte) (Config, error) {
	cfg, err := parseConfigYAML(data)
	if err != nil {
		return Config{}, ports.NewConfigError("yaml", err)
	}
	applyDefaults(&cfg)
	return cl.finish(cfg)
}

func (cl *ConfigLoader) finish(cfg Config) (Config, error) {
	cl.resolveSecrets(&cfg)
	if err := cl.validator.Struct(cfg); err != nil {
		return Config{}, ports.NewConfigError("struct", err)
	}
	return cfg, nil
}

// parseConfigYAML decodes strictly so misspelled keys fail loudly.
func parseConfigYAML(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("YAML decode failed: %w", err)
	}
	return cfg, nil
}

func (cl *ConfigLoader) resolveSecrets(cfg *Config) {
	cfg.LLM.APIKey = cl.lookup(cfg.LLM.APIKeyEnv)
	cfg.Embedder.APIKey = cl.lookup(cfg.Embedder.APIKeyEnv)
	cfg.Storage.AccessKey = cl.lookup(cfg.Storage.AccessKeyEnv)
	cfg.Storage.SecretKey = cl.lookup(cfg.Storage.SecretKeyEnv)
	cfg.VectorStore.Qdrant.APIKey = cl.lookup(cfg.VectorStore.Qdrant.APIKeyEnv)
}

func (cl *ConfigLoader) lookup(name string) string {
	if name == "" {
		return ""
	}
	v, _ := cl.env(name)
	return v
}
