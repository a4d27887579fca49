package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from a yaml file with environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path.
func NewLoader(path string) *Loader {
	if path == "" {
		path = "config.yaml"
	}
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the config file, falling back to defaults when it is missing.
// Secrets can always be supplied through the environment.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	cfg := DefaultConfig()
	path := l.path

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	case os.IsNotExist(err):
		path = "defaults"
	default:
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		cfg.Classifier.BaseURL = v
	}
	if v := os.Getenv("CLASSIFIER_API_KEY"); v != "" {
		cfg.Classifier.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.VLLLM.APIKey == "" {
			cfg.VLLLM.APIKey = v
		}
		if cfg.Knowledge.APIKey == "" {
			cfg.Knowledge.APIKey = v
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Knowledge.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Knowledge.Redis.Password = v
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Classifier.BaseURL == "" {
		return fmt.Errorf("classifier url is required")
	}
	t := cfg.Thresholds
	for name, v := range map[string]float64{
		"species_min_confidence":      t.SpeciesMinConfidence,
		"breed_min_confidence":        t.BreedMinConfidence,
		"crossbreed_second_threshold": t.CrossbreedSecondThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %s out of range [0,1]: %f", name, v)
		}
	}
	if cfg.Security.MinWidth > cfg.Security.MaxWidth || cfg.Security.MinHeight > cfg.Security.MaxHeight {
		return fmt.Errorf("image dimension bounds inverted")
	}
	return nil
}
