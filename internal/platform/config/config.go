package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	VLLLM      VLLLMConfig      `yaml:"vlllm"`
	Security   SecurityConfig   `yaml:"security"`
	Thresholds ThresholdConfig  `yaml:"thresholds"`
	Storage    StorageConfig    `yaml:"storage"`
}

type ServerConfig struct {
	IP    string `yaml:"ip"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// ClassifierConfig points at the internal classification sidecar.
type ClassifierConfig struct {
	BaseURL string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	TopK    int           `yaml:"top_k"`
}

// KnowledgeConfig configures the breed knowledge store and its embedder.
type KnowledgeConfig struct {
	Redis          KnowledgeRedisConfig `yaml:"redis"`
	Index          string               `yaml:"index"`
	EmbeddingModel string               `yaml:"embedding_model"`
	BaseURL        string               `yaml:"url"`
	APIKey         string               `yaml:"api_key"`
	TopK           int                  `yaml:"top_k"`
	CacheTTL       time.Duration        `yaml:"cache_ttl"`
	Timeout        time.Duration        `yaml:"timeout"`
}

type KnowledgeRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type VLLLMConfig struct {
	ModelName   string        `yaml:"model_name"`
	BaseURL     string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	TopP        float64       `yaml:"top_p"`
	Timeout     time.Duration `yaml:"timeout"`
}

type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	MinWidth       int      `yaml:"min_width"`
	MinHeight      int      `yaml:"min_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
}

// ThresholdConfig carries the pipeline confidence gates. All values are
// deployment-tunable, never hardcoded at call sites.
type ThresholdConfig struct {
	SpeciesMinConfidence      float64 `yaml:"species_min_confidence"`
	BreedMinConfidence        float64 `yaml:"breed_min_confidence"`
	CrossbreedSecondThreshold float64 `yaml:"crossbreed_second_threshold"`
}

type StorageConfig struct {
	SQLiteDSN string `yaml:"sqlite_dsn"`
}
