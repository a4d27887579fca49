package config

import "time"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:    "0.0.0.0",
			Port:  8080,
			Token: "your_token",
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Classifier: ClassifierConfig{
			BaseURL: "http://localhost:8001",
			Timeout: 15 * time.Second,
			TopK:    5,
		},
		Knowledge: KnowledgeConfig{
			Redis: KnowledgeRedisConfig{
				Addr:   "localhost:6379",
				Prefix: "knowledge:",
			},
			Index:          "breed_docs",
			EmbeddingModel: "text-embedding-3-small",
			TopK:           4,
			CacheTTL:       12 * time.Hour,
			Timeout:        8 * time.Second,
		},
		VLLLM: VLLLMConfig{
			ModelName:   "gpt-4o-mini",
			Temperature: 0.4,
			MaxTokens:   800,
			TopP:        0.9,
			Timeout:     45 * time.Second,
		},
		Security: SecurityConfig{
			MaxFileSize:    5 * 1024 * 1024,
			MaxPixels:      16777216,
			MaxWidth:       4096,
			MaxHeight:      4096,
			MinWidth:       64,
			MinHeight:      64,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif"},
		},
		Thresholds: ThresholdConfig{
			SpeciesMinConfidence:      0.25,
			BreedMinConfidence:        0.10,
			CrossbreedSecondThreshold: 0.05,
		},
		Storage: StorageConfig{
			SQLiteDSN: "data/petvision.db",
		},
	}
}
