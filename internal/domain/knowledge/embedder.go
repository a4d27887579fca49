package knowledge

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
)

// Embedder turns query text into a vector for semantic search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type openaiEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder builds an embedder backed by the OpenAI embeddings API.
func NewOpenAIEmbedder(cfg config.KnowledgeConfig) (Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &openaiEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  openai.EmbeddingModel(model),
	}, nil
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}
