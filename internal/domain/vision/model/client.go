package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/classify"
	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/knowledge"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

// Client calls the multimodal analysis model with a grounded prompt and
// parses its structured response.
type Client struct {
	config       config.VLLLMConfig
	openaiClient *openai.Client
	logger       *logging.Logger
}

// NewClient constructs the analysis model client.
func NewClient(cfg config.VLLLMConfig, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "model.new", "model API key is required")
	}
	if cfg.ModelName == "" {
		return nil, errors.New(errors.KindConfig, "model.new", "model name is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}

	return &Client{
		config:       cfg,
		openaiClient: openai.NewClientWithConfig(clientConfig),
		logger:       logger,
	}, nil
}

// AnalyzeWithContext describes the individual animal in the image, grounded
// by the pre-classified breed and the retrieved knowledge context. A nil
// knowledge context is a supported degraded mode.
func (c *Client) AnalyzeWithContext(
	ctx context.Context,
	payload *domainimage.Payload,
	species string,
	breeds *classify.BreedAnalysis,
	kctx *knowledge.Context,
) (*Result, error) {
	prompt := buildPrompt(species, breeds, kctx)

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	message := openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:image/%s;base64,%s", payload.Format, payload.Base64),
				},
			},
		},
	}

	c.logger.DebugTag("VLLLM", "invoking %s: prompt_length=%d image_bytes=%d",
		c.config.ModelName, len(prompt), len(payload.Bytes))

	resp, err := c.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.ModelName,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: float32(c.config.Temperature),
		TopP:        float32(c.config.TopP),
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindVision, "analyze", "model inference failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.KindVision, "analyze", "model returned no choices")
	}

	result, err := parseResult(resp.Choices[0].Message.Content)
	if err != nil {
		c.logger.WarnTag("VLLLM", "malformed model response: %v", err)
		return nil, err
	}

	c.logger.InfoTag("VLLLM", "analysis complete: description_length=%d observations=%d",
		len(result.Description), len(result.HealthObservations))
	return result, nil
}

// buildPrompt assembles the single structured prompt. It states the
// classified identity, embeds retrieved breed knowledge (or the
// "(unavailable)" marker) and restricts the model to what is visible in
// this specific image.
func buildPrompt(species string, breeds *classify.BreedAnalysis, kctx *knowledge.Context) string {
	var b strings.Builder

	b.WriteString("You are a veterinary assistant analysing a single pet photo.\n\n")

	if breeds.IsLikelyCrossbreed && breeds.Crossbreed != nil {
		cb := breeds.Crossbreed
		fmt.Fprintf(&b, "The animal has been classified as a %s, likely a mix of %s and %s",
			species, cb.DetectedBreeds[0], cb.DetectedBreeds[1])
		if cb.CommonName != "" {
			fmt.Fprintf(&b, " (commonly called a %s)", cb.CommonName)
		}
		fmt.Fprintf(&b, ", with confidence %.2f.\n", breeds.Confidence)
	} else {
		fmt.Fprintf(&b, "The animal has been classified as a %s of breed %s with confidence %.2f.\n",
			species, breeds.PrimaryBreed, breeds.Confidence)
	}

	b.WriteString("\nBreed context:\n")
	if kctx == nil {
		b.WriteString("(unavailable)\n")
	} else {
		if kctx.Description != "" {
			b.WriteString(kctx.Description + "\n")
		}
		if kctx.CareSummary != "" {
			b.WriteString("Care: " + kctx.CareSummary + "\n")
		}
		if kctx.HealthInfo != "" {
			b.WriteString("Health considerations: " + kctx.HealthInfo + "\n")
		}
	}

	b.WriteString(`
Describe only what is visually observable in THIS image: the animal's
apparent condition, approximate age cues, coat and build, and any
individual-level traits. Do not recite generic breed facts as if observed.

Respond with a single JSON object and nothing else, with exactly these keys:
{
  "description": "string",
  "traits": {"size": "string", "energy_level": "string", "temperament": "string"},
  "health_observations": ["string"]
}
`)

	return b.String()
}
