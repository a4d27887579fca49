package classify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

const defaultTopK = 5

// Gateway is a typed client for the internal classification sidecar. It
// performs no retries; transient faults surface to the caller unchanged.
type Gateway struct {
	baseURL         string
	apiKey          string
	topK            int
	secondThreshold float64
	httpClient      *http.Client
	logger          *logging.Logger
}

// NewGateway constructs a classification gateway from config.
func NewGateway(cfg config.ClassifierConfig, thresholds config.ThresholdConfig, logger *logging.Logger) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.KindConfig, "classify.new", "classifier url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	return &Gateway{
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		topK:            topK,
		secondThreshold: thresholds.CrossbreedSecondThreshold,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}, nil
}

type contentCheckRequest struct {
	Image string `json:"image"`
}

type speciesRequest struct {
	Image string `json:"image"`
	TopK  int    `json:"top_k"`
}

type breedRequest struct {
	Image   string `json:"image"`
	Species string `json:"species"`
	TopK    int    `json:"top_k"`
}

type breedResponse struct {
	Predictions []BreedProbability `json:"predictions"`
}

// CheckContent runs the content-safety model over the image.
func (g *Gateway) CheckContent(ctx context.Context, payload *domainimage.Payload) (*SafetyResult, error) {
	var result SafetyResult
	err := g.post(ctx, "/v1/content/check", contentCheckRequest{Image: payload.Base64}, &result)
	if err != nil {
		return nil, errors.Wrap(errors.KindClassify, "check_content", "content safety check failed", err)
	}
	g.logger.DebugTag("CLASSIFY", "content check: is_safe=%t nsfw=%.4f", result.IsSafe, result.NSFWProbability)
	return &result, nil
}

// DetectSpecies identifies the animal species in the image.
func (g *Gateway) DetectSpecies(ctx context.Context, payload *domainimage.Payload) (*SpeciesResult, error) {
	var result SpeciesResult
	err := g.post(ctx, "/v1/species/detect", speciesRequest{Image: payload.Base64, TopK: g.topK}, &result)
	if err != nil {
		return nil, errors.Wrap(errors.KindClassify, "detect_species", "species detection failed", err)
	}
	g.logger.DebugTag("CLASSIFY", "species: %s confidence=%.4f", result.Species, result.Confidence)
	return &result, nil
}

// DetectBreed ranks breed candidates for the detected species and applies
// the crossbreed gap heuristic to the distribution.
func (g *Gateway) DetectBreed(ctx context.Context, payload *domainimage.Payload, species string) (*BreedAnalysis, error) {
	var resp breedResponse
	err := g.post(ctx, "/v1/breeds/detect", breedRequest{
		Image:   payload.Base64,
		Species: species,
		TopK:    g.topK,
	}, &resp)
	if err != nil {
		return nil, errors.Wrap(errors.KindClassify, "detect_breed", "breed detection failed", err)
	}

	analysis, err := resolveBreedAnalysis(resp.Predictions, g.secondThreshold)
	if err != nil {
		return nil, errors.Wrap(errors.KindClassify, "detect_breed", "unusable breed distribution", err)
	}

	if analysis.IsLikelyCrossbreed {
		g.logger.InfoTag("CLASSIFY", "likely crossbreed: %s x %s blended_confidence=%.4f",
			analysis.Crossbreed.DetectedBreeds[0],
			analysis.Crossbreed.DetectedBreeds[1],
			analysis.Confidence,
		)
	} else {
		g.logger.DebugTag("CLASSIFY", "breed: %s confidence=%.4f", analysis.PrimaryBreed, analysis.Confidence)
	}
	return analysis, nil
}

func (g *Gateway) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	encoded, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
