package vision

import (
	"context"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/classify"
	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/knowledge"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/vision/model"
)

// ContentClassifier is the classification service boundary.
type ContentClassifier interface {
	CheckContent(ctx context.Context, payload *domainimage.Payload) (*classify.SafetyResult, error)
	DetectSpecies(ctx context.Context, payload *domainimage.Payload) (*classify.SpeciesResult, error)
	DetectBreed(ctx context.Context, payload *domainimage.Payload, species string) (*classify.BreedAnalysis, error)
}

// KnowledgeProvider is the breed knowledge store boundary. Failures are
// absorbed by the pipeline, never surfaced to the caller.
type KnowledgeProvider interface {
	GetBreedContext(ctx context.Context, breed string) (*knowledge.Context, error)
	GetCrossbreedContext(ctx context.Context, parents [2]string) (*knowledge.Context, error)
}

// DescriptionModel is the multimodal analysis model boundary.
type DescriptionModel interface {
	AnalyzeWithContext(
		ctx context.Context,
		payload *domainimage.Payload,
		species string,
		breeds *classify.BreedAnalysis,
		kctx *knowledge.Context,
	) (*model.Result, error)
}

// Outcome is the assembled result of one successful pipeline run. It is
// immutable once returned and never persisted by the pipeline itself.
type Outcome struct {
	Species            string                  `json:"species"`
	SpeciesConfidence  float64                 `json:"species_confidence"`
	BreedAnalysis      *classify.BreedAnalysis `json:"breed_analysis"`
	Description        string                  `json:"description"`
	Traits             model.Traits            `json:"traits"`
	HealthObservations []string                `json:"health_observations"`
	EnrichedInfo       *knowledge.Context      `json:"enriched_info,omitempty"`
}
