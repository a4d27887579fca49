package vision

import (
	"context"
	"time"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/classify"
	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/knowledge"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

const tag = "PIPELINE"

var supportedSpecies = map[string]bool{
	"dog": true,
	"cat": true,
}

// Pipeline runs the staged analysis over a submitted image. Stages execute
// strictly in order and each gate must pass before the next stage starts.
// Knowledge retrieval is the one best-effort stage: its failure degrades the
// result instead of aborting the run.
type Pipeline struct {
	validator  *domainimage.Validator
	classifier ContentClassifier
	knowledge  KnowledgeProvider
	model      DescriptionModel
	thresholds config.ThresholdConfig
	logger     *logging.Logger
}

func NewPipeline(
	validator *domainimage.Validator,
	classifier ContentClassifier,
	knowledgeProvider KnowledgeProvider,
	descriptionModel DescriptionModel,
	thresholds config.ThresholdConfig,
	logger *logging.Logger,
) *Pipeline {
	return &Pipeline{
		validator:  validator,
		classifier: classifier,
		knowledge:  knowledgeProvider,
		model:      descriptionModel,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Analyze takes raw image bytes through validation, the content gate, the
// species gate, breed classification, knowledge enrichment and the final
// model call. It returns either a complete Outcome or the first error that
// stopped the run: *image.ValidationError or *RejectionError for caller
// mistakes and policy stops, anything else is infrastructure.
func (p *Pipeline) Analyze(ctx context.Context, raw []byte, declaredFormat string) (*Outcome, error) {
	started := time.Now()

	payload, err := p.validator.Validate(raw, declaredFormat)
	if err != nil {
		return nil, err
	}
	p.logger.DebugTag(tag, "image accepted: format=%s %dx%d %d bytes",
		payload.Format, payload.Width, payload.Height, len(payload.Bytes))

	if err := p.checkContent(ctx, payload); err != nil {
		return nil, err
	}

	species, err := p.detectSpecies(ctx, payload)
	if err != nil {
		return nil, err
	}

	breeds, err := p.detectBreed(ctx, payload, species.Species)
	if err != nil {
		return nil, err
	}

	kctx := p.enrich(ctx, breeds)

	result, err := p.model.AnalyzeWithContext(ctx, payload, species.Species, breeds, kctx)
	if err != nil {
		return nil, err
	}

	p.logger.InfoTag(tag, "analysis complete: species=%s breed=%s crossbreed=%v elapsed=%s",
		species.Species, breeds.PrimaryBreed, breeds.IsLikelyCrossbreed, time.Since(started).Round(time.Millisecond))

	return &Outcome{
		Species:            species.Species,
		SpeciesConfidence:  species.Confidence,
		BreedAnalysis:      breeds,
		Description:        result.Description,
		Traits:             result.Traits,
		HealthObservations: result.HealthObservations,
		EnrichedInfo:       kctx,
	}, nil
}

func (p *Pipeline) checkContent(ctx context.Context, payload *domainimage.Payload) error {
	safety, err := p.classifier.CheckContent(ctx, payload)
	if err != nil {
		return err
	}
	if !safety.IsSafe {
		p.logger.WarnTag(tag, "content gate rejected image: nsfw=%.3f", safety.NSFWProbability)
		return reject(CodeContentPolicyViolation, "image failed the content safety check")
	}
	return nil
}

func (p *Pipeline) detectSpecies(ctx context.Context, payload *domainimage.Payload) (*classify.SpeciesResult, error) {
	detected, err := p.classifier.DetectSpecies(ctx, payload)
	if err != nil {
		return nil, err
	}
	if !supportedSpecies[detected.Species] {
		p.logger.WarnTag(tag, "species gate: %q is not supported", detected.Species)
		return nil, reject(CodeUnsupportedSpecies, "detected species "+detected.Species+" is not supported")
	}
	if detected.Confidence < p.thresholds.SpeciesMinConfidence {
		p.logger.WarnTag(tag, "species gate: confidence %.3f below %.3f",
			detected.Confidence, p.thresholds.SpeciesMinConfidence)
		return nil, reject(CodeSpeciesDetectionFailed, "no animal could be identified with sufficient confidence")
	}
	return detected, nil
}

func (p *Pipeline) detectBreed(ctx context.Context, payload *domainimage.Payload, species string) (*classify.BreedAnalysis, error) {
	breeds, err := p.classifier.DetectBreed(ctx, payload, species)
	if err != nil {
		return nil, err
	}
	if breeds.Confidence < p.thresholds.BreedMinConfidence {
		p.logger.WarnTag(tag, "breed gate: confidence %.3f below %.3f",
			breeds.Confidence, p.thresholds.BreedMinConfidence)
		return nil, reject(CodeBreedDetectionFailed, "breed could not be determined with sufficient confidence")
	}
	return breeds, nil
}

// enrich never fails the run. A nil context means the downstream prompt
// carries an explicit unavailability marker instead of fabricated facts.
func (p *Pipeline) enrich(ctx context.Context, breeds *classify.BreedAnalysis) *knowledge.Context {
	var (
		kctx *knowledge.Context
		err  error
	)
	if breeds.IsLikelyCrossbreed && breeds.Crossbreed != nil {
		kctx, err = p.knowledge.GetCrossbreedContext(ctx, breeds.Crossbreed.DetectedBreeds)
	} else {
		kctx, err = p.knowledge.GetBreedContext(ctx, breeds.PrimaryBreed)
	}
	if err != nil {
		p.logger.WarnTag(tag, "knowledge retrieval failed, continuing without context: %v", err)
		return nil
	}
	return kctx
}
