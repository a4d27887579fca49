package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

// Retriever resolves breed names into grounding text via semantic search.
// Every method is best-effort: callers must treat any returned error as
// "no context available", never as a fatal condition.
type Retriever struct {
	embedder Embedder
	searcher Searcher
	cache    *redis.Client
	prefix   string
	topK     int
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *logging.Logger
}

// Options wires retriever dependencies. Embedder and Searcher are required;
// Cache is optional and skipped when nil.
type Options struct {
	Config   config.KnowledgeConfig
	Logger   *logging.Logger
	Embedder Embedder
	Searcher Searcher
	Cache    *redis.Client
}

// New constructs a knowledge retriever.
func New(opts Options) (*Retriever, error) {
	if opts.Embedder == nil {
		return nil, errors.New(errors.KindConfig, "knowledge.new", "embedder is required")
	}
	if opts.Searcher == nil {
		return nil, errors.New(errors.KindConfig, "knowledge.new", "searcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}

	topK := opts.Config.TopK
	if topK <= 0 {
		topK = 4
	}
	timeout := opts.Config.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	prefix := opts.Config.Redis.Prefix
	if prefix == "" {
		prefix = "knowledge:"
	}

	return &Retriever{
		embedder: opts.Embedder,
		searcher: opts.Searcher,
		cache:    opts.Cache,
		prefix:   prefix,
		topK:     topK,
		cacheTTL: opts.Config.CacheTTL,
		timeout:  timeout,
		logger:   opts.Logger,
	}, nil
}

// GetBreedContext retrieves grounding text for a single breed.
func (r *Retriever) GetBreedContext(ctx context.Context, breed string) (*Context, error) {
	breed = strings.TrimSpace(breed)
	if breed == "" {
		return nil, errors.New(errors.KindKnowledge, "breed_context", "breed name is empty")
	}

	query := fmt.Sprintf("%s dog cat breed characteristics temperament care health", displayName(breed))
	kctx, err := r.retrieve(ctx, cacheKeyFor(breed), query)
	if err != nil {
		return nil, err
	}
	kctx.Breed = breed
	return kctx, nil
}

// GetCrossbreedContext retrieves grounding text covering both parent breeds.
func (r *Retriever) GetCrossbreedContext(ctx context.Context, parents [2]string) (*Context, error) {
	if strings.TrimSpace(parents[0]) == "" || strings.TrimSpace(parents[1]) == "" {
		return nil, errors.New(errors.KindKnowledge, "crossbreed_context", "both parent breeds are required")
	}

	query := fmt.Sprintf(
		"%s %s mixed breed cross characteristics temperament care health",
		displayName(parents[0]), displayName(parents[1]),
	)
	kctx, err := r.retrieve(ctx, cacheKeyFor(parents[0]+"+"+parents[1]), query)
	if err != nil {
		return nil, err
	}
	kctx.ParentBreeds = []string{parents[0], parents[1]}
	return kctx, nil
}

func (r *Retriever) retrieve(ctx context.Context, cacheKey, query string) (*Context, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if cached := r.cacheGet(ctx, cacheKey); cached != nil {
		r.logger.DebugTag("KNOWLEDGE", "cache hit: %s", cacheKey)
		return cached, nil
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.KindKnowledge, "retrieve", "query embedding failed", err)
	}

	chunks, err := r.searcher.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, errors.Wrap(errors.KindKnowledge, "retrieve", "semantic search failed", err)
	}
	if len(chunks) == 0 {
		return nil, errors.New(errors.KindKnowledge, "retrieve", "no matching documents")
	}

	kctx := assemble(chunks)
	r.cacheSet(ctx, cacheKey, kctx)
	r.logger.DebugTag("KNOWLEDGE", "retrieved %d chunks for %s", len(chunks), cacheKey)
	return kctx, nil
}

// assemble folds ranked chunks into the structured context shape. Chunks
// carry a section label from indexing time; unlabelled content counts as
// overview text.
func assemble(chunks []Chunk) *Context {
	var overview, care, health []string
	sources := make([]string, 0, len(chunks))
	seen := make(map[string]struct{})

	for _, chunk := range chunks {
		switch chunk.Section {
		case SectionCare:
			care = append(care, chunk.Content)
		case SectionHealth:
			health = append(health, chunk.Content)
		default:
			overview = append(overview, chunk.Content)
		}
		if chunk.Source != "" {
			if _, ok := seen[chunk.Source]; !ok {
				seen[chunk.Source] = struct{}{}
				sources = append(sources, chunk.Source)
			}
		}
	}

	return &Context{
		Description: strings.Join(overview, "\n"),
		CareSummary: strings.Join(care, "\n"),
		HealthInfo:  strings.Join(health, "\n"),
		Sources:     sources,
	}
}

func (r *Retriever) cacheGet(ctx context.Context, key string) *Context {
	if r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil
	}
	var kctx Context
	if err := json.Unmarshal(raw, &kctx); err != nil {
		return nil
	}
	return &kctx
}

func (r *Retriever) cacheSet(ctx context.Context, key string, kctx *Context) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(kctx)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.prefix+key, raw, r.cacheTTL).Err(); err != nil {
		r.logger.WarnTag("KNOWLEDGE", "cache write failed: %v", err)
	}
}

func cacheKeyFor(breed string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(breed)), " ", "_")
}

func displayName(breed string) string {
	return strings.ReplaceAll(breed, "_", " ")
}
