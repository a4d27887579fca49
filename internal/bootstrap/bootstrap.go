package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/classify"
	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/knowledge"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/vision"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/vision/model"
	platformconfig "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	platformerrors "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	platformlogging "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
	platformstorage "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/storage"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
	httpanalysis "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http/analysis"
	httpsystem "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http/system"
	httptoken "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http/token"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	db         *gorm.DB
	records    platformstorage.AnalysisRepository
	redis      *redis.Client
	pipeline   *vision.Pipeline
}

// Run drives the full service lifecycle: configuration, dependency init,
// HTTP serving and graceful shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	defer logger.Close()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	if state.redis != nil {
		if err := state.redis.Close(); err != nil {
			logger.WarnTag("BOOT", "redis client close: %v", err)
		}
	}
	logger.InfoTag("BOOT", "server stopped cleanly")
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph is the ordered dependency graph of startup steps.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:open",
			Title:     "Open record storage",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   openStorageStep,
		},
		{
			ID:        "redis:connect",
			Title:     "Connect knowledge store",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   connectRedisStep,
		},
		{
			ID:        "pipeline:init",
			Title:     "Initialise analysis pipeline",
			DependsOn: []string{"logging:init", "redis:connect"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initPipelineStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	path := os.Getenv("PETVISION_CONFIG")
	result, err := platformconfig.NewLoader(path).Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init", "config not loaded")
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger
	platformlogging.DefaultLogger = logger

	logger.InfoTag("BOOT", "logging ready [%s], config from %s", state.config.Log.Level, state.configPath)
	return nil
}

func openStorageStep(_ context.Context, state *appState) error {
	if state.config.Storage.SQLiteDSN == "" {
		state.logger.WarnTag("BOOT", "no sqlite dsn configured, analysis records will not be persisted")
		return nil
	}

	db, err := platformstorage.Open(state.config.Storage.SQLiteDSN)
	if err != nil {
		return err
	}
	state.db = db
	state.records = platformstorage.NewAnalysisRepository(db)
	state.logger.InfoTag("BOOT", "record storage ready at %s", state.config.Storage.SQLiteDSN)
	return nil
}

// connectRedisStep never fails the boot: the knowledge stage degrades at
// runtime when the store is unreachable.
func connectRedisStep(ctx context.Context, state *appState) error {
	redisCfg := state.config.Knowledge.Redis
	if redisCfg.Addr == "" {
		state.logger.WarnTag("BOOT", "no redis addr configured, knowledge enrichment disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Username: redisCfg.Username,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		state.logger.WarnTag("BOOT", "knowledge store unreachable at %s: %v", redisCfg.Addr, err)
	} else {
		state.logger.InfoTag("BOOT", "knowledge store connected at %s", redisCfg.Addr)
	}

	state.redis = client
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	cfg := state.config
	logger := state.logger

	validator := domainimage.NewValidator(&cfg.Security, logger)

	gateway, err := classify.NewGateway(cfg.Classifier, cfg.Thresholds, logger)
	if err != nil {
		return err
	}

	knowledgeProvider, err := buildKnowledgeProvider(state)
	if err != nil {
		return err
	}

	modelClient, err := model.NewClient(cfg.VLLLM, logger)
	if err != nil {
		return err
	}

	state.pipeline = vision.NewPipeline(validator, gateway, knowledgeProvider, modelClient, cfg.Thresholds, logger)
	logger.InfoTag("BOOT", "analysis pipeline ready: classifier=%s model=%s",
		cfg.Classifier.BaseURL, cfg.VLLLM.ModelName)
	return nil
}

func buildKnowledgeProvider(state *appState) (vision.KnowledgeProvider, error) {
	cfg := state.config
	if state.redis == nil || cfg.Knowledge.APIKey == "" {
		state.logger.WarnTag("BOOT", "knowledge retriever not configured, running without enrichment")
		return disabledKnowledge{}, nil
	}

	embedder, err := knowledge.NewOpenAIEmbedder(cfg.Knowledge)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindBootstrap, "pipeline:init", "failed to create embedder", err)
	}

	return knowledge.New(knowledge.Options{
		Config:   cfg.Knowledge,
		Logger:   state.logger,
		Embedder: embedder,
		Searcher: knowledge.NewRedisSearcher(state.redis, cfg.Knowledge.Index),
		Cache:    state.redis,
	})
}

// disabledKnowledge stands in when no store is configured. The pipeline
// absorbs its errors the same way it absorbs a live retrieval failure.
type disabledKnowledge struct{}

func (disabledKnowledge) GetBreedContext(context.Context, string) (*knowledge.Context, error) {
	return nil, platformerrors.New(platformerrors.KindKnowledge, "breed_context", "knowledge store not configured")
}

func (disabledKnowledge) GetCrossbreedContext(context.Context, [2]string) (*knowledge.Context, error) {
	return nil, platformerrors.New(platformerrors.KindKnowledge, "crossbreed_context", "knowledge store not configured")
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	analysisService, err := httpanalysis.NewService(cfg, logger, state.pipeline, state.records)
	if err != nil {
		return nil, err
	}

	router, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: analysisService.AuthMiddleware(),
	})
	if err != nil {
		return nil, err
	}

	tokenService, err := httptoken.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}
	systemService, err := httpsystem.NewService(logger, state.records)
	if err != nil {
		return nil, err
	}

	if err := analysisService.Register(groupCtx, router.Secured); err != nil {
		return nil, err
	}
	if err := tokenService.Register(groupCtx, router.API); err != nil {
		return nil, err
	}
	if err := systemService.Register(groupCtx, router.API); err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.IP + ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on %s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown signal received, cleaning up")

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "shutdown finished with error: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}
