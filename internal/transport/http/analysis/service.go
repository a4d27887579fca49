package analysis

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	domainauth "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/auth"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/eventbus"
	domainimage "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/image"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/vision"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/vision/model"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	platerrors "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/storage"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
)

// Analyzer runs the full analysis over raw image bytes.
type Analyzer interface {
	Analyze(ctx context.Context, raw []byte, declaredFormat string) (*vision.Outcome, error)
}

// Service is the HTTP transport for the analysis pipeline.
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	pipeline  Analyzer
	records   storage.AnalysisRepository
	authToken *domainauth.AuthToken
}

// NewService creates the analysis HTTP service.
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	pipeline Analyzer,
	records storage.AnalysisRepository,
) (*Service, error) {
	if cfg == nil {
		return nil, platerrors.New(platerrors.KindConfig, "analysis.new", "config is required")
	}
	if logger == nil {
		return nil, platerrors.New(platerrors.KindConfig, "analysis.new", "logger is required")
	}
	if pipeline == nil {
		return nil, platerrors.New(platerrors.KindConfig, "analysis.new", "pipeline is required")
	}

	return &Service{
		config:    cfg,
		logger:    logger,
		pipeline:  pipeline,
		records:   records,
		authToken: domainauth.NewAuthToken(cfg.Server.Token),
	}, nil
}

// Register wires the analysis routes into the provided group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/analysis", s.handleAnalyze)
	router.GET("/analysis/records", s.handleListRecords)
	router.GET("/analysis/records/:id", s.handleGetRecord)

	s.logger.InfoTag("HTTP", "analysis routes registered")
	return nil
}

// AuthMiddleware verifies the bearer token and stores the client identifier
// on the request context.
func (s *Service) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			httptransport.RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			c.Abort()
			return
		}
		valid, clientID, err := s.authToken.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil || !valid {
			s.logger.WarnTag("AUTH", "token verification failed: %v", err)
			httptransport.RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token")
			c.Abort()
			return
		}
		c.Set("client_id", clientID)
		c.Next()
	}
}

func (s *Service) handleAnalyze(c *gin.Context) {
	started := time.Now()
	clientID := c.GetString("client_id")

	raw, declaredFormat, err := s.readUpload(c)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "INVALID_IMAGE_FORMAT", err.Error())
		return
	}

	outcome, err := s.pipeline.Analyze(c.Request.Context(), raw, declaredFormat)
	if err != nil {
		status, code, message := classifyFailure(err)
		s.recordFailure(c, clientID, code, message)
		httptransport.RespondError(c, status, code, message)
		return
	}

	record := s.recordOutcome(c, clientID, outcome, time.Since(started))
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"record_id": record.ID,
		"result":    outcome,
	})
}

func (s *Service) handleListRecords(c *gin.Context) {
	if s.records == nil {
		httptransport.RespondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "record storage is not configured")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		records []*storage.AnalysisRecord
		err     error
	)
	if clientID := c.Query("client_id"); clientID != "" {
		records, err = s.records.ListByClient(c.Request.Context(), clientID, limit, offset)
	} else {
		records, err = s.records.ListRecent(c.Request.Context(), limit, offset)
	}
	if err != nil {
		s.logger.ErrorTag("STORAGE", "list records: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list records")
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"records": records})
}

func (s *Service) handleGetRecord(c *gin.Context) {
	if s.records == nil {
		httptransport.RespondError(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "record storage is not configured")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "INTERNAL_ERROR", "invalid record id")
		return
	}
	record, err := s.records.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		s.logger.ErrorTag("STORAGE", "find record: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load record")
		return
	}
	if record == nil {
		httptransport.RespondError(c, http.StatusNotFound, "NOT_FOUND", "record not found")
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, record)
}

// readUpload accepts either a multipart "image" file or a raw body with an
// image content type. The declared format comes from the content type first
// and the filename extension second.
func (s *Service) readUpload(c *gin.Context) ([]byte, string, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			return nil, "", platerrors.Wrap(platerrors.KindTransport, "parse_request", "image file field is required", err)
		}
		defer file.Close()

		raw, err := io.ReadAll(io.LimitReader(file, s.config.Security.MaxFileSize+1))
		if err != nil {
			return nil, "", platerrors.Wrap(platerrors.KindTransport, "parse_request", "failed to read image file", err)
		}
		return raw, declaredFormat(header.Header.Get("Content-Type"), header.Filename), nil
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, s.config.Security.MaxFileSize+1))
	if err != nil {
		return nil, "", platerrors.Wrap(platerrors.KindTransport, "parse_request", "failed to read request body", err)
	}
	if len(raw) == 0 {
		return nil, "", platerrors.New(platerrors.KindTransport, "parse_request", "request body is empty")
	}
	return raw, declaredFormat(contentType, ""), nil
}

func declaredFormat(contentType, filename string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if format, ok := strings.CutPrefix(mediaType, "image/"); ok {
			return format
		}
	}
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return ""
}

// classifyFailure maps a pipeline error onto the wire code and HTTP status.
func classifyFailure(err error) (int, string, string) {
	var validation *domainimage.ValidationError
	if errors.As(err, &validation) {
		status := http.StatusBadRequest
		if validation.Code == domainimage.CodeTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		return status, string(validation.Code), validation.Message
	}

	var rejection *vision.RejectionError
	if errors.As(err, &rejection) {
		return http.StatusUnprocessableEntity, rejection.Code, rejection.Message
	}

	if errors.Is(err, model.ErrMalformedResponse) {
		return http.StatusBadGateway, "INTERNAL_ERROR", "analysis model returned an unusable response"
	}
	if platerrors.IsKind(err, platerrors.KindClassify) || platerrors.IsKind(err, platerrors.KindVision) {
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "a downstream analysis service is unavailable"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR", "analysis failed"
}

func (s *Service) recordOutcome(c *gin.Context, clientID string, outcome *vision.Outcome, elapsed time.Duration) *storage.AnalysisRecord {
	record := &storage.AnalysisRecord{
		ClientID:     clientID,
		Status:       storage.StatusCompleted,
		Species:      outcome.Species,
		PrimaryBreed: outcome.BreedAnalysis.PrimaryBreed,
		Crossbreed:   outcome.BreedAnalysis.IsLikelyCrossbreed,
		Confidence:   outcome.BreedAnalysis.Confidence,
		Description:  outcome.Description,
		Enriched:     outcome.EnrichedInfo != nil,
		ElapsedMS:    elapsed.Milliseconds(),
	}
	if probs, err := sonic.Marshal(outcome.BreedAnalysis.BreedProbabilities); err == nil {
		record.BreedProbabilities = datatypes.JSON(probs)
	}
	if traits, err := sonic.Marshal(outcome.Traits); err == nil {
		record.Traits = datatypes.JSON(traits)
	}
	if health, err := sonic.Marshal(outcome.HealthObservations); err == nil {
		record.HealthObservations = datatypes.JSON(health)
	}

	if s.records != nil {
		if err := s.records.Save(c.Request.Context(), record); err != nil {
			s.logger.ErrorTag("STORAGE", "save analysis record: %v", err)
		}
	}

	eventbus.Publish(eventbus.EventAnalysisCompleted, eventbus.AnalysisCompletedData{
		RecordID:   record.ID,
		ClientID:   clientID,
		Species:    outcome.Species,
		Breed:      outcome.BreedAnalysis.PrimaryBreed,
		Crossbreed: outcome.BreedAnalysis.IsLikelyCrossbreed,
		Confidence: outcome.BreedAnalysis.Confidence,
		ElapsedMS:  elapsed.Milliseconds(),
	})
	return record
}

func (s *Service) recordFailure(c *gin.Context, clientID, code, message string) {
	rejectionCodes := map[string]bool{
		vision.CodeContentPolicyViolation:     true,
		vision.CodeUnsupportedSpecies:         true,
		vision.CodeSpeciesDetectionFailed:     true,
		vision.CodeBreedDetectionFailed:       true,
		string(domainimage.CodeInvalidFormat): true,
		string(domainimage.CodeTooLarge):      true,
		string(domainimage.CodeTooSmall):      true,
	}

	status := storage.StatusFailed
	topic := eventbus.EventAnalysisFailed
	if rejectionCodes[code] {
		status = storage.StatusRejected
		topic = eventbus.EventAnalysisRejected
	}

	if s.records != nil {
		record := &storage.AnalysisRecord{ClientID: clientID, Status: status, Code: code}
		if err := s.records.Save(c.Request.Context(), record); err != nil {
			s.logger.ErrorTag("STORAGE", "save analysis record: %v", err)
		}
	}

	if topic == eventbus.EventAnalysisRejected {
		eventbus.Publish(topic, eventbus.AnalysisRejectedData{ClientID: clientID, Code: code, Message: message})
	} else {
		eventbus.Publish(topic, eventbus.AnalysisFailedData{ClientID: clientID, Code: code, Message: message})
	}
}
