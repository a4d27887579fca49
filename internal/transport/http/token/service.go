package token

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainauth "github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/auth"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	platerrors "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
)

// Service exchanges the shared server secret for a client scoped bearer
// token. Clients present the secret once and use the JWT afterwards.
type Service struct {
	config    *config.Config
	logger    *logging.Logger
	authToken *domainauth.AuthToken
}

func NewService(cfg *config.Config, logger *logging.Logger) (*Service, error) {
	if cfg == nil {
		return nil, platerrors.New(platerrors.KindConfig, "token.new", "config is required")
	}
	if logger == nil {
		return nil, platerrors.New(platerrors.KindConfig, "token.new", "logger is required")
	}
	return &Service{
		config:    cfg,
		logger:    logger,
		authToken: domainauth.NewAuthToken(cfg.Server.Token),
	}, nil
}

func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/auth/token", s.handleIssue)
	s.logger.InfoTag("HTTP", "token routes registered")
	return nil
}

type issueRequest struct {
	ClientID string `json:"client_id"`
}

func (s *Service) handleIssue(c *gin.Context) {
	if c.GetHeader("X-Server-Token") != s.config.Server.Token {
		httptransport.RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid server token")
		return
	}

	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httptransport.RespondError(c, http.StatusBadRequest, "INTERNAL_ERROR", "invalid request body")
		return
	}
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}

	signed, err := s.authToken.GenerateToken(req.ClientID)
	if err != nil {
		s.logger.ErrorTag("AUTH", "token generation failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to issue token")
		return
	}

	httptransport.RespondSuccess(c, http.StatusOK, gin.H{
		"client_id": req.ClientID,
		"token":     signed,
	})
}
