package system

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	platerrors "github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/storage"
	httptransport "github.com/Nihilantropy/ft-transcendence-sub003/internal/transport/http"
)

// Service exposes operational status for the running server.
type Service struct {
	logger  *logging.Logger
	records storage.AnalysisRepository
	started time.Time
}

func NewService(logger *logging.Logger, records storage.AnalysisRepository) (*Service, error) {
	if logger == nil {
		return nil, platerrors.New(platerrors.KindConfig, "system.new", "logger is required")
	}
	return &Service{
		logger:  logger,
		records: records,
		started: time.Now(),
	}, nil
}

func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/system/status", s.handleStatus)
	s.logger.InfoTag("HTTP", "system routes registered")
	return nil
}

func (s *Service) handleStatus(c *gin.Context) {
	status := gin.H{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["memory"] = gin.H{
			"total_bytes":  vm.Total,
			"used_bytes":   vm.Used,
			"used_percent": vm.UsedPercent,
		}
	}

	if s.records != nil {
		counts := gin.H{}
		for _, st := range []string{storage.StatusCompleted, storage.StatusRejected, storage.StatusFailed} {
			if n, err := s.records.CountByStatus(c.Request.Context(), st); err == nil {
				counts[st] = n
			}
		}
		status["analyses"] = counts
	}

	httptransport.RespondSuccess(c, http.StatusOK, status)
}
