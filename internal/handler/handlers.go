package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/internal/qa"
	"github.com/travelops/callscore/pkg/config"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CallProcessor is the pipeline surface the webhook needs: posting the
// call onto the ticket and starting the processing chain.
type CallProcessor interface {
	Deliver(ctx context.Context, rec *models.CallRecord) error
	Chunk(ctx context.Context, rec *models.CallRecord) error
}

// Handlers owns every HTTP endpoint.
type Handlers struct {
	db   *gorm.DB
	cfg  *config.Config
	proc CallProcessor
	qa   *qa.Service

	download *resty.Client

	// Spawn runs a detached task after the webhook transaction has
	// committed. Tests replace it with a synchronous version.
	Spawn func(task string, fn func())
}

func NewHandlers(db *gorm.DB, cfg *config.Config, proc CallProcessor, qaService *qa.Service) *Handlers {
	return &Handlers{
		db:       db,
		cfg:      cfg,
		proc:     proc,
		qa:       qaService,
		download: resty.New().SetTimeout(2 * time.Minute),
		Spawn:    spawnDetached,
	}
}

func spawnDetached(task string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("background task panicked", zap.String("task", task), zap.Any("panic", r))
			}
		}()
		fn()
	}()
}

// Register wires every route under the configured API prefix.
func (h *Handlers) Register(r *gin.Engine) {
	api := r.Group(h.cfg.APIPrefix)

	api.POST("/webhook/ticket", h.ticketWebhook)
	api.POST("/webhook/call", h.callWebhook)
	api.POST("/webhook/message", h.messageWebhook)

	api.GET("/calls", h.listCalls)
	api.GET("/calls/pending", h.pendingCalls)
	api.GET("/calls/completed", h.completedCalls)
	api.GET("/calls/counts", h.callCountsByPhone)
	api.GET("/calls/grouped", h.callsGroupedByPhone)
	api.GET("/call/:id", h.callDetails)
	api.POST("/calls/ask", h.askCalls)
	api.POST("/calls/reset-retried", h.resetRetried)

	api.POST("/chat", h.chat)
	api.GET("/qa", h.qaHistory)

	api.GET("/cron/audit", h.cronAudit)

	api.GET("/messages/analysis", h.listMessageAnalyses)
	api.GET("/messages/analysis/:id", h.messageAnalysisDetails)
	api.POST("/messages/analysis/:id/sent", h.markMessageAnalysisSent)

	api.GET("/analysis/export", h.exportAnalysis)
}
