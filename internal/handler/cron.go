package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/response"
)

func (h *Handlers) cronAudit(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := h.db.Model(&models.CronAuditEntry{}).Order("id desc").Limit(limit)
	if job := c.Query("job"); job != "" {
		query = query.Where("job = ?", job)
	}

	var entries []models.CronAuditEntry
	if err := query.Find(&entries).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, entries)
}
