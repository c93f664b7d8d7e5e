package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/response"
)

func (h *Handlers) listMessageAnalyses(c *gin.Context) {
	query := h.db.Model(&models.MessageAnalysis{}).Order("id desc").Limit(200)
	if ticket := c.Query("ticket"); ticket != "" {
		query = query.Where("ticket_code = ?", ticket)
	}
	if day := c.Query("day"); day != "" {
		query = query.Where("day = ?", day)
	}

	var rows []models.MessageAnalysis
	if err := query.Find(&rows).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, rows)
}

func (h *Handlers) messageAnalysisDetails(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	if id == 0 {
		response.Fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	var row models.MessageAnalysis
	if err := h.db.First(&row, id).Error; err != nil {
		response.Fail(c, http.StatusNotFound, "analysis not found")
		return
	}

	var extract models.MessageExtract
	hasExtract := h.db.Where("message_analysis_id = ?", id).First(&extract).Error == nil

	out := gin.H{"analysis": row, "parsed": models.DecodeMap(row.Analysis)}
	if hasExtract {
		out["extract"] = extract
	}
	response.Success(c, out)
}

func (h *Handlers) markMessageAnalysisSent(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	if id == 0 {
		response.Fail(c, http.StatusBadRequest, "invalid id")
		return
	}

	res := h.db.Model(&models.MessageAnalysis{}).Where("id = ?", id).Update("sent", true)
	if res.Error != nil {
		response.Fail(c, http.StatusInternalServerError, res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		response.Fail(c, http.StatusNotFound, "analysis not found")
		return
	}
	response.Success(c, gin.H{"sent": true})
}
