package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/response"
)

func (h *Handlers) listCalls(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := cast.ToInt(c.Query("offset"))

	query := h.db.Model(&models.CallRecord{}).Order("id desc").Limit(limit).Offset(offset)
	if ticket := c.Query("ticket"); ticket != "" {
		query = query.Where("ticket_code = ?", ticket)
	}

	var calls []models.CallRecord
	if err := query.Find(&calls).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, calls)
}

func (h *Handlers) pendingCalls(c *gin.Context) {
	var calls []models.CallRecord
	if err := h.db.Where("stage IN ?", models.PendingStages).
		Order("id asc").
		Find(&calls).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, calls)
}

func (h *Handlers) completedCalls(c *gin.Context) {
	var calls []models.CallRecord
	if err := h.db.Where("stage = ?", models.StageComplete).
		Order("id desc").
		Find(&calls).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, calls)
}

func (h *Handlers) callDetails(c *gin.Context) {
	id := cast.ToUint(c.Param("id"))
	if id == 0 {
		response.Fail(c, http.StatusBadRequest, "invalid call id")
		return
	}

	var call models.CallRecord
	if err := h.db.First(&call, id).Error; err != nil {
		response.Fail(c, http.StatusNotFound, "call not found")
		return
	}

	var extract models.AnalysisExtract
	hasExtract := h.db.Where("call_record_id = ?", id).First(&extract).Error == nil

	out := gin.H{"call": call, "analysis": models.DecodeMap(call.Analysis)}
	if hasExtract {
		out["extract"] = extract
	}
	response.Success(c, out)
}

type phoneCount struct {
	Phone string `json:"phone"`
	Count int64  `json:"count"`
}

func (h *Handlers) callCountsByPhone(c *gin.Context) {
	var counts []phoneCount
	if err := h.db.Model(&models.CallRecord{}).
		Select("phone, COUNT(*) as count").
		Group("phone").
		Order("count desc").
		Find(&counts).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, counts)
}

func (h *Handlers) callsGroupedByPhone(c *gin.Context) {
	var calls []models.CallRecord
	if err := h.db.Order("phone asc, id asc").Find(&calls).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	grouped := make(map[string][]models.CallRecord)
	for _, call := range calls {
		grouped[call.Phone] = append(grouped[call.Phone], call)
	}
	response.Success(c, grouped)
}

type askRequest struct {
	TicketCode string `json:"ticketCode" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

func (h *Handlers) askCalls(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ticketCode and question are required")
		return
	}

	answer, contexts, err := h.qa.Ask(c.Request.Context(), req.TicketCode, req.Question)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"answer": answer, "contexts": contexts})
}

type resetRetriedRequest struct {
	CallID uint `json:"callId"`
}

// retriedToError maps each parked stage back to its retryable one.
var retriedToError = map[string]string{
	models.StageChunkRetried:      models.StageChunkError,
	models.StageTranscribeRetried: models.StageTranscribeError,
	models.StageAnalyzeRetried:    models.StageAnalyzeError,
}

// resetRetried flips parked *_RETRIED records back to *_ERROR so the
// recovery sweeps pick them up again. With a callId only that record
// is reset; without one, all parked records are.
func (h *Handlers) resetRetried(c *gin.Context) {
	var req resetRetriedRequest
	_ = c.ShouldBindJSON(&req)

	var reset int64
	for retried, errStage := range retriedToError {
		query := h.db.Model(&models.CallRecord{}).Where("stage = ?", retried)
		if req.CallID != 0 {
			query = query.Where("id = ?", req.CallID)
		}
		res := query.Update("stage", errStage)
		if res.Error != nil {
			response.Fail(c, http.StatusInternalServerError, res.Error.Error())
			return
		}
		reset += res.RowsAffected
	}
	response.Success(c, gin.H{"reset": reset})
}

func (h *Handlers) qaHistory(c *gin.Context) {
	query := h.db.Model(&models.CallQA{}).Order("id desc").Limit(100)
	if ticket := c.Query("ticket"); ticket != "" {
		query = query.Where("ticket_code = ?", ticket)
	}
	var rows []models.CallQA
	if err := query.Find(&rows).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, rows)
}
