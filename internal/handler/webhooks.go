package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"github.com/travelops/callscore/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ticketWebhookPayload struct {
	TicketCode string `json:"ticketCode"`
	Phone      string `json:"phone"`
	Subject    string `json:"subject"`
	AgentEmail string `json:"agentEmail"`
}

// ticketWebhook upserts the ticket/phone conversation thread. Values
// sometimes arrive wrapped in stray quotes, which are stripped.
func (h *Handlers) ticketWebhook(c *gin.Context) {
	var payload ticketWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	code := stripQuotes(payload.TicketCode)
	phone := stripQuotes(payload.Phone)
	if code == "" || phone == "" {
		response.Fail(c, http.StatusBadRequest, "ticketCode and phone are required")
		return
	}

	thread := models.ConversationThread{TicketCode: code, Phone: phone}
	if err := h.db.Where("ticket_code = ? AND phone = ?", code, phone).
		FirstOrCreate(&thread).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.db.Model(&thread).Updates(map[string]any{
		"subject":     stripQuotes(payload.Subject),
		"agent_email": stripQuotes(payload.AgentEmail),
	}).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"threadId": thread.ID})
}

func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// callWebhookPayload is the telephony provider's call-event body.
// Contact is the counterpart phone number, Username the agent account,
// RecUrlLimited the time-limited recording URL.
type callWebhookPayload struct {
	TicketCode    string `json:"ticketCode"`
	Status        string `json:"Status"`
	Direction     string `json:"Direction"`
	Contact       string `json:"Contact"`
	Username      string `json:"Username"`
	Agent         string `json:"Agent"`
	Duration      string `json:"Duration"`
	StartTimeUTC  string `json:"StartTimeUTC"`
	EndTimeUTC    string `json:"EndTimeUTC"`
	RecUrlLimited string `json:"RecUrlLimited"`
}

// callWebhook ingests a finished-call notification: answered outbound
// calls only, recording downloaded before the record is created so a
// stored call always has its audio. Processing starts detached after
// the transaction commits.
func (h *Handlers) callWebhook(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "unreadable body")
		return
	}
	var payload callWebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if h.cfg.BlockedSenderDomain != "" &&
		strings.HasSuffix(strings.ToLower(payload.Username), strings.ToLower(h.cfg.BlockedSenderDomain)) {
		response.Fail(c, http.StatusForbidden, "sender not allowed")
		return
	}

	if payload.Status != "ANSWER" || payload.Direction != "OUT" {
		response.Success(c, gin.H{"ignored": true})
		return
	}
	if payload.Contact == "" {
		response.Fail(c, http.StatusBadRequest, "Contact is required")
		return
	}
	if payload.RecUrlLimited == "" {
		response.Fail(c, http.StatusBadRequest, "RecUrlLimited is required")
		return
	}

	ingestID := uuid.New().String()
	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		response.Fail(c, http.StatusInternalServerError, "storage unavailable")
		return
	}
	filePath := filepath.Join(h.cfg.UploadDir, ingestID+".mp3")

	resp, err := h.download.R().
		SetContext(c.Request.Context()).
		SetOutput(filePath).
		Get(payload.RecUrlLimited)
	if err != nil || resp.IsError() {
		logger.Error("recording download failed",
			zap.String("ingestId", ingestID), zap.String("url", payload.RecUrlLimited), zap.Error(err))
		response.Fail(c, http.StatusBadGateway, "failed to download recording")
		return
	}

	rec := &models.CallRecord{
		TicketCode:   payload.TicketCode,
		Phone:        payload.Contact,
		AgentEmail:   payload.Username,
		RecordingURL: payload.RecUrlLimited,
		FilePath:     filePath,
		Stage:        models.StageReceived,
		Payload:      string(raw),
	}
	if err := h.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(rec).Error
	}); err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("call ingested",
		zap.String("ingestId", ingestID), zap.Uint("callId", rec.ID), zap.String("ticket", rec.TicketCode))

	deliverRec := *rec
	chunkRec := *rec
	h.Spawn("delivery", func() {
		if err := h.proc.Deliver(context.Background(), &deliverRec); err != nil {
			logger.Warn("detached delivery failed", zap.Uint("callId", deliverRec.ID), zap.Error(err))
		}
	})
	h.Spawn("processing", func() {
		if err := h.proc.Chunk(context.Background(), &chunkRec); err != nil {
			logger.Warn("detached processing failed", zap.Uint("callId", chunkRec.ID), zap.Error(err))
		}
	})

	response.Success(c, gin.H{"callId": rec.ID, "ingestId": ingestID})
}

type messageWebhookPayload struct {
	TicketCode string `json:"ticketCode"`
	Phone      string `json:"phone"`
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	FromAgent  bool   `json:"fromAgent"`
}

// messageWebhook stores one WhatsApp message.
func (h *Handlers) messageWebhook(c *gin.Context) {
	var payload messageWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		response.Fail(c, http.StatusBadRequest, "message is required")
		return
	}

	msg := &models.WhatsAppMessage{
		TicketCode: stripQuotes(payload.TicketCode),
		Phone:      stripQuotes(payload.Phone),
		Sender:     payload.Sender,
		Body:       payload.Message,
		FromAgent:  payload.FromAgent,
	}
	if err := h.db.Create(msg).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"messageId": msg.ID})
}
