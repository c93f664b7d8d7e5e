package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/travelops/callscore/pkg/response"
)

type chatRequest struct {
	TicketCode string `json:"ticketCode" binding:"required"`
	SessionID  uint   `json:"sessionId"`
	CallID     uint   `json:"callId"`
	Message    string `json:"message" binding:"required"`
}

// chat answers one operator message about a ticket's calls, creating a
// session on the first turn. A callId narrows a new session to that
// call.
func (h *Handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "ticketCode and message are required")
		return
	}

	session, answer, err := h.qa.ChatAnswer(c.Request.Context(), req.TicketCode, req.SessionID, req.CallID, req.Message)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"sessionId": session.ID, "answer": answer})
}
