package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
)

// deliveryFields are the webhook payload fields included in the ticket
// note, labeled and in this order.
var deliveryFields = []struct {
	label string
	key   string
}{
	{"Call type", "Direction"},
	{"Start time", "StartTimeUTC"},
	{"End time", "EndTimeUTC"},
	{"Duration", "Duration"},
	{"Customer Number", "Contact"},
	{"Called From", "Agent"},
	{"User", "Username"},
}

// Deliver posts a short call summary onto the ticket: the interesting
// payload fields comma-joined, followed by a deep link to the
// transcript. The forwarded flag only flips when the ticketing system
// answered with an ok status. Delivery failure never fails the call.
func (p *Pipeline) Deliver(ctx context.Context, rec *models.CallRecord) error {
	body := p.deliveryBody(rec)

	ok, err := p.ticketing.PostMessage(ctx, rec.TicketCode, body)
	if err != nil {
		logger.Warn("ticket delivery failed",
			zap.Uint("callId", rec.ID), zap.String("ticket", rec.TicketCode), zap.Error(err))
		return err
	}
	if !ok {
		logger.Warn("ticketing system did not acknowledge delivery",
			zap.Uint("callId", rec.ID), zap.String("ticket", rec.TicketCode))
		return nil
	}

	return p.db.Model(&models.CallRecord{}).
		Where("id = ?", rec.ID).
		Update("forwarded_to_ticket", true).Error
}

func (p *Pipeline) deliveryBody(rec *models.CallRecord) string {
	payload := models.DecodeMap(rec.Payload)

	var parts []string
	for _, field := range deliveryFields {
		v := cast.ToString(payload[field.key])
		if v == "" {
			continue
		}
		if field.key == "Duration" {
			v += " seconds"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field.label, v))
	}
	if p.cfg.TranscriptLinkBase != "" {
		parts = append(parts, fmt.Sprintf("transcript: %s/%d", strings.TrimRight(p.cfg.TranscriptLinkBase, "/"), rec.ID))
	}
	return strings.Join(parts, ", ")
}
