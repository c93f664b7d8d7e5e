package pipeline

import (
	"strings"

	"github.com/spf13/cast"
	"github.com/travelops/callscore/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// parseAnalysis turns the model's reply into a map. Replies wrapped in
// markdown fences are unwrapped first; anything unparseable becomes
// {"summary": raw} so the raw text is never lost.
func parseAnalysis(raw string) map[string]any {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if m := models.DecodeMap(cleaned); m != nil {
		return m
	}
	return map[string]any{"summary": raw}
}

// satisfactionOf reads service_score.expected_satisfaction, defaulting
// to 0 when the model omitted or mangled it.
func satisfactionOf(parsed map[string]any) int {
	score, ok := parsed["service_score"].(map[string]any)
	if !ok {
		return 0
	}
	return cast.ToInt(score["expected_satisfaction"])
}

// yesNo normalizes a model-provided flag to "YES" or "NO".
func yesNo(v any) string {
	s := strings.ToUpper(strings.TrimSpace(cast.ToString(v)))
	switch s {
	case "YES", "NO":
		return s
	}
	if cast.ToBool(v) {
		return "YES"
	}
	return "NO"
}

// UpsertAnalysisExtract writes the flattened analysis row for a call,
// replacing any previous extract for the same call.
func UpsertAnalysisExtract(db *gorm.DB, callID uint, ticketCode string, parsed map[string]any, satisfaction int) error {
	ex := models.AnalysisExtract{
		CallRecordID:                 callID,
		TicketCode:                   ticketCode,
		Summary:                      cast.ToString(parsed["summary"]),
		Satisfaction:                 satisfaction,
		Destination:                  cast.ToString(parsed["destination"]),
		ExchangeRateResistance:       yesNo(parsed["exchange_rate_resistance"]),
		ExchangeRateDetails:          cast.ToString(parsed["exchange_rate_resistance_details"]),
		CompetitorsMentioned:         yesNo(parsed["competitors_mentioned"]),
		CompetitorNames:              cast.ToString(parsed["competitor_names"]),
		PaymentTermsResistance:       yesNo(parsed["payment_terms_resistance"]),
		PaymentTermsDetails:          cast.ToString(parsed["payment_terms_resistance_details"]),
		CancellationPolicyResistance: yesNo(parsed["cancellation_policy_resistance"]),
		CancellationPolicyDetails:    cast.ToString(parsed["cancellation_policy_resistance_details"]),
		AdvisedIndependentBooking:    yesNo(parsed["agent_advised_independent_booking"]),
		AdvisedIndependentDetails:    cast.ToString(parsed["agent_advised_independent_booking_details"]),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "call_record_id"}},
		UpdateAll: true,
	}).Create(&ex).Error
}

// UpsertMessageExtract writes the flattened analysis row for a message
// thread.
func UpsertMessageExtract(db *gorm.DB, analysisID uint, ticketCode string, parsed map[string]any, satisfaction int) error {
	ex := models.MessageExtract{
		MessageAnalysisID:            analysisID,
		TicketCode:                   ticketCode,
		Summary:                      cast.ToString(parsed["summary"]),
		Satisfaction:                 satisfaction,
		ExchangeRateResistance:       yesNo(parsed["exchange_rate_resistance"]),
		ExchangeRateDetails:          cast.ToString(parsed["exchange_rate_resistance_details"]),
		CompetitorsMentioned:         yesNo(parsed["competitors_mentioned"]),
		CompetitorNames:              cast.ToString(parsed["competitor_names"]),
		PaymentTermsResistance:       yesNo(parsed["payment_terms_resistance"]),
		PaymentTermsDetails:          cast.ToString(parsed["payment_terms_resistance_details"]),
		CancellationPolicyResistance: yesNo(parsed["cancellation_policy_resistance"]),
		CancellationPolicyDetails:    cast.ToString(parsed["cancellation_policy_resistance_details"]),
		AdvisedIndependentBooking:    yesNo(parsed["agent_advised_independent_booking"]),
		AdvisedIndependentDetails:    cast.ToString(parsed["agent_advised_independent_booking_details"]),
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_analysis_id"}},
		UpdateAll: true,
	}).Create(&ex).Error
}
