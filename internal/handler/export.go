package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"github.com/travelops/callscore/pkg/response"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var exportHeaders = []string{
	"Call ID", "Ticket", "Summary", "Satisfaction", "Destination",
	"Exchange Rate Resistance", "Exchange Rate Details",
	"Competitors Mentioned", "Competitor Names",
	"Payment Terms Resistance", "Payment Terms Details",
	"Cancellation Policy Resistance", "Cancellation Policy Details",
	"Advised Independent Booking", "Advised Independent Details",
	"Created At",
}

// exportAnalysis streams every analysis extract as an XLSX workbook.
func (h *Handlers) exportAnalysis(c *gin.Context) {
	query := h.db.Model(&models.AnalysisExtract{}).Order("id asc")
	if ticket := c.Query("ticket"); ticket != "" {
		query = query.Where("ticket_code = ?", ticket)
	}

	var extracts []models.AnalysisExtract
	if err := query.Find(&extracts).Error; err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Analysis"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, ex := range extracts {
		values := []any{
			ex.CallRecordID, ex.TicketCode, ex.Summary, ex.Satisfaction, ex.Destination,
			ex.ExchangeRateResistance, ex.ExchangeRateDetails,
			ex.CompetitorsMentioned, ex.CompetitorNames,
			ex.PaymentTermsResistance, ex.PaymentTermsDetails,
			ex.CancellationPolicyResistance, ex.CancellationPolicyDetails,
			ex.AdvisedIndependentBooking, ex.AdvisedIndependentDetails,
			ex.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("call-analysis-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		logger.Error("xlsx export failed", zap.Error(err))
	}
}
