package api

import (
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/xuri/excelize/v2"
)

// EarningsReport streams the worker's earnings as an xlsx workbook.
func (h *Handler) EarningsReport(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	earnings, err := h.ledger.ListEarningsByWorker(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Earnings"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Job ID", "Job", "Amount", "Service Fee", "Net", "Status", "Earned", "Paid"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for row, e := range earnings {
		title := ""
		if job, jerr := h.ledger.GetJob(r.Context(), e.JobID); jerr == nil {
			title = job.Title
		}
		paid := ""
		if e.DatePaid.Valid {
			paid = e.DatePaid.Time.Format("2006-01-02")
		}
		values := []any{
			e.JobID, title, e.Amount, e.ServiceFee, e.NetAmount,
			string(e.Status), e.DateEarned.Format("2006-01-02"), paid,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"earnings-%d.xlsx\"", user.ID))
	if err := f.Write(w); err != nil {
		h.log.Error("report write failed", "user_id", user.ID, "error", err)
	}
}

// PayoutAccountQR renders the user's onboarding link as a PNG QR code, for
// handing off onboarding to a phone.
func (h *Handler) PayoutAccountQR(w http.ResponseWriter, r *http.Request) {
	user, _ := CurrentUser(r)
	_, link, err := h.jobs.EnsureConnectedAccount(r.Context(), user.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		h.log.Error("qr encode failed", "user_id", user.ID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
