package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
)

type ReportHandler struct {
	h *handlers.Handler
}

func NewReportHandler(h *handlers.Handler) *ReportHandler {
	return &ReportHandler{h: h}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportStockRegister writes the current godown stock register as an
// Excel workbook.
func (rh *ReportHandler) ExportStockRegister(w http.ResponseWriter, r *http.Request) {
	rows, err := rh.h.Store.ListStockRegister(r.Context())
	if err != nil {
		rh.h.Logger.Error("failed to fetch stock register", "error", err)
		config.RespondInternalError(w, err, rh.h.Logger)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Stock Register"
	index, _ := f.NewSheet(sheet)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Godown", "Godown Code", "Material", "Material Code",
		"Unit", "Quantity", "Last Updated",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		n := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.GodownName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.GodownCode)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.MaterialName)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.MaterialCode)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), row.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), row.Quantity.String())
		f.SetCellValue(sheet, fmt.Sprintf("G%d", n), row.UpdatedAt.Format("2006-01-02 15:04"))
	}

	filename := fmt.Sprintf("stock_register_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", xlsxContentType)
	_ = f.Write(w)
}

// ExportPayroll writes one month's payroll sheet as an Excel workbook.
func (rh *ReportHandler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		config.RespondBadRequest(w, "Missing month", "Query parameter month=YYYY-MM is required")
		return
	}
	if _, err := time.Parse("2006-01", month); err != nil {
		config.RespondBadRequest(w, "Invalid month", "Expected YYYY-MM")
		return
	}

	rows, err := rh.h.Store.ListPayrollReport(r.Context(), month)
	if err != nil {
		rh.h.Logger.Error("failed to fetch payroll report", "error", err, "month", month)
		config.RespondInternalError(w, err, rh.h.Logger)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payroll " + month
	index, _ := f.NewSheet(sheet)
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Worker", "Trade", "Days Present", "Daily Wage",
		"Wage Amount", "Incentives", "Total", "Paid On",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		n := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.WorkerName)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.Trade)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.DaysPresent.String())
		f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.DailyWage.String())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", n), row.WageAmount.String())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", n), row.Incentives.String())
		f.SetCellValue(sheet, fmt.Sprintf("G%d", n), row.TotalAmount.String())
		if row.PaidOn != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", n), row.PaidOn.Format("2006-01-02"))
		}
	}

	filename := fmt.Sprintf("payroll_%s.xlsx", month)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", xlsxContentType)
	_ = f.Write(w)
}
