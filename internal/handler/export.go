package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

func (h *FinanceHandler) exportRows(c *gin.Context) ([]models.Transaction, bool) {
	user := middleware.CurrentUser(c)

	start, ferr := dateQuery(c, "startDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return nil, false
	}
	end, ferr := dateQuery(c, "endDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return nil, false
	}

	q := h.DB.Where("user_id = ? AND is_deleted = ?", user.ID, false)
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}

	var txs []models.Transaction
	if err := q.Order("date DESC").Find(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export transactions")
		return nil, false
	}
	return txs, true
}

func exportTypeLabel(txType string) string {
	if txType == "income" {
		return "Thu nhập"
	}
	return "Chi tiêu"
}

// ExportCSV streams the user's transactions as CSV. The BOM keeps
// Excel from mangling the Vietnamese text.
func (h *FinanceHandler) ExportCSV(c *gin.Context) {
	txs, ok := h.exportRows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Loại", "Danh mục", "Số tiền (VND)", "Mô tả", "Ngày"})
	for _, tx := range txs {
		writer.Write([]string{
			exportTypeLabel(tx.Type),
			tx.Category,
			strconv.FormatFloat(tx.Amount, 'f', 0, 64),
			tx.Description,
			tx.Date.Format("2006-01-02"),
		})
	}
}

// ExportXLSX streams the user's transactions as a spreadsheet.
func (h *FinanceHandler) ExportXLSX(c *gin.Context) {
	txs, ok := h.exportRows(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Giao dịch"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to export transactions")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Loại", "Danh mục", "Số tiền (VND)", "Mô tả", "Ngày"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for idx, tx := range txs {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), exportTypeLabel(tx.Type))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), tx.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), tx.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), tx.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), tx.Date.Format("2006-01-02"))
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 15)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 40)
	f.SetColWidth(sheetName, "E", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		h.Log.WithError(err).Error("write xlsx export")
	}
}
