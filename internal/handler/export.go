package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/middleware"
	"github.com/nunocpr/PersonalFinance/internal/models"
	"github.com/nunocpr/PersonalFinance/internal/money"
	"github.com/nunocpr/PersonalFinance/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler streams the user's transactions as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeader = []string{"Date", "Account", "Category", "Kind", "Amount", "Description", "Notes", "Transfer"}

type exportRow struct {
	tx       models.Transaction
	account  string
	category string
}

func (h *ExportHandler) loadRows(userID uint) ([]exportRow, error) {
	var txs []models.Transaction
	err := h.DB.Model(&models.Transaction{}).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", userID).
		Order("transactions.date DESC, transactions.created_at DESC").
		Find(&txs).Error
	if err != nil {
		return nil, err
	}

	accountNames := make(map[uint]string)
	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}

	categoryNames := make(map[uint]string)
	var categories []models.Category
	if err := h.DB.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, err
	}
	for _, cat := range categories {
		categoryNames[cat.ID] = cat.Name
	}

	rows := make([]exportRow, 0, len(txs))
	for _, t := range txs {
		r := exportRow{tx: t, account: accountNames[t.AccountID]}
		if t.CategoryID != nil {
			r.category = categoryNames[*t.CategoryID]
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (r exportRow) cells() []string {
	transfer := ""
	if r.tx.TransferID != nil {
		transfer = *r.tx.TransferID
	}
	return []string{
		r.tx.Date.Format("2006-01-02"),
		r.account,
		r.category,
		r.tx.Kind,
		money.FormatCents(r.tx.Amount),
		r.tx.Description,
		r.tx.Notes,
		transfer,
	}
}

// ExportCSV writes all transactions as a CSV attachment.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rows, err := h.loadRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write(exportHeader)
	for _, r := range rows {
		_ = writer.Write(r.cells())
	}
}

// ExportXLSX writes all transactions as an Excel attachment.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	rows, err := h.loadRows(user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Transactions"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
		return
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}
	for i, r := range rows {
		for col, val := range r.cells() {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(sheet, cell, val)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, "server error")
	}
}
