package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FinanceHandler owns the transaction routes.
type FinanceHandler struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewFinanceHandler(db *gorm.DB, log *logrus.Logger) *FinanceHandler {
	return &FinanceHandler{DB: db, Log: log}
}

type transactionMetaReq struct {
	OriginalInput string  `json:"originalInput"`
	Confidence    float64 `json:"confidence" binding:"omitempty,min=0,max=1"`
}

type createTransactionReq struct {
	Type        string              `json:"type" binding:"required,oneof=income expense"`
	Amount      float64             `json:"amount" binding:"required,gt=0"`
	Description string              `json:"description" binding:"required,min=1,max=500"`
	Category    string              `json:"category" binding:"omitempty,max=100"`
	Tags        []string            `json:"tags" binding:"omitempty,dive,max=50"`
	Metadata    *transactionMetaReq `json:"metadata"`
}

func (r *createTransactionReq) toModel(user *models.User, source string) models.Transaction {
	tx := models.Transaction{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Type:          r.Type,
		Amount:        r.Amount,
		Description:   r.Description,
		Category:      r.Category,
		Tags:          r.Tags,
		Date:          time.Now(),
		Metadata: models.TransactionMetadata{
			Source:        source,
			OriginalInput: r.Description,
			Confidence:    0.95,
		},
	}
	if r.Metadata != nil {
		if r.Metadata.OriginalInput != "" {
			tx.Metadata.OriginalInput = r.Metadata.OriginalInput
		}
		if r.Metadata.Confidence > 0 {
			tx.Metadata.Confidence = r.Metadata.Confidence
		}
	}
	if tx.Category == "" {
		tx.Categorize()
	}
	return tx
}

// CreateTransaction records one transaction, auto-categorizing when no
// category is supplied, and bumps the owner's transaction counter.
func (h *FinanceHandler) CreateTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	tx := req.toModel(user, models.SourceAIParsed)
	if err := h.DB.Create(&tx).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add transaction")
		return
	}

	if err := user.BumpStat(h.DB, "transaction"); err != nil {
		h.Log.WithError(err).Warn("bump transaction counter")
	}

	util.Created(c, "Transaction added successfully", util.Response{"transaction": tx})
}

// ListTransactions returns a filtered page of the user's visible
// transactions.
func (h *FinanceHandler) ListTransactions(c *gin.Context) {
	user := middleware.CurrentUser(c)

	limit, offset, ferr := util.ParseLimitOffset(c, 50, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	txType := c.Query("type")
	if txType != "" && txType != "income" && txType != "expense" {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "type", Message: "Type must be either income or expense"},
		})
		return
	}

	start, ferr := dateQuery(c, "startDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}
	end, ferr := dateQuery(c, "endDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	txs, total, err := models.FindTransactionsByUser(h.DB, user.ID, models.TransactionFilter{
		Type:      txType,
		Category:  c.Query("category"),
		StartDate: start,
		EndDate:   end,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get transactions")
		return
	}

	util.OK(c, util.Response{
		"transactions": txs,
		"pagination":   util.NewPagination(total, limit, offset),
	})
}

// GetSummary returns the income/expense rollup for an optional range.
func (h *FinanceHandler) GetSummary(c *gin.Context) {
	user := middleware.CurrentUser(c)

	start, ferr := dateQuery(c, "startDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}
	end, ferr := dateQuery(c, "endDate")
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	summary, err := models.SummarizeTransactions(h.DB, user.ID, start, end)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get financial summary")
		return
	}

	util.OK(c, util.Response{
		"total_income":      summary.TotalIncome,
		"total_expenses":    summary.TotalExpenses,
		"net_amount":        summary.NetAmount,
		"transaction_count": summary.TransactionCount,
	})
}

// GetCategories returns the per-category rollup, optionally narrowed
// by type.
func (h *FinanceHandler) GetCategories(c *gin.Context) {
	user := middleware.CurrentUser(c)

	categories, err := models.CategoryBreakdown(h.DB, user.ID, c.Query("type"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get category breakdown")
		return
	}

	util.OK(c, util.Response{"categories": categories})
}

// UpdateTransaction rewrites an owned, visible transaction.
func (h *FinanceHandler) UpdateTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid transaction ID"}})
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	var tx models.Transaction
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Transaction not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to update transaction")
		}
		return
	}

	tx.Type = req.Type
	tx.Amount = req.Amount
	tx.Description = req.Description
	if req.Category != "" {
		tx.Category = req.Category
	}
	if req.Tags != nil {
		tx.Tags = req.Tags
	}

	if err := h.DB.Save(&tx).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	util.OKMessage(c, "Transaction updated successfully", util.Response{"transaction": tx})
}

// DeleteTransaction flips the soft-delete flag; nothing is removed.
func (h *FinanceHandler) DeleteTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid transaction ID"}})
		return
	}

	var tx models.Transaction
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&tx).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Transaction not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to delete transaction")
		}
		return
	}

	if err := tx.SoftDelete(h.DB); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	util.OKMessage(c, "Transaction deleted successfully", nil)
}

type insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GetInsights compares the last 30 days with the 30 before and emits
// trend warnings plus top spending categories.
func (h *FinanceHandler) GetInsights(c *gin.Context) {
	user := middleware.CurrentUser(c)

	now := time.Now()
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sixtyDaysAgo := now.AddDate(0, 0, -60)

	current, err := models.SummarizeTransactions(h.DB, user.ID, &thirtyDaysAgo, nil)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get financial insights")
		return
	}
	previous, err := models.SummarizeTransactions(h.DB, user.ID, &sixtyDaysAgo, &thirtyDaysAgo)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get financial insights")
		return
	}
	categories, err := models.CategoryBreakdown(h.DB, user.ID, "expense")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get financial insights")
		return
	}

	var incomeChange, expenseChange float64
	if previous.TotalIncome > 0 {
		incomeChange = (current.TotalIncome - previous.TotalIncome) / previous.TotalIncome * 100
	}
	if previous.TotalExpenses > 0 {
		expenseChange = (current.TotalExpenses - previous.TotalExpenses) / previous.TotalExpenses * 100
	}

	insights := []insight{}
	if incomeChange > 10 {
		insights = append(insights, insight{
			Type:        "positive",
			Title:       "Thu nhập tăng trưởng tốt",
			Description: fmt.Sprintf("Thu nhập tháng này tăng %.1f%% so với tháng trước", incomeChange),
		})
	}
	if expenseChange > 20 {
		insights = append(insights, insight{
			Type:        "warning",
			Title:       "Chi tiêu tăng cao",
			Description: fmt.Sprintf("Chi tiêu tháng này tăng %.1f%% so với tháng trước", expenseChange),
		})
	}
	if current.TotalExpenses > current.TotalIncome {
		insights = append(insights, insight{
			Type:        "alert",
			Title:       "Chi tiêu vượt thu nhập",
			Description: "Bạn đang chi tiêu nhiều hơn thu nhập trong tháng này",
		})
	}

	top := categories
	if len(top) > 3 {
		top = top[:3]
	}

	util.OK(c, util.Response{
		"current_period":  current,
		"previous_period": previous,
		"trends": util.Response{
			"income_change":  incomeChange,
			"expense_change": expenseChange,
		},
		"insights":                insights,
		"top_spending_categories": top,
	})
}

type bulkReq struct {
	Transactions []createTransactionReq `json:"transactions" binding:"required,min=1,max=50,dive"`
}

// BulkCreate inserts up to 50 transactions in one call and bumps the
// counter by the inserted count.
func (h *FinanceHandler) BulkCreate(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req bulkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	txs := make([]models.Transaction, 0, len(req.Transactions))
	for i := range req.Transactions {
		tx := req.Transactions[i].toModel(user, models.SourceBulkImport)
		tx.Metadata.Confidence = 0.9
		txs = append(txs, tx)
	}

	if err := h.DB.Create(&txs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add transactions")
		return
	}

	if err := user.BumpStatBy(h.DB, "transaction", len(txs)); err != nil {
		h.Log.WithError(err).Warn("bump transaction counter")
	}

	util.Created(c, fmt.Sprintf("%d transactions added successfully", len(txs)), util.Response{
		"count":        len(txs),
		"transactions": txs,
	})
}

// GetDailyExpenses lists expenses on a single calendar day (today by
// default).
func (h *FinanceHandler) GetDailyExpenses(c *gin.Context) {
	user := middleware.CurrentUser(c)

	target := time.Now()
	if d, ferr := dateQuery(c, "date"); ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	} else if d != nil {
		target = *d
	}

	startOfDay, endOfDay := dayBounds(target)

	var expenses []models.Transaction
	err := h.DB.Where("user_id = ? AND type = ? AND is_deleted = ? AND date BETWEEN ? AND ?",
		user.ID, "expense", false, startOfDay, endOfDay).
		Order("date ASC").
		Find(&expenses).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get daily expenses")
		return
	}

	var totalAmount float64
	for _, e := range expenses {
		totalAmount += e.Amount
	}

	util.OK(c, util.Response{
		"date":        target.Format("2006-01-02"),
		"expenses":    expenses,
		"totalAmount": totalAmount,
		"count":       len(expenses),
	})
}

// GetMonthlyExpenses summarizes the current calendar month.
func (h *FinanceHandler) GetMonthlyExpenses(c *gin.Context) {
	user := middleware.CurrentUser(c)

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0).Add(-time.Nanosecond)

	summary, err := models.SummarizeTransactions(h.DB, user.ID, &startOfMonth, &endOfMonth)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get monthly expenses")
		return
	}

	categories, err := models.CategoryBreakdown(h.DB, user.ID, "expense")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get monthly expenses")
		return
	}
	if len(categories) > 5 {
		categories = categories[:5]
	}

	util.OK(c, util.Response{
		"month":            int(now.Month()),
		"year":             now.Year(),
		"totalExpenses":    summary.TotalExpenses,
		"totalIncome":      summary.TotalIncome,
		"netAmount":        summary.NetAmount,
		"transactionCount": summary.TransactionCount,
		"categories":       categories,
	})
}

// GetTodaySummary returns today's transactions with totals.
func (h *FinanceHandler) GetTodaySummary(c *gin.Context) {
	user := middleware.CurrentUser(c)

	startOfDay, endOfDay := dayBounds(time.Now())

	var txs []models.Transaction
	err := h.DB.Where("user_id = ? AND is_deleted = ? AND date BETWEEN ? AND ?",
		user.ID, false, startOfDay, endOfDay).
		Order("date DESC").
		Find(&txs).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get today summary")
		return
	}

	var totalIncome, totalExpenses float64
	var incomeCount, expenseCount int64
	for _, tx := range txs {
		if tx.Type == "income" {
			totalIncome += tx.Amount
			incomeCount++
		} else {
			totalExpenses += tx.Amount
			expenseCount++
		}
	}

	util.OK(c, util.Response{
		"date":          startOfDay.Format("2006-01-02"),
		"totalIncome":   totalIncome,
		"totalExpenses": totalExpenses,
		"netAmount":     totalIncome - totalExpenses,
		"transactionCount": models.TransactionCounts{
			Income:   incomeCount,
			Expenses: expenseCount,
			Total:    int64(len(txs)),
		},
		"transactions": txs,
	})
}

// CreateBlockchainTransaction stores a transaction plus a locally
// hashed record. The hash is sha256 over the canonical record JSON;
// despite the naming inherited from the product, nothing is written
// on-chain.
func (h *FinanceHandler) CreateBlockchainTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	tx := req.toModel(user, models.SourceImmutable)
	tx.Metadata.BlockchainStatus = "pending"
	if err := h.DB.Create(&tx).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to save transaction to blockchain")
		return
	}

	signedAmount := req.Amount
	recordCategory := "thu"
	if req.Type == "expense" {
		signedAmount = -req.Amount
		recordCategory = "chi"
	}

	record := models.ChainRecord{
		UserAddress:   user.WalletAddress,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Amount:        signedAmount,
		Description:   req.Description,
		Category:      recordCategory,
		TransactionID: fmt.Sprintf("%d", tx.ID),
		BlockNumber:   int64(rand.Intn(1000000)) + 1000000,
	}

	hash, err := hashChainRecord(record)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to save transaction to blockchain")
		return
	}

	tx.Metadata.BlockchainStatus = "confirmed"
	tx.Metadata.BlockchainHash = hash
	tx.Metadata.BlockNumber = record.BlockNumber
	tx.Metadata.BlockchainRecord = &record
	tx.Metadata.Immutable = true
	tx.Metadata.VerificationStatus = "IMMUTABLE_CONFIRMED"

	if err := h.DB.Model(&tx).Update("metadata", tx.Metadata).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to save transaction to blockchain")
		return
	}

	if err := user.BumpStat(h.DB, "transaction"); err != nil {
		h.Log.WithError(err).Warn("bump transaction counter")
	}

	util.Created(c, "Transaction saved to blockchain successfully", util.Response{
		"transaction": tx,
		"blockchain": util.Response{
			"user_address":        record.UserAddress,
			"timestamp":           record.Timestamp,
			"amount":              record.Amount,
			"description":         record.Description,
			"category":            record.Category,
			"transaction_id":      record.TransactionID,
			"block_number":        record.BlockNumber,
			"hash":                hash,
			"immutable":           true,
			"created_at":          record.Timestamp,
			"verification_status": "IMMUTABLE_CONFIRMED",
		},
	})
}

// hashChainRecord produces the deterministic sha256 hash of a record.
// Struct field order fixes the JSON key order, so the hash is stable.
func hashChainRecord(record models.ChainRecord) (string, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal chain record: %w", err)
	}
	sum := sha256.Sum256(payload)
	return "0x" + hex.EncodeToString(sum[:]), nil
}

// categoryDisplayNames maps storage categories to the product's
// Vietnamese labels.
var categoryDisplayNames = map[string]string{
	"food_drink":    "Ăn uống",
	"transport":     "Đi lại",
	"education":     "Học phí",
	"utilities":     "Điện nước, mạng",
	"healthcare":    "Y tế",
	"entertainment": "Giải trí",
	"shopping":      "Mua sắm",
	"housing":       "Tiền nhà",
	"other":         "Khác",
}

// GetDetailedSummary is the all-time rollup used by the smart-planning
// feature: totals, display-named category breakdown, three-month
// averages and recent transactions.
func (h *FinanceHandler) GetDetailedSummary(c *gin.Context) {
	user := middleware.CurrentUser(c)

	summary, err := models.SummarizeTransactions(h.DB, user.ID, nil, nil)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get detailed financial summary")
		return
	}

	breakdown, err := models.CategoryBreakdown(h.DB, user.ID, "expense")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get detailed financial summary")
		return
	}
	formatted := map[string]float64{}
	for _, cat := range breakdown {
		name, ok := categoryDisplayNames[cat.Category]
		if !ok {
			name = categoryDisplayNames["other"]
		}
		formatted[name] += cat.Total
	}

	var recent []models.Transaction
	err = h.DB.Where("user_id = ? AND is_deleted = ?", user.ID, false).
		Order("date DESC").
		Limit(50).
		Find(&recent).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get detailed financial summary")
		return
	}

	threeMonthsAgo := time.Now().AddDate(0, -3, 0)
	monthly, err := models.MonthlyTotals(h.DB, user.ID, threeMonthsAgo)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get detailed financial summary")
		return
	}

	sums := map[string]float64{}
	months := map[string]int{}
	for _, row := range monthly {
		sums[row.Type] += row.Total
		months[row.Type]++
	}
	averages := map[string]float64{"income": 0, "expenses": 0}
	if n := months["income"]; n > 0 {
		averages["income"] = sums["income"] / float64(n)
	}
	if n := months["expense"]; n > 0 {
		averages["expenses"] = sums["expense"] / float64(n)
	}

	util.OK(c, util.Response{
		"total_income":        summary.TotalIncome,
		"total_expenses":      summary.TotalExpenses,
		"net_amount":          summary.NetAmount,
		"transaction_count":   summary.TransactionCount,
		"category_breakdown":  formatted,
		"monthly_averages":    averages,
		"recent_transactions": recent,
		"analysis_period": util.Response{
			"start_date": threeMonthsAgo.Format(time.RFC3339),
			"end_date":   time.Now().Format(time.RFC3339),
		},
	})
}
