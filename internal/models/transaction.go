package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Transaction metadata sources.
const (
	SourceManual     = "manual"
	SourceAIParsed   = "ai_parsed"
	SourceBulkImport = "bulk_import"
	SourceImmutable  = "blockchain_immutable"
)

// ChainRecord is the locally hashed "immutable" record attached to
// blockchain-flavored transactions. The hash is computed in-process,
// nothing is anchored on-chain.
type ChainRecord struct {
	UserAddress   string  `json:"user_address"`
	Timestamp     string  `json:"timestamp"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	TransactionID string  `json:"transaction_id"`
	BlockNumber   int64   `json:"block_number"`
}

// TransactionMetadata is tagged by Source; the blockchain fields are
// only populated for blockchain_immutable records.
type TransactionMetadata struct {
	Source             string       `json:"source"`
	OriginalInput      string       `json:"originalInput,omitempty"`
	Confidence         float64      `json:"confidence,omitempty"`
	BlockchainHash     string       `json:"blockchainHash,omitempty"`
	BlockNumber        int64        `json:"blockNumber,omitempty"`
	BlockchainRecord   *ChainRecord `json:"blockchainRecord,omitempty"`
	BlockchainStatus   string       `json:"blockchainStatus,omitempty"`
	VerificationStatus string       `json:"verificationStatus,omitempty"`
	Immutable          bool         `json:"immutable,omitempty"`
}

// Transaction is a single income or expense record owned by a user.
type Transaction struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	UserID        uint                `gorm:"index:idx_tx_user_date;not null" json:"userId"`
	WalletAddress string              `gorm:"size:42;index;not null" json:"walletAddress"`
	Type          string              `gorm:"size:16;index;not null" json:"type"` // income / expense
	Amount        float64             `gorm:"not null" json:"amount"`
	Description   string              `gorm:"size:500;not null" json:"description"`
	Category      string              `gorm:"size:100;default:other" json:"category"`
	Tags          []string            `gorm:"serializer:json" json:"tags"`
	Metadata      TransactionMetadata `gorm:"serializer:json" json:"metadata"`
	Date          time.Time           `gorm:"index:idx_tx_user_date" json:"date"`
	IsDeleted     bool                `gorm:"default:false;index" json:"isDeleted"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Categorize assigns a category from description keywords when the
// caller supplied none. Keyword lists mirror the product's Vietnamese
// student audience.
func (t *Transaction) Categorize() {
	desc := strings.ToLower(t.Description)

	switch {
	case containsAny(desc, "cafe", "cà phê", "trà sữa"):
		t.Category = "food_drink"
	case containsAny(desc, "học phí", "sách", "văn phòng phẩm"):
		t.Category = "education"
	case containsAny(desc, "lương", "thưởng", "làm thêm"):
		t.Category = "income"
	case containsAny(desc, "xe", "xăng", "grab"):
		t.Category = "transport"
	case containsAny(desc, "điện thoại", "internet", "điện"):
		t.Category = "utilities"
	default:
		t.Category = "other"
	}
}

// SoftDelete hides the record from all owner-scoped queries.
func (t *Transaction) SoftDelete(db *gorm.DB) error {
	t.IsDeleted = true
	return db.Model(t).Update("is_deleted", true).Error
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TransactionFilter narrows owner-scoped transaction queries.
type TransactionFilter struct {
	Type      string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

func (f TransactionFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", *f.EndDate)
	}
	return q
}

// FindTransactionsByUser returns a page of the user's visible
// transactions, newest first, plus the total matching count.
func FindTransactionsByUser(db *gorm.DB, userID uint, f TransactionFilter) ([]Transaction, int64, error) {
	base := f.apply(db.Model(&Transaction{}).Where("user_id = ? AND is_deleted = ?", userID, false))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := base.Session(&gorm.Session{}).
		Order("date DESC, id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&txs).Error
	return txs, total, err
}

// TransactionCounts breaks the transaction count down by type.
type TransactionCounts struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
	Total    int64 `json:"total"`
}

// Summary is the income/expense rollup for a period.
type Summary struct {
	TotalIncome      float64           `json:"total_income"`
	TotalExpenses    float64           `json:"total_expenses"`
	NetAmount        float64           `json:"net_amount"`
	TransactionCount TransactionCounts `json:"transaction_count"`
}

// SummarizeTransactions aggregates the user's visible transactions
// within the optional date range.
func SummarizeTransactions(db *gorm.DB, userID uint, start, end *time.Time) (Summary, error) {
	q := db.Model(&Transaction{}).Where("user_id = ? AND is_deleted = ?", userID, false)
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}

	var row struct {
		Income       float64
		Expenses     float64
		IncomeCount  int64
		ExpenseCount int64
	}
	err := q.Select(
		"COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0) AS income, " +
			"COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0) AS expenses, " +
			"COALESCE(SUM(CASE WHEN type = 'income' THEN 1 ELSE 0 END), 0) AS income_count, " +
			"COALESCE(SUM(CASE WHEN type = 'expense' THEN 1 ELSE 0 END), 0) AS expense_count").
		Scan(&row).Error
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		TotalIncome:   row.Income,
		TotalExpenses: row.Expenses,
		NetAmount:     row.Income - row.Expenses,
		TransactionCount: TransactionCounts{
			Income:   row.IncomeCount,
			Expenses: row.ExpenseCount,
			Total:    row.IncomeCount + row.ExpenseCount,
		},
	}, nil
}

// CategoryTotal is one row of the per-category rollup.
type CategoryTotal struct {
	Category  string  `json:"category"`
	Total     float64 `json:"total"`
	Count     int64   `json:"count"`
	AvgAmount float64 `json:"avgAmount"`
}

// CategoryBreakdown groups the user's visible transactions by
// category, largest total first. txType optionally narrows to
// income or expense.
func CategoryBreakdown(db *gorm.DB, userID uint, txType string) ([]CategoryTotal, error) {
	q := db.Model(&Transaction{}).Where("user_id = ? AND is_deleted = ?", userID, false)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}

	var rows []CategoryTotal
	err := q.Select("category, SUM(amount) AS total, COUNT(*) AS count, AVG(amount) AS avg_amount").
		Group("category").
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}

// MonthlyTypeTotal is one month's total for one transaction type.
type MonthlyTypeTotal struct {
	Month string  `json:"month"` // YYYY-MM
	Type  string  `json:"type"`
	Total float64 `json:"total"`
}

// MonthlyTotals groups visible transactions by month and type since
// the given time, for monthly-average calculations.
func MonthlyTotals(db *gorm.DB, userID uint, since time.Time) ([]MonthlyTypeTotal, error) {
	var rows []MonthlyTypeTotal
	err := db.Model(&Transaction{}).
		Where("user_id = ? AND is_deleted = ? AND date >= ?", userID, false, since).
		Select("strftime('%Y-%m', date) AS month, type, SUM(amount) AS total").
		Group("month, type").
		Scan(&rows).Error
	return rows, err
}
