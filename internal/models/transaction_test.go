package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Transaction{}, &Analysis{}, &Conversation{}, &Message{}))
	return db
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Uống cà phê với bạn", "food_drink"},
		{"Trà sữa chiều", "food_drink"},
		{"cafe sáng", "food_drink"},
		{"Đóng học phí kỳ 1", "education"},
		{"Mua sách giáo khoa", "education"},
		{"Nhận lương tháng 8", "income"},
		{"Tiền làm thêm cuối tuần", "income"},
		{"Đổ xăng", "transport"},
		{"Đi grab về nhà", "transport"},
		{"Nạp điện thoại", "utilities"},
		{"Tiền internet tháng này", "utilities"},
		{"Mua quà sinh nhật", "other"},
	}

	for _, tc := range cases {
		tx := Transaction{Description: tc.description}
		tx.Categorize()
		assert.Equal(t, tc.want, tx.Category, tc.description)
	}
}

func seedTx(t *testing.T, db *gorm.DB, userID uint, txType string, amount float64, date time.Time) *Transaction {
	t.Helper()
	tx := &Transaction{
		UserID:        userID,
		WalletAddress: "0xabcdef1234567890abcdef1234567890abcdef12",
		Type:          txType,
		Amount:        amount,
		Description:   "seed",
		Category:      "other",
		Date:          date,
	}
	require.NoError(t, db.Create(tx).Error)
	return tx
}

func TestFindTransactionsByUserExcludesSoftDeleted(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	kept := seedTx(t, db, 1, "expense", 100, now)
	gone := seedTx(t, db, 1, "expense", 200, now.Add(-time.Hour))
	seedTx(t, db, 2, "expense", 300, now)
	require.NoError(t, gone.SoftDelete(db))

	txs, total, err := FindTransactionsByUser(db, 1, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, kept.ID, txs[0].ID)

	// other users' data is untouched
	_, otherTotal, err := FindTransactionsByUser(db, 2, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherTotal)
}

func TestFindTransactionsByUserPagination(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedTx(t, db, 1, "expense", float64(i+1), now.Add(-time.Duration(i)*time.Hour))
	}

	first, total, err := FindTransactionsByUser(db, 1, TransactionFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, first, 2)

	second, _, err := FindTransactionsByUser(db, 1, TransactionFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second, 2)

	third, _, err := FindTransactionsByUser(db, 1, TransactionFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, third, 1)

	// pages are disjoint, newest-first, and together cover every record
	seen := map[uint]bool{}
	for _, tx := range append(append(first, second...), third...) {
		assert.False(t, seen[tx.ID])
		seen[tx.ID] = true
	}
	assert.Len(t, seen, 5)
	assert.True(t, first[0].Date.After(second[0].Date))
}

func TestFindTransactionsByUserFilters(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedTx(t, db, 1, "income", 500, now)
	seedTx(t, db, 1, "expense", 100, now)
	seedTx(t, db, 2, "expense", 999, now)

	txs, total, err := FindTransactionsByUser(db, 1, TransactionFilter{Type: "income"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txs, 1)
	assert.Equal(t, "income", txs[0].Type)
}

func TestSummarizeTransactions(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedTx(t, db, 1, "income", 1000, now)
	seedTx(t, db, 1, "expense", 300, now)
	seedTx(t, db, 1, "expense", 200, now)
	deleted := seedTx(t, db, 1, "expense", 9999, now)
	require.NoError(t, deleted.SoftDelete(db))

	summary, err := SummarizeTransactions(db, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), summary.TotalIncome)
	assert.Equal(t, float64(500), summary.TotalExpenses)
	assert.Equal(t, float64(500), summary.NetAmount)
	assert.Equal(t, int64(1), summary.TransactionCount.Income)
	assert.Equal(t, int64(2), summary.TransactionCount.Expenses)
	assert.Equal(t, int64(3), summary.TransactionCount.Total)
}

func TestSummarizeTransactionsDateRange(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	seedTx(t, db, 1, "expense", 100, now)
	seedTx(t, db, 1, "expense", 200, now.AddDate(0, -2, 0))

	start := now.AddDate(0, -1, 0)
	summary, err := SummarizeTransactions(db, 1, &start, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(100), summary.TotalExpenses)
}

func TestCategoryBreakdown(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	a := seedTx(t, db, 1, "expense", 100, now)
	require.NoError(t, db.Model(a).Update("category", "food_drink").Error)
	b := seedTx(t, db, 1, "expense", 300, now)
	require.NoError(t, db.Model(b).Update("category", "transport").Error)
	c := seedTx(t, db, 1, "expense", 50, now)
	require.NoError(t, db.Model(c).Update("category", "food_drink").Error)

	rows, err := CategoryBreakdown(db, 1, "expense")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// largest total first
	assert.Equal(t, "transport", rows[0].Category)
	assert.Equal(t, float64(300), rows[0].Total)
	assert.Equal(t, "food_drink", rows[1].Category)
	assert.Equal(t, float64(150), rows[1].Total)
	assert.Equal(t, int64(2), rows[1].Count)
	assert.Equal(t, float64(75), rows[1].AvgAmount)
}

func TestBumpStat(t *testing.T) {
	db := newTestDB(t)
	user := &User{WalletAddress: "0xabcdef1234567890abcdef1234567890abcdef12", Name: "Test", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, user.BumpStat(db, "transaction"))
	require.NoError(t, user.BumpStatBy(db, "transaction", 3))
	require.NoError(t, user.BumpStat(db, "analysis"))

	var reloaded User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, 4, reloaded.Stats.TotalTransactions)
	assert.Equal(t, 1, reloaded.Stats.TotalAnalyses)
	assert.Equal(t, 0, reloaded.Stats.TotalConversations)
}
