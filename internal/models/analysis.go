package models

import (
	"time"

	"gorm.io/gorm"
)

// BlockchainData carries the raw on-chain facts an analysis was based on.
type BlockchainData struct {
	AccountAge        string `json:"accountAge,omitempty"`
	CurrentBalance    string `json:"currentBalance,omitempty"`
	TotalReceived     string `json:"totalReceived,omitempty"`
	TotalTransactions int    `json:"totalTransactions,omitempty"`
	UniqueSenders     int    `json:"uniqueSenders,omitempty"`
	AvgSendInterval   string `json:"avgSendInterval,omitempty"`
	DataSource        string `json:"dataSource,omitempty"`
}

// AIAnalysis is the model-generated half of an analysis record.
type AIAnalysis struct {
	Summary         string   `json:"summary,omitempty"`
	KeyFindings     []string `json:"keyFindings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	ModelUsed       string   `json:"modelUsed,omitempty"`
	ProcessingTime  float64  `json:"processingTime,omitempty"`
}

// AnalysisMetadata records how the analysis was produced.
type AnalysisMetadata struct {
	APIVersion         string   `json:"apiVersion,omitempty"`
	EtherscanCalls     int      `json:"etherscanCalls,omitempty"`
	ProcessingDuration float64  `json:"processingDuration,omitempty"`
	ErrorLogs          []string `json:"errorLogs,omitempty"`
}

// Analysis is one fraud-risk assessment of a wallet, owned by the
// requesting user. Public analyses are readable by anyone signed in.
type Analysis struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"index:idx_analysis_user_created;not null" json:"userId"`
	RequestorWallet  string           `gorm:"size:42;index;not null" json:"requestorWallet"`
	AnalyzedWallet   string           `gorm:"size:42;index;not null" json:"analyzedWallet"`
	RiskLevel        string           `gorm:"size:16;index;not null" json:"riskLevel"` // LOW / MEDIUM / HIGH / UNKNOWN
	FraudProbability float64          `gorm:"not null" json:"fraudProbability"`        // 0-100
	Prediction       string           `gorm:"size:16;not null" json:"prediction"`      // NORMAL / FRAUDULENT
	Confidence       string           `gorm:"size:16;not null" json:"confidence"`      // Low / Medium / High
	BlockchainData   BlockchainData   `gorm:"serializer:json" json:"blockchainData"`
	AIAnalysis       AIAnalysis       `gorm:"serializer:json" json:"aiAnalysis"`
	Metadata         AnalysisMetadata `gorm:"serializer:json" json:"metadata"`
	Tags             []string         `gorm:"serializer:json" json:"tags"`
	IsPublic         bool             `gorm:"default:false;index" json:"isPublic"`
	IsDeleted        bool             `gorm:"default:false;index" json:"isDeleted"`
	DeletedAt        *time.Time       `json:"-"`
	CreatedAt        time.Time        `gorm:"index:idx_analysis_user_created" json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// AddTag appends tag if absent.
func (a *Analysis) AddTag(db *gorm.DB, tag string) error {
	for _, t := range a.Tags {
		if t == tag {
			return nil
		}
	}
	a.Tags = append(a.Tags, tag)
	return db.Model(a).Update("tags", a.Tags).Error
}

// RemoveTag drops tag if present.
func (a *Analysis) RemoveTag(db *gorm.DB, tag string) error {
	kept := a.Tags[:0]
	for _, t := range a.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	a.Tags = kept
	return db.Model(a).Update("tags", a.Tags).Error
}

// SoftDelete hides the analysis from history and public listings.
func (a *Analysis) SoftDelete(db *gorm.DB) error {
	now := time.Now()
	a.IsDeleted = true
	a.DeletedAt = &now
	return db.Model(a).Updates(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
	}).Error
}

// FindAnalysesByUser returns a page of the user's analyses, newest
// first, plus the total matching count.
func FindAnalysesByUser(db *gorm.DB, userID uint, riskLevel string, limit, offset int) ([]Analysis, int64, error) {
	base := db.Model(&Analysis{}).Where("user_id = ? AND is_deleted = ?", userID, false)
	if riskLevel != "" {
		base = base.Where("risk_level = ?", riskLevel)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}

	var analyses []Analysis
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&analyses).Error
	return analyses, total, err
}

// RiskDistribution counts analyses per risk level.
type RiskDistribution struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

// AnalysisStats is the per-user analysis rollup.
type AnalysisStats struct {
	TotalAnalyses       int64            `json:"totalAnalyses"`
	RiskDistribution    RiskDistribution `json:"riskDistribution"`
	AvgFraudProbability float64          `json:"avgFraudProbability"`
	UniqueWalletsCount  int64            `json:"uniqueWalletsCount"`
}

// AnalysisStatsForUser aggregates the user's visible analyses.
func AnalysisStatsForUser(db *gorm.DB, userID uint) (AnalysisStats, error) {
	var row struct {
		Total         int64
		High          int64
		Medium        int64
		Low           int64
		AvgProb       float64
		UniqueWallets int64
	}
	err := db.Model(&Analysis{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN risk_level = 'HIGH' THEN 1 ELSE 0 END), 0) AS high, " +
			"COALESCE(SUM(CASE WHEN risk_level = 'MEDIUM' THEN 1 ELSE 0 END), 0) AS medium, " +
			"COALESCE(SUM(CASE WHEN risk_level = 'LOW' THEN 1 ELSE 0 END), 0) AS low, " +
			"COALESCE(AVG(fraud_probability), 0) AS avg_prob, " +
			"COUNT(DISTINCT analyzed_wallet) AS unique_wallets").
		Scan(&row).Error
	if err != nil {
		return AnalysisStats{}, err
	}

	return AnalysisStats{
		TotalAnalyses: row.Total,
		RiskDistribution: RiskDistribution{
			High:   row.High,
			Medium: row.Medium,
			Low:    row.Low,
		},
		AvgFraudProbability: row.AvgProb,
		UniqueWalletsCount:  row.UniqueWallets,
	}, nil
}
