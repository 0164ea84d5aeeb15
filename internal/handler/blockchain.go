package handler

import (
	"net/http"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BlockchainHandler owns the wallet fraud-analysis routes.
type BlockchainHandler struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewBlockchainHandler(db *gorm.DB, log *logrus.Logger) *BlockchainHandler {
	return &BlockchainHandler{DB: db, Log: log}
}

type saveAnalysisReq struct {
	WalletAddress    string                  `json:"walletAddress" binding:"required"`
	RiskLevel        string                  `json:"riskLevel" binding:"required,oneof=LOW MEDIUM HIGH UNKNOWN"`
	FraudProbability float64                 `json:"fraudProbability" binding:"min=0,max=100"`
	Prediction       string                  `json:"prediction" binding:"required,oneof=NORMAL FRAUDULENT"`
	Confidence       string                  `json:"confidence" binding:"omitempty,oneof=Low Medium High"`
	BlockchainData   models.BlockchainData   `json:"blockchainData"`
	AIAnalysis       models.AIAnalysis       `json:"aiAnalysis"`
	Metadata         models.AnalysisMetadata `json:"metadata"`
	Tags             []string                `json:"tags" binding:"omitempty,dive,max=50"`
	IsPublic         bool                    `json:"isPublic"`
}

// SaveAnalysis stores a completed analysis. A repeat of the same
// wallet within the last hour is rejected and the existing record
// returned, so the client can show it instead of double-saving.
func (h *BlockchainHandler) SaveAnalysis(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req saveAnalysisReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	analyzed, err := util.NormalizeEthAddress(req.WalletAddress)
	if err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "walletAddress", Message: "Invalid Ethereum address format"},
		})
		return
	}

	oneHourAgo := time.Now().Add(-time.Hour)
	var existing models.Analysis
	err = h.DB.Where("user_id = ? AND analyzed_wallet = ? AND is_deleted = ? AND created_at > ?",
		user.ID, analyzed, false, oneHourAgo).
		Order("created_at DESC").
		First(&existing).Error
	switch {
	case err == nil:
		util.Conflict(c, "Analysis for this wallet already exists (analyzed within the last hour)", util.Response{
			"existing_analysis": existing,
		})
		return
	case err != gorm.ErrRecordNotFound:
		util.Error(c, http.StatusInternalServerError, "Failed to save analysis")
		return
	}

	if req.Confidence == "" {
		req.Confidence = "Medium"
	}

	analysis := models.Analysis{
		UserID:           user.ID,
		RequestorWallet:  user.WalletAddress,
		AnalyzedWallet:   analyzed,
		RiskLevel:        req.RiskLevel,
		FraudProbability: req.FraudProbability,
		Prediction:       req.Prediction,
		Confidence:       req.Confidence,
		BlockchainData:   req.BlockchainData,
		AIAnalysis:       req.AIAnalysis,
		Metadata:         req.Metadata,
		Tags:             req.Tags,
		IsPublic:         req.IsPublic,
	}
	if err := h.DB.Create(&analysis).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to save analysis")
		return
	}

	if err := user.BumpStat(h.DB, "analysis"); err != nil {
		h.Log.WithError(err).Warn("bump analysis counter")
	}

	util.Created(c, "Analysis saved successfully", util.Response{"analysis": analysis})
}

// GetHistory pages through the user's saved analyses, newest first.
func (h *BlockchainHandler) GetHistory(c *gin.Context) {
	user := middleware.CurrentUser(c)

	limit, offset, ferr := util.ParseLimitOffset(c, 20, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	riskLevel := c.Query("riskLevel")
	switch riskLevel {
	case "", "LOW", "MEDIUM", "HIGH", "UNKNOWN":
	default:
		util.ValidationFailed(c, []util.FieldError{
			{Field: "riskLevel", Message: "Risk level must be LOW, MEDIUM, HIGH or UNKNOWN"},
		})
		return
	}

	analyses, total, err := models.FindAnalysesByUser(h.DB, user.ID, riskLevel, limit, offset)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get analysis history")
		return
	}

	util.OK(c, util.Response{
		"analyses":   analyses,
		"pagination": util.NewPagination(total, limit, offset),
	})
}

// GetAnalysisByAddress returns the latest analysis of a wallet that
// the caller may see: their own, or somebody's public one.
func (h *BlockchainHandler) GetAnalysisByAddress(c *gin.Context) {
	user := middleware.CurrentUser(c)

	address, err := util.NormalizeEthAddress(c.Param("walletAddress"))
	if err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "walletAddress", Message: "Invalid Ethereum address format"},
		})
		return
	}

	var analysis models.Analysis
	err = h.DB.Where("analyzed_wallet = ? AND is_deleted = ?", address, false).
		Order("created_at DESC").
		First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "No analysis found for this wallet address")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to get analysis")
		}
		return
	}

	if analysis.UserID != user.ID && !analysis.IsPublic {
		util.Error(c, http.StatusForbidden, "Access denied to this analysis")
		return
	}

	util.OK(c, util.Response{"analysis": analysis})
}

// DeleteAnalysis soft-deletes an owned analysis.
func (h *BlockchainHandler) DeleteAnalysis(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid analysis ID"}})
		return
	}

	var analysis models.Analysis
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Analysis not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to delete analysis")
		}
		return
	}

	if err := analysis.SoftDelete(h.DB); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete analysis")
		return
	}

	util.OKMessage(c, "Analysis deleted successfully", nil)
}

// GetStats returns the caller's analysis rollup.
func (h *BlockchainHandler) GetStats(c *gin.Context) {
	user := middleware.CurrentUser(c)

	stats, err := models.AnalysisStatsForUser(h.DB, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get analysis statistics")
		return
	}

	util.OK(c, util.Response{"stats": stats})
}

type visibilityReq struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// UpdateVisibility toggles whether an owned analysis is public.
func (h *BlockchainHandler) UpdateVisibility(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid analysis ID"}})
		return
	}

	var req visibilityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "isPublic", Message: "isPublic must be a boolean"},
		})
		return
	}

	var analysis models.Analysis
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Analysis not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to update analysis visibility")
		}
		return
	}

	analysis.IsPublic = *req.IsPublic
	if err := h.DB.Model(&analysis).Update("is_public", analysis.IsPublic).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update analysis visibility")
		return
	}

	visibility := "private"
	if analysis.IsPublic {
		visibility = "public"
	}
	util.OKMessage(c, "Analysis is now "+visibility, util.Response{"analysis": analysis})
}

type tagReq struct {
	Tag string `json:"tag" binding:"required,min=1,max=50"`
}

// AddTag attaches a label to an owned analysis.
func (h *BlockchainHandler) AddTag(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid analysis ID"}})
		return
	}

	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	var analysis models.Analysis
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Analysis not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to add tag")
		}
		return
	}

	if err := analysis.AddTag(h.DB, req.Tag); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add tag")
		return
	}

	util.OKMessage(c, "Tag added successfully", util.Response{"tags": analysis.Tags})
}

// RemoveTag detaches a label from an owned analysis.
func (h *BlockchainHandler) RemoveTag(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid analysis ID"}})
		return
	}

	tag := c.Param("tag")
	if tag == "" {
		util.ValidationFailed(c, []util.FieldError{{Field: "tag", Message: "Tag is required"}})
		return
	}

	var analysis models.Analysis
	err := h.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, user.ID, false).First(&analysis).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Analysis not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to remove tag")
		}
		return
	}

	if err := analysis.RemoveTag(h.DB, tag); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to remove tag")
		return
	}

	util.OKMessage(c, "Tag removed successfully", util.Response{"tags": analysis.Tags})
}

// GetPublic pages through analyses any signed-in user may browse.
func (h *BlockchainHandler) GetPublic(c *gin.Context) {
	limit, offset, ferr := util.ParseLimitOffset(c, 20, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	riskLevel := c.Query("riskLevel")
	switch riskLevel {
	case "", "LOW", "MEDIUM", "HIGH", "UNKNOWN":
	default:
		util.ValidationFailed(c, []util.FieldError{
			{Field: "riskLevel", Message: "Risk level must be LOW, MEDIUM, HIGH or UNKNOWN"},
		})
		return
	}

	base := h.DB.Model(&models.Analysis{}).Where("is_public = ? AND is_deleted = ?", true, false)
	if riskLevel != "" {
		base = base.Where("risk_level = ?", riskLevel)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get public analyses")
		return
	}

	var analyses []models.Analysis
	err := base.Session(&gorm.Session{}).
		Select("id", "analyzed_wallet", "risk_level", "fraud_probability", "prediction",
			"confidence", "tags", "created_at").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&analyses).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get public analyses")
		return
	}

	util.OK(c, util.Response{
		"analyses":   analyses,
		"pagination": util.NewPagination(total, limit, offset),
	})
}

// Health reports the analysis subsystem's database connectivity.
func (h *BlockchainHandler) Health(c *gin.Context) {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		util.Error(c, http.StatusServiceUnavailable, "Blockchain analysis service is unhealthy")
		return
	}

	var count int64
	h.DB.Model(&models.Analysis{}).Count(&count)

	util.OKMessage(c, "Blockchain analysis service is healthy", util.Response{
		"totalAnalyses": count,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
