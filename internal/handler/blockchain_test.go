package handler

import (
	"net/http"
	"testing"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func blockchainRouter(db *gorm.DB, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewBlockchainHandler(db, newTestLogger())
	r := gin.New()
	g := r.Group("/api/blockchain", asUser(user))
	g.POST("/save", h.SaveAnalysis)
	g.GET("/history", h.GetHistory)
	g.GET("/analysis/:walletAddress", h.GetAnalysisByAddress)
	g.DELETE("/analysis/:id", h.DeleteAnalysis)
	g.GET("/stats", h.GetStats)
	g.PUT("/analysis/:id/visibility", h.UpdateVisibility)
	g.POST("/analysis/:id/tags", h.AddTag)
	g.DELETE("/analysis/:id/tags/:tag", h.RemoveTag)
	g.GET("/public", h.GetPublic)
	return r
}

func saveAnalysisBody(wallet string) gin.H {
	return gin.H{
		"walletAddress":    wallet,
		"riskLevel":        "HIGH",
		"fraudProbability": 87.5,
		"prediction":       "FRAUDULENT",
		"confidence":       "High",
	}
}

func TestSaveAnalysis(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	w := doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody("0x2222222222222222222222222222222222222222"))
	require.Equal(t, http.StatusCreated, w.Code)

	var analysis models.Analysis
	require.NoError(t, db.First(&analysis).Error)
	assert.Equal(t, user.ID, analysis.UserID)
	assert.Equal(t, user.WalletAddress, analysis.RequestorWallet)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", analysis.AnalyzedWallet)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, 1, reloaded.Stats.TotalAnalyses)
}

func TestSaveAnalysisDuplicateWithinHour(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	wallet := "0x2222222222222222222222222222222222222222"
	w := doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody(wallet))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody(wallet))
	require.Equal(t, http.StatusConflict, w.Code)

	resp := envelope(t, w)
	assert.Equal(t, false, resp["success"])
	data := resp["data"].(map[string]interface{})
	assert.NotNil(t, data["existing_analysis"])

	var count int64
	db.Model(&models.Analysis{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSaveAnalysisRejectsBadRiskLevel(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	body := saveAnalysisBody("0x2222222222222222222222222222222222222222")
	body["riskLevel"] = "EXTREME"
	w := doJSON(r, "POST", "/api/blockchain/save", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAnalysisByAddressPrivacy(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db)
	other := &models.User{WalletAddress: "0x1111111111111111111111111111111111111111", IsActive: true}
	require.NoError(t, db.Create(other).Error)

	wallet := "0x2222222222222222222222222222222222222222"
	w := doJSON(blockchainRouter(db, owner), "POST", "/api/blockchain/save", saveAnalysisBody(wallet))
	require.Equal(t, http.StatusCreated, w.Code)

	// owner can read their private analysis
	w = doJSON(blockchainRouter(db, owner), "GET", "/api/blockchain/analysis/"+wallet, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// another user cannot
	w = doJSON(blockchainRouter(db, other), "GET", "/api/blockchain/analysis/"+wallet, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// unless it is public
	require.NoError(t, db.Model(&models.Analysis{}).Where("analyzed_wallet = ?", wallet).
		Update("is_public", true).Error)
	w = doJSON(blockchainRouter(db, other), "GET", "/api/blockchain/analysis/"+wallet, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAnalysisHidesFromHistory(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	w := doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody("0x2222222222222222222222222222222222222222"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "DELETE", "/api/blockchain/analysis/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "GET", "/api/blockchain/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelope(t, w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(0), pagination["total"])
}

func TestAnalysisTags(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	w := doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody("0x2222222222222222222222222222222222222222"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/api/blockchain/analysis/1/tags", gin.H{"tag": "scam"})
	require.Equal(t, http.StatusOK, w.Code)

	// adding the same tag twice does not duplicate it
	w = doJSON(r, "POST", "/api/blockchain/analysis/1/tags", gin.H{"tag": "scam"})
	require.Equal(t, http.StatusOK, w.Code)

	var analysis models.Analysis
	require.NoError(t, db.First(&analysis).Error)
	assert.Equal(t, []string{"scam"}, analysis.Tags)

	w = doJSON(r, "DELETE", "/api/blockchain/analysis/1/tags/scam", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&analysis).Error)
	assert.Empty(t, analysis.Tags)
}

func TestGetStatsRollup(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	wallets := map[string]string{
		"0x2222222222222222222222222222222222222222": "HIGH",
		"0x3333333333333333333333333333333333333333": "LOW",
		"0x4444444444444444444444444444444444444444": "LOW",
	}
	for wallet, risk := range wallets {
		body := saveAnalysisBody(wallet)
		body["riskLevel"] = risk
		if risk == "LOW" {
			body["prediction"] = "NORMAL"
		}
		w := doJSON(r, "POST", "/api/blockchain/save", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, "GET", "/api/blockchain/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := envelope(t, w)["data"].(map[string]interface{})
	stats := data["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["totalAnalyses"])
	assert.Equal(t, float64(3), stats["uniqueWalletsCount"])

	dist := stats["riskDistribution"].(map[string]interface{})
	assert.Equal(t, float64(1), dist["high"])
	assert.Equal(t, float64(2), dist["low"])
}

func TestGetPublicListsOnlyPublic(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := blockchainRouter(db, user)

	body := saveAnalysisBody("0x2222222222222222222222222222222222222222")
	body["isPublic"] = true
	w := doJSON(r, "POST", "/api/blockchain/save", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/api/blockchain/save", saveAnalysisBody("0x3333333333333333333333333333333333333333"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "GET", "/api/blockchain/public", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelope(t, w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
}
