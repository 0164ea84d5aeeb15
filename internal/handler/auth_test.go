package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func authRouter(db *gorm.DB, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAuthHandler(db, "test-secret", "test", time.Hour, newTestLogger())
	r := gin.New()
	r.POST("/api/auth/login", h.Login)
	g := r.Group("/api/auth", asUser(user))
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/account", h.DeleteAccount)
	g.GET("/stats", h.GetStats)
	return r
}

func TestLoginCreatesUser(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db, nil)

	w := doJSON(r, "POST", "/api/auth/login", gin.H{
		"walletAddress": "0xABCDEF1234567890abcdef1234567890ABCDEF12",
		"signature":     "0xsigned",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := envelope(t, w)
	assert.Equal(t, true, resp["success"])
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	var user models.User
	require.NoError(t, db.First(&user).Error)
	// stored lowercased, named from the wallet prefix
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12", user.WalletAddress)
	assert.Equal(t, "User 0xabcdef", user.Name)
	assert.Equal(t, "dark", user.Preferences.Theme)
	assert.Equal(t, "vi", user.Preferences.Language)
	assert.True(t, user.IsActive)
}

func TestLoginIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db, nil)

	body := gin.H{"walletAddress": "0xabcdef1234567890abcdef1234567890abcdef12", "signature": "x"}
	for i := 0; i < 2; i++ {
		w := doJSON(r, "POST", "/api/auth/login", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLoginRejectsBadAddress(t *testing.T) {
	db := newTestDB(t)
	r := authRouter(db, nil)

	w := doJSON(r, "POST", "/api/auth/login", gin.H{"walletAddress": "nope", "signature": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, "POST", "/api/auth/login", gin.H{"walletAddress": "0xabcdef1234567890abcdef1234567890abcdef12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginReactivatesAccount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := authRouter(db, user)

	w := doJSON(r, "DELETE", "/api/auth/account", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var deactivated models.User
	require.NoError(t, db.First(&deactivated, user.ID).Error)
	assert.False(t, deactivated.IsActive)
	assert.NotNil(t, deactivated.DeactivatedAt)

	w = doJSON(r, "POST", "/api/auth/login", gin.H{
		"walletAddress": user.WalletAddress,
		"signature":     "x",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reactivated models.User
	require.NoError(t, db.First(&reactivated, user.ID).Error)
	assert.True(t, reactivated.IsActive)
	assert.Nil(t, reactivated.DeactivatedAt)
}

func TestUpdateProfilePartial(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := authRouter(db, user)

	w := doJSON(r, "PUT", "/api/auth/profile", gin.H{
		"name": "Anh",
		"preferences": gin.H{
			"theme": "light",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "Anh", reloaded.Name)
	assert.Equal(t, "light", reloaded.Preferences.Theme)
	// untouched fields keep their values
	assert.Equal(t, "vi", reloaded.Preferences.Language)
}

func TestUpdateProfileRejectsBadTheme(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := authRouter(db, user)

	w := doJSON(r, "PUT", "/api/auth/profile", gin.H{
		"preferences": gin.H{"theme": "neon"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
