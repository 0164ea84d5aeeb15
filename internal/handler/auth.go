package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler owns login and profile routes.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
	Log       *logrus.Logger
}

func NewAuthHandler(db *gorm.DB, secret, issuer string, ttl time.Duration, log *logrus.Logger) *AuthHandler {
	if ttl <= 0 {
		ttl = util.DefaultTokenTTL
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: secret,
		Issuer:    issuer,
		TokenTTL:  ttl,
		Log:       log,
	}
}

type loginReq struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

// Login authenticates by wallet. The signature proves key ownership;
// verification is stubbed until the message format is finalized with
// the frontend, so possession of any signature string is accepted.
// The user record is created on first login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "walletAddress", Message: "Wallet address and signature are required"},
		})
		return
	}

	wallet, err := util.NormalizeEthAddress(req.WalletAddress)
	if err != nil {
		util.ValidationFailed(c, []util.FieldError{
			{Field: "walletAddress", Message: "Invalid Ethereum address format"},
		})
		return
	}

	user, err := models.FindUserByWallet(h.DB, wallet)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			WalletAddress: wallet,
			Name:          "User " + wallet[:8],
			Preferences: models.Preferences{
				Theme:    "dark",
				Language: "vi",
				Notifications: models.NotificationPrefs{
					Email: true,
					Push:  true,
				},
			},
			Stats:    models.UserStats{LastActiveDate: time.Now()},
			IsActive: true,
		}
		if err := h.DB.Create(user).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Login failed")
			return
		}
		h.Log.WithField("wallet", wallet).Info("new user created")
	case err != nil:
		util.Error(c, http.StatusInternalServerError, "Login failed")
		return
	default:
		if !user.IsActive {
			// logging back in reactivates a soft-deactivated account
			user.IsActive = true
			user.DeactivatedAt = nil
			if err := h.DB.Model(user).Updates(map[string]interface{}{
				"is_active":      true,
				"deactivated_at": nil,
			}).Error; err != nil {
				util.Error(c, http.StatusInternalServerError, "Login failed")
				return
			}
		}
		if err := user.Touch(h.DB); err != nil {
			util.Error(c, http.StatusInternalServerError, "Login failed")
			return
		}
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, user.WalletAddress, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Login failed")
		return
	}

	util.OKMessage(c, "Login successful", util.Response{
		"user":  user,
		"token": token,
	})
}

// Logout acknowledges the request. Tokens are stateless; there is no
// server-side revocation list, they simply expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	util.OKMessage(c, "Logout successful", nil)
}

// GetProfile returns the authenticated user's record.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	util.OK(c, util.Response{"user": user})
}

type updateProfileReq struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Preferences *struct {
		Theme         *string `json:"theme" binding:"omitempty,oneof=light dark"`
		Language      *string `json:"language" binding:"omitempty,oneof=vi en"`
		Notifications *struct {
			Email *bool `json:"email"`
			Push  *bool `json:"push"`
		} `json:"notifications"`
	} `json:"preferences"`
}

// UpdateProfile applies a partial update to name, email and
// preferences. Fields absent from the body are left unchanged.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Preferences != nil {
		if req.Preferences.Theme != nil {
			user.Preferences.Theme = *req.Preferences.Theme
		}
		if req.Preferences.Language != nil {
			user.Preferences.Language = *req.Preferences.Language
		}
		if req.Preferences.Notifications != nil {
			if req.Preferences.Notifications.Email != nil {
				user.Preferences.Notifications.Email = *req.Preferences.Notifications.Email
			}
			if req.Preferences.Notifications.Push != nil {
				user.Preferences.Notifications.Push = *req.Preferences.Notifications.Push
			}
		}
	}

	if err := h.DB.Save(user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	util.OKMessage(c, "Profile updated successfully", util.Response{"user": user})
}

// Verify confirms the token resolved to a live session.
func (h *AuthHandler) Verify(c *gin.Context) {
	user := middleware.CurrentUser(c)
	util.OKMessage(c, "Token is valid", util.Response{
		"userId":        user.ID,
		"walletAddress": user.WalletAddress,
	})
}

// DeleteAccount soft-deactivates the account. The record is kept and
// a later login reactivates it.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user := middleware.CurrentUser(c)

	now := time.Now()
	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"is_active":      false,
		"deactivated_at": now,
	}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	util.OKMessage(c, "Account deactivated successfully", nil)
}

// GetStats returns the usage counters plus derived account facts.
func (h *AuthHandler) GetStats(c *gin.Context) {
	user := middleware.CurrentUser(c)

	accountAge := int(time.Since(user.CreatedAt).Hours() / 24)
	util.OK(c, util.Response{
		"stats": util.Response{
			"totalTransactions":  user.Stats.TotalTransactions,
			"totalAnalyses":      user.Stats.TotalAnalyses,
			"totalConversations": user.Stats.TotalConversations,
			"lastActiveDate":     user.Stats.LastActiveDate,
			"memberSince":        user.CreatedAt,
			"lastLogin":          user.Stats.LastActiveDate,
			"accountAge":         accountAge,
		},
	})
}
