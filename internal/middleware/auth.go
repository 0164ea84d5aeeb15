package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// CurrentUserKey is the gin context key the resolved user is stored under.
const CurrentUserKey = "currentUser"

// bearerToken extracts the token from "Authorization: Bearer xxx".
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// resolveUser runs the full token -> user pipeline and returns the
// user only when every step succeeds: valid signature and expiry,
// existing active user, and the stored wallet matching the one the
// token was issued for.
func resolveUser(c *gin.Context, secret string, db *gorm.DB) (*models.User, int, string) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return nil, http.StatusUnauthorized, "Access token is required"
	}

	claims, err := util.ParseToken(secret, tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, http.StatusUnauthorized, "Token expired"
		default:
			return nil, http.StatusUnauthorized, "Invalid token"
		}
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, "User no longer exists or is inactive"
		}
		return nil, http.StatusInternalServerError, "Authentication failed"
	}
	if !user.IsActive {
		return nil, http.StatusUnauthorized, "User no longer exists or is inactive"
	}

	if !strings.EqualFold(user.WalletAddress, claims.WalletAddress) {
		return nil, http.StatusUnauthorized, "Token wallet address mismatch"
	}

	return &user, 0, ""
}

// Authenticate rejects the request unless it carries a valid session
// token for an active user. The resolved user is placed in the context
// under CurrentUserKey; no other state is attached.
func Authenticate(secret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := resolveUser(c, secret, db)
		if user == nil {
			util.Error(c, status, msg)
			c.Abort()
			return
		}
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// OptionalAuth runs the same pipeline but swallows every failure and
// proceeds unauthenticated. Identity is attached only on full success.
func OptionalAuth(secret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, _, _ := resolveUser(c, secret, db); user != nil {
			c.Set(CurrentUserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate/OptionalAuth,
// or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*models.User)
	if !ok {
		return nil
	}
	return user
}
