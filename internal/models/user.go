package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationPrefs holds per-channel notification switches.
type NotificationPrefs struct {
	Email bool `gorm:"default:true" json:"email"`
	Push  bool `gorm:"default:true" json:"push"`
}

// Preferences is the user preference set returned verbatim to the frontend.
type Preferences struct {
	Theme         string            `gorm:"size:16;default:dark" json:"theme"`    // light / dark
	Language      string            `gorm:"size:8;default:vi" json:"language"`    // vi / en
	Notifications NotificationPrefs `gorm:"embedded;embeddedPrefix:notify_" json:"notifications"`
}

// UserStats are denormalized usage counters, bumped on every
// authenticated write action.
type UserStats struct {
	TotalTransactions  int       `gorm:"default:0" json:"totalTransactions"`
	TotalAnalyses      int       `gorm:"default:0" json:"totalAnalyses"`
	TotalConversations int       `gorm:"default:0" json:"totalConversations"`
	LastActiveDate     time.Time `json:"lastActiveDate"`
}

// User represents a wallet-identified account. Users are created on
// first successful login and never hard-deleted; DELETE /account only
// flips IsActive.
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	WalletAddress string      `gorm:"size:42;uniqueIndex;not null" json:"walletAddress"` // lowercase 0x hex
	Email         string      `gorm:"size:255" json:"email,omitempty"`
	Name          string      `gorm:"size:100" json:"name"`
	Preferences   Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	Stats         UserStats   `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	IsActive      bool        `gorm:"default:true;index" json:"isActive"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	DeactivatedAt *time.Time  `json:"-"`
}

// DisplayID is the shortened wallet form shown in the UI, e.g. 0x1234...abcd.
func (u *User) DisplayID() string {
	if len(u.WalletAddress) < 10 {
		return u.WalletAddress
	}
	return u.WalletAddress[:6] + "..." + u.WalletAddress[len(u.WalletAddress)-4:]
}

// Touch refreshes the last-active timestamp without bumping any counter.
func (u *User) Touch(db *gorm.DB) error {
	now := time.Now()
	u.Stats.LastActiveDate = now
	return db.Model(u).Update("stats_last_active_date", now).Error
}

// BumpStat increments one usage counter and refreshes last-active.
// kind is one of "transaction", "analysis", "conversation".
func (u *User) BumpStat(db *gorm.DB, kind string) error {
	return u.BumpStatBy(db, kind, 1)
}

// BumpStatBy increments a usage counter by n (bulk imports).
func (u *User) BumpStatBy(db *gorm.DB, kind string, n int) error {
	var column string
	switch kind {
	case "transaction":
		column = "stats_total_transactions"
		u.Stats.TotalTransactions += n
	case "analysis":
		column = "stats_total_analyses"
		u.Stats.TotalAnalyses += n
	case "conversation":
		column = "stats_total_conversations"
		u.Stats.TotalConversations += n
	default:
		return nil
	}

	now := time.Now()
	u.Stats.LastActiveDate = now
	return db.Model(u).Updates(map[string]interface{}{
		column:                   gorm.Expr(column+" + ?", n),
		"stats_last_active_date": now,
	}).Error
}

// FindUserByWallet looks up an active or inactive user by lowercase wallet.
func FindUserByWallet(db *gorm.DB, wallet string) (*User, error) {
	var user User
	if err := db.Where("wallet_address = ?", wallet).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
