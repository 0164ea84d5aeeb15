package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultConversationTitle is replaced by the first user message.
const DefaultConversationTitle = "New Conversation"

// ConversationMetadata tracks chat settings chosen at creation time.
type ConversationMetadata struct {
	Language   string   `json:"language,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"` // beginner / intermediate / advanced
	Tags       []string `json:"tags,omitempty"`
}

// Conversation is a study-chat thread owned by a user.
type Conversation struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	UserID        uint                 `gorm:"index:idx_conv_user_updated;not null" json:"userId"`
	WalletAddress string               `gorm:"size:42;index;not null" json:"walletAddress"`
	Title         string               `gorm:"size:200;not null;default:'New Conversation'" json:"title"`
	Subject       string               `gorm:"size:100" json:"subject"`
	MessageCount  int                  `gorm:"default:0" json:"messageCount"`
	LastMessageAt time.Time            `json:"lastMessageAt"`
	IsActive      bool                 `gorm:"default:true;index" json:"isActive"`
	Metadata      ConversationMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `gorm:"index:idx_conv_user_updated" json:"updatedAt"`
}

// TitleFromMessage derives the auto-generated conversation title from
// the first user message.
func TitleFromMessage(content string) string {
	runes := []rune(content)
	if len(runes) <= 50 {
		return content
	}
	return string(runes[:50]) + "..."
}

// SoftDelete hides the conversation from listings; messages remain for
// search history until the conversation is purged.
func (c *Conversation) SoftDelete(db *gorm.DB) error {
	c.IsActive = false
	return db.Model(c).Update("is_active", false).Error
}

// FindConversationsByUser returns a page of active conversations,
// most recently updated first, plus the total count.
func FindConversationsByUser(db *gorm.DB, userID uint, limit, offset int) ([]Conversation, int64, error) {
	base := db.Model(&Conversation{}).Where("user_id = ? AND is_active = ?", userID, true)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}

	var convs []Conversation
	err := base.Session(&gorm.Session{}).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	return convs, total, err
}

// FindOwnedConversation loads an active conversation only if it
// belongs to userID.
func FindOwnedConversation(db *gorm.DB, id, userID uint) (*Conversation, error) {
	var conv Conversation
	err := db.Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
