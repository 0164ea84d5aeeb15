package models

import "time"

// Message types.
const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// MessageMetadata carries AI-response details; user messages only use
// Subject and Difficulty.
type MessageMetadata struct {
	Model          string   `json:"model,omitempty"`
	ProcessingTime float64  `json:"processingTime,omitempty"`
	Confidence     float64  `json:"confidence,omitempty"`
	Tokens         int      `json:"tokens,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	FollowUp       []string `json:"followUp,omitempty"`
	RelatedTopics  []string `json:"relatedTopics,omitempty"`
	Error          bool     `json:"error,omitempty"`
	ErrorMessage   string   `json:"errorMessage,omitempty"`
}

// Message is one turn in a study-chat conversation.
type Message struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ConversationID uint            `gorm:"index:idx_msg_conv_created;not null" json:"conversationId"`
	UserID         uint            `gorm:"index;not null" json:"userId"`
	Type           string          `gorm:"size:8;not null" json:"type"` // user / ai
	Content        string          `gorm:"size:10000;not null" json:"content"`
	Metadata       MessageMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt      time.Time       `gorm:"index:idx_msg_conv_created" json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
