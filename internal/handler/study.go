package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/ai"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/middleware"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// chatFallback is stored as the AI turn when the upstream model server
// is unreachable or errors out.
const chatFallback = "Xin lỗi, có lỗi xảy ra khi xử lý câu hỏi của bạn. Vui lòng thử lại sau."

// StudyHandler owns the study-chat conversation routes.
type StudyHandler struct {
	DB  *gorm.DB
	AI  *ai.Client
	Log *logrus.Logger
}

func NewStudyHandler(db *gorm.DB, aiClient *ai.Client, log *logrus.Logger) *StudyHandler {
	return &StudyHandler{DB: db, AI: aiClient, Log: log}
}

type createConversationReq struct {
	Title      string `json:"title" binding:"omitempty,max=200"`
	Subject    string `json:"subject" binding:"omitempty,max=100"`
	Language   string `json:"language" binding:"omitempty,oneof=vi en"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

// CreateConversation opens a new chat thread.
func (h *StudyHandler) CreateConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	conv := models.Conversation{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Subject:       req.Subject,
		LastMessageAt: time.Now(),
		IsActive:      true,
		Metadata: models.ConversationMetadata{
			Language:   req.Language,
			Difficulty: req.Difficulty,
		},
	}
	if req.Title != "" {
		conv.Title = req.Title
	}
	if conv.Metadata.Language == "" {
		conv.Metadata.Language = "vi"
	}
	if conv.Metadata.Difficulty == "" {
		conv.Metadata.Difficulty = "intermediate"
	}

	if err := h.DB.Create(&conv).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	if err := user.BumpStat(h.DB, "conversation"); err != nil {
		h.Log.WithError(err).Warn("bump conversation counter")
	}

	util.Created(c, "Conversation created successfully", util.Response{"conversation": conv})
}

// ListConversations pages through the user's active threads.
func (h *StudyHandler) ListConversations(c *gin.Context) {
	user := middleware.CurrentUser(c)

	limit, offset, ferr := util.ParseLimitOffset(c, 20, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	convs, total, err := models.FindConversationsByUser(h.DB, user.ID, limit, offset)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get conversations")
		return
	}

	util.OK(c, util.Response{
		"conversations": convs,
		"pagination":    util.NewPagination(total, limit, offset),
	})
}

// GetConversation returns one thread with its full message history.
func (h *StudyHandler) GetConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid conversation ID"}})
		return
	}

	conv, err := models.FindOwnedConversation(h.DB, id, user.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Conversation not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to get conversation")
		}
		return
	}

	var messages []models.Message
	err = h.DB.Where("conversation_id = ?", conv.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get conversation")
		return
	}

	util.OK(c, util.Response{
		"conversation": conv,
		"messages":     messages,
	})
}

type updateConversationReq struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=200"`
	Subject *string `json:"subject" binding:"omitempty,max=100"`
}

// UpdateConversation renames or re-subjects a thread.
func (h *StudyHandler) UpdateConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid conversation ID"}})
		return
	}

	var req updateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	conv, err := models.FindOwnedConversation(h.DB, id, user.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Conversation not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to update conversation")
		}
		return
	}

	if req.Title != nil {
		conv.Title = *req.Title
	}
	if req.Subject != nil {
		conv.Subject = *req.Subject
	}

	if err := h.DB.Save(conv).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update conversation")
		return
	}

	util.OKMessage(c, "Conversation updated successfully", util.Response{"conversation": conv})
}

// DeleteConversation soft-deletes a thread.
func (h *StudyHandler) DeleteConversation(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid conversation ID"}})
		return
	}

	conv, err := models.FindOwnedConversation(h.DB, id, user.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Conversation not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to delete conversation")
		}
		return
	}

	if err := conv.SoftDelete(h.DB); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}

	util.OKMessage(c, "Conversation deleted successfully", nil)
}

type addMessageReq struct {
	Content  string                 `json:"content" binding:"required,min=1,max=10000"`
	Type     string                 `json:"type" binding:"required,oneof=user ai"`
	Metadata models.MessageMetadata `json:"metadata"`
}

// AddMessage appends one turn to a thread. The first user message
// titles a still-unnamed conversation.
func (h *StudyHandler) AddMessage(c *gin.Context) {
	user := middleware.CurrentUser(c)

	id, ok := idParam(c, "id")
	if !ok {
		util.ValidationFailed(c, []util.FieldError{{Field: "id", Message: "Invalid conversation ID"}})
		return
	}

	var req addMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	conv, err := models.FindOwnedConversation(h.DB, id, user.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Conversation not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to add message")
		}
		return
	}

	msg := models.Message{
		ConversationID: conv.ID,
		UserID:         user.ID,
		Type:           req.Type,
		Content:        req.Content,
		Metadata:       req.Metadata,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add message")
		return
	}

	updates := map[string]interface{}{
		"message_count":   gorm.Expr("message_count + 1"),
		"last_message_at": time.Now(),
	}
	if conv.MessageCount == 0 && req.Type == models.MessageTypeUser && conv.Title == models.DefaultConversationTitle {
		updates["title"] = models.TitleFromMessage(req.Content)
	}
	if err := h.DB.Model(conv).Updates(updates).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add message")
		return
	}

	util.Created(c, "Message added successfully", util.Response{"message": msg})
}

// GetStats returns the user's study-chat rollup.
func (h *StudyHandler) GetStats(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var row struct {
		TotalConversations int64
		TotalMessages      int64
	}
	err := h.DB.Model(&models.Conversation{}).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Select("COUNT(*) AS total_conversations, COALESCE(SUM(message_count), 0) AS total_messages").
		Scan(&row).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get study statistics")
		return
	}

	type subjectCount struct {
		Subject string `json:"subject"`
		Count   int64  `json:"count"`
	}
	var subjects []subjectCount
	err = h.DB.Model(&models.Conversation{}).
		Where("user_id = ? AND is_active = ? AND subject <> ''", user.ID, true).
		Select("subject, COUNT(*) AS count").
		Group("subject").
		Order("count DESC").
		Limit(5).
		Scan(&subjects).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to get study statistics")
		return
	}

	util.OK(c, util.Response{
		"stats": util.Response{
			"totalConversations": row.TotalConversations,
			"totalMessages":      row.TotalMessages,
			"topSubjects":        subjects,
		},
	})
}

// Search finds the user's conversations by title or subject substring.
func (h *StudyHandler) Search(c *gin.Context) {
	user := middleware.CurrentUser(c)

	q := c.Query("q")
	if q == "" {
		util.ValidationFailed(c, []util.FieldError{{Field: "q", Message: "Search query is required"}})
		return
	}

	limit, offset, ferr := util.ParseLimitOffset(c, 20, 100)
	if ferr != nil {
		util.ValidationFailed(c, []util.FieldError{*ferr})
		return
	}

	pattern := "%" + q + "%"
	base := h.DB.Model(&models.Conversation{}).
		Where("user_id = ? AND is_active = ? AND (title LIKE ? OR subject LIKE ?)",
			user.ID, true, pattern, pattern)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to search conversations")
		return
	}

	var convs []models.Conversation
	err := base.Session(&gorm.Session{}).
		Order("updated_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&convs).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to search conversations")
		return
	}

	util.OK(c, util.Response{
		"conversations": convs,
		"pagination":    util.NewPagination(total, limit, offset),
	})
}

type chatReq struct {
	Message        string `json:"message" binding:"required,min=1,max=10000"`
	ConversationID uint   `json:"conversationId"`
	Subject        string `json:"subject" binding:"omitempty,max=100"`
	Difficulty     string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
}

// Chat stores the user's turn, asks the model server for a reply and
// stores that too. An upstream failure still succeeds from the
// client's point of view: a fallback AI message is stored and
// returned, flagged in its metadata.
func (h *StudyHandler) Chat(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationFailed(c, bindingErrors(err))
		return
	}

	var conv *models.Conversation
	if req.ConversationID != 0 {
		found, err := models.FindOwnedConversation(h.DB, req.ConversationID, user.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusNotFound, "Conversation not found")
			} else {
				util.Error(c, http.StatusInternalServerError, "Failed to process chat message")
			}
			return
		}
		conv = found
	} else {
		conv = &models.Conversation{
			UserID:        user.ID,
			WalletAddress: user.WalletAddress,
			Title:         models.TitleFromMessage(req.Message),
			Subject:       req.Subject,
			LastMessageAt: time.Now(),
			IsActive:      true,
			Metadata: models.ConversationMetadata{
				Language:   "vi",
				Difficulty: "intermediate",
			},
		}
		if req.Difficulty != "" {
			conv.Metadata.Difficulty = req.Difficulty
		}
		if err := h.DB.Create(conv).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Failed to process chat message")
			return
		}
		if err := user.BumpStat(h.DB, "conversation"); err != nil {
			h.Log.WithError(err).Warn("bump conversation counter")
		}
	}

	userMsg := models.Message{
		ConversationID: conv.ID,
		UserID:         user.ID,
		Type:           models.MessageTypeUser,
		Content:        req.Message,
		Metadata: models.MessageMetadata{
			Subject:    req.Subject,
			Difficulty: req.Difficulty,
		},
	}
	if err := h.DB.Create(&userMsg).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to process chat message")
		return
	}

	aiMsg := models.Message{
		ConversationID: conv.ID,
		UserID:         user.ID,
		Type:           models.MessageTypeAI,
	}

	resp, err := h.AI.StudyChat(c.Request.Context(), ai.ChatRequest{
		Message:        req.Message,
		ConversationID: fmt.Sprintf("%d", conv.ID),
		Subject:        req.Subject,
		Difficulty:     conv.Metadata.Difficulty,
		Language:       conv.Metadata.Language,
	})
	if err != nil {
		h.Log.WithError(err).WithField("conversation_id", conv.ID).Warn("ai chat upstream failed")
		aiMsg.Content = chatFallback
		aiMsg.Metadata = models.MessageMetadata{
			Error:        true,
			ErrorMessage: err.Error(),
		}
	} else {
		aiMsg.Content = resp.Response
		aiMsg.Metadata = models.MessageMetadata{
			Model:          "study-chat",
			ProcessingTime: resp.ProcessingTime,
			Confidence:     resp.Confidence,
			Subject:        resp.SubjectDetected,
			FollowUp:       resp.FollowUpQuestions,
			RelatedTopics:  resp.RelatedTopics,
		}
	}

	if err := h.DB.Create(&aiMsg).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to process chat message")
		return
	}

	updates := map[string]interface{}{
		"message_count":   gorm.Expr("message_count + 2"),
		"last_message_at": time.Now(),
	}
	if err := h.DB.Model(conv).Updates(updates).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to process chat message")
		return
	}

	util.OK(c, util.Response{
		"conversationId": conv.ID,
		"userMessage":    userMsg,
		"aiMessage":      aiMsg,
	})
}
