package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/ai"
	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func studyRouter(db *gorm.DB, user *models.User, aiURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudyHandler(db, ai.NewClient(aiURL, 5*time.Second), newTestLogger())
	r := gin.New()
	g := r.Group("/api/study", asUser(user))
	g.POST("/conversations", h.CreateConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id", h.GetConversation)
	g.PUT("/conversations/:id", h.UpdateConversation)
	g.DELETE("/conversations/:id", h.DeleteConversation)
	g.POST("/conversations/:id/messages", h.AddMessage)
	g.GET("/stats", h.GetStats)
	g.GET("/search", h.Search)
	g.POST("/chat", h.Chat)
	return r
}

func TestCreateAndListConversations(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, "http://127.0.0.1:0")

	w := doJSON(r, "POST", "/api/study/conversations", gin.H{
		"title":   "Toán học",
		"subject": "math",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "GET", "/api/study/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelope(t, w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, 1, reloaded.Stats.TotalConversations)
}

func TestAddMessageTitlesConversation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, "http://127.0.0.1:0")

	w := doJSON(r, "POST", "/api/study/conversations", gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "POST", "/api/study/conversations/1/messages", gin.H{
		"content": "Giải thích định luật Newton thứ hai",
		"type":    "user",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var conv models.Conversation
	require.NoError(t, db.First(&conv).Error)
	assert.Equal(t, "Giải thích định luật Newton thứ hai", conv.Title)
	assert.Equal(t, 1, conv.MessageCount)

	// later messages do not retitle
	w = doJSON(r, "POST", "/api/study/conversations/1/messages", gin.H{
		"content": "Một câu hỏi khác",
		"type":    "user",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, db.First(&conv).Error)
	assert.Equal(t, "Giải thích định luật Newton thứ hai", conv.Title)
	assert.Equal(t, 2, conv.MessageCount)
}

func TestDeleteConversationHidesIt(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, "http://127.0.0.1:0")

	w := doJSON(r, "POST", "/api/study/conversations", gin.H{"title": "Bye"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "DELETE", "/api/study/conversations/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "GET", "/api/study/conversations/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchConversations(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, "http://127.0.0.1:0")

	for _, title := range []string{"Vật lý lượng tử", "Hóa hữu cơ"} {
		w := doJSON(r, "POST", "/api/study/conversations", gin.H{"title": title})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(r, "GET", "/api/study/search?q=lý", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := envelope(t, w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	w = doJSON(r, "GET", "/api/study/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatStoresBothTurns(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/study-chat", req.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"F = ma","confidence":0.93,"subject_detected":"physics","processing_time":0.4}`))
	}))
	defer upstream.Close()

	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, upstream.URL)

	w := doJSON(r, "POST", "/api/study/chat", gin.H{"message": "Định luật Newton thứ hai là gì?"})
	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.Message
	require.NoError(t, db.Order("id ASC").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageTypeUser, messages[0].Type)
	assert.Equal(t, models.MessageTypeAI, messages[1].Type)
	assert.Equal(t, "F = ma", messages[1].Content)
	assert.Equal(t, 0.93, messages[1].Metadata.Confidence)

	var conv models.Conversation
	require.NoError(t, db.First(&conv).Error)
	assert.Equal(t, 2, conv.MessageCount)
	assert.Equal(t, "Định luật Newton thứ hai là gì?", conv.Title)
}

func TestChatFallbackOnUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, upstream.URL)

	w := doJSON(r, "POST", "/api/study/chat", gin.H{"message": "Câu hỏi"})
	// upstream failure still succeeds for the client
	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.Message
	require.NoError(t, db.Order("id ASC").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, chatFallback, messages[1].Content)
	assert.True(t, messages[1].Metadata.Error)
}

func TestChatContinuesExistingConversation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer upstream.Close()

	db := newTestDB(t)
	user := seedUser(t, db)
	r := studyRouter(db, user, upstream.URL)

	w := doJSON(r, "POST", "/api/study/chat", gin.H{"message": "Câu đầu tiên"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "POST", "/api/study/chat", gin.H{"message": "Câu tiếp theo", "conversationId": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var convCount int64
	db.Model(&models.Conversation{}).Count(&convCount)
	assert.Equal(t, int64(1), convCount)

	var conv models.Conversation
	require.NoError(t, db.First(&conv).Error)
	assert.Equal(t, 4, conv.MessageCount)
}
