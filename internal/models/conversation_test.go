package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTitleFromMessage(t *testing.T) {
	assert.Equal(t, "Giải phương trình bậc hai", TitleFromMessage("Giải phương trình bậc hai"))

	long := strings.Repeat("a", 60)
	got := TitleFromMessage(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)

	// multibyte content must be cut on rune boundaries
	viet := strings.Repeat("ế", 60)
	got = TitleFromMessage(viet)
	assert.Equal(t, strings.Repeat("ế", 50)+"...", got)
}

func seedConversation(t *testing.T, db *gorm.DB, userID uint) *Conversation {
	t.Helper()
	conv := &Conversation{
		UserID:        userID,
		WalletAddress: "0xabcdef1234567890abcdef1234567890abcdef12",
		Title:         "Test",
		LastMessageAt: time.Now(),
		IsActive:      true,
	}
	require.NoError(t, db.Create(conv).Error)
	return conv
}

func TestFindConversationsByUserExcludesDeleted(t *testing.T) {
	db := newTestDB(t)

	kept := seedConversation(t, db, 1)
	gone := seedConversation(t, db, 1)
	require.NoError(t, gone.SoftDelete(db))

	convs, total, err := FindConversationsByUser(db, 1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, convs, 1)
	assert.Equal(t, kept.ID, convs[0].ID)
}

func TestFindOwnedConversationRejectsOtherUsers(t *testing.T) {
	db := newTestDB(t)
	conv := seedConversation(t, db, 1)

	_, err := FindOwnedConversation(db, conv.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := FindOwnedConversation(db, conv.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}
