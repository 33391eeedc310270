package transcript

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
)

func setupTranscriptTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	messages := `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL,
  direction TEXT NOT NULL,
  msg_type TEXT NOT NULL,
  body TEXT,
  provider_message_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(messages).Error)

	t.Cleanup(func() { db.Exec("DELETE FROM messages") })
	return db
}

func TestAppendPersistsBothDirections(t *testing.T) {
	db := setupTranscriptTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	conversationID := uuid.New()

	wamid := "wamid.HBgL=="
	inbound, err := repo.Append(ctx, Entry{
		ConversationID:    conversationID,
		Direction:         enums.MessageDirectionInbound,
		MsgType:           enums.MessageTypeText,
		Body:              map[string]any{"text": "menu"},
		ProviderMessageID: &wamid,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, inbound.ID)

	outbound, err := repo.Append(ctx, Entry{
		ConversationID: conversationID,
		Direction:      enums.MessageDirectionOutbound,
		MsgType:        enums.MessageTypeInteractive,
		Body:           map[string]any{"kind": "list"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, inbound.ID, outbound.ID)

	var count int64
	require.NoError(t, db.Table("messages").Where("conversation_id = ?", conversationID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	var storedWamid string
	require.NoError(t, db.Table("messages").
		Where("id = ?", inbound.ID).
		Pluck("provider_message_id", &storedWamid).Error)
	assert.Equal(t, wamid, storedWamid)
}

func TestAppendValidation(t *testing.T) {
	db := setupTranscriptTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Append(context.Background(), Entry{
		Direction: enums.MessageDirectionInbound,
		MsgType:   enums.MessageTypeText,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = repo.Append(context.Background(), Entry{
		ConversationID: uuid.New(),
		Direction:      enums.MessageDirection("sideways"),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
