package transcript

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesaflow/mesaflow-backend/pkg/db/models"
	"github.com/mesaflow/mesaflow-backend/pkg/enums"
	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
)

// Repository is the append-only conversation transcript. Rows are never
// updated or deleted here; retention is an operational concern.
type Repository interface {
	Append(ctx context.Context, entry Entry) (*models.Message, error)
}

// Entry is one transcript row to append.
type Entry struct {
	ConversationID    uuid.UUID
	Direction         enums.MessageDirection
	MsgType           enums.MessageType
	Body              map[string]any
	ProviderMessageID *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transcript repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, entry Entry) (*models.Message, error) {
	if entry.ConversationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "conversation id is required")
	}
	if !entry.Direction.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "direction is required")
	}

	message := models.Message{
		ID:                uuid.New(),
		ConversationID:    entry.ConversationID,
		Direction:         entry.Direction,
		MsgType:           entry.MsgType,
		Body:              entry.Body,
		ProviderMessageID: entry.ProviderMessageID,
	}
	if err := r.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append message")
	}
	return &message, nil
}
