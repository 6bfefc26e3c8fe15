package repository

import (
	"context"

	"github.com/prabhucts/pmo/internal/models"
	"gorm.io/gorm"
)

type ChatRepo interface {
	Create(ctx context.Context, h *models.ChatHistory) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ChatHistory, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepo{db: db}
}

func (r *chatRepo) Create(ctx context.Context, h *models.ChatHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// ListBySession returns the newest limit exchanges, oldest first.
func (r *chatRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ChatHistory, error) {
	var out []models.ChatHistory
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
