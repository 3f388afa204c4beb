package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EDWINCHENC/c-transfer-unique/internal/model"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
)

type MessageRepository interface {
	// CreateWithQuota counts the origin's creations since windowStart and
	// inserts the message only while the count is below limit. The count and
	// the insert run in one transaction.
	CreateWithQuota(ctx context.Context, msg *model.Message, windowStart time.Time, limit int) error
	ListByCode(ctx context.Context, accessCode string) ([]model.Message, error)
	GetByID(ctx context.Context, id uint, accessCode string) (*model.Message, error)
	DeleteByID(ctx context.Context, id uint, accessCode string) error
	// FindByBlob returns the message referencing a stored filename under the
	// given code, or nil when no message references it yet.
	FindByBlob(ctx context.Context, accessCode, storedName string) (*model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) CreateWithQuota(ctx context.Context, msg *model.Message, windowStart time.Time, limit int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Message{}).
			Where("creator_ip = ? AND created_at >= ?", msg.CreatorIP, windowStart).
			Count(&count).Error
		if err != nil {
			return err
		}

		if count >= int64(limit) {
			return apperrors.ErrQuotaExceeded
		}

		return tx.Create(msg).Error
	})
}

func (r *messageRepository) ListByCode(ctx context.Context, accessCode string) ([]model.Message, error) {
	var messages []model.Message

	err := r.db.WithContext(ctx).
		Where("access_code = ?", accessCode).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint, accessCode string) (*model.Message, error) {
	var msg model.Message

	err := r.db.WithContext(ctx).
		Where("id = ? AND access_code = ?", id, accessCode).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Never reveals whether the id exists under a different code.
		return nil, apperrors.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

func (r *messageRepository) FindByBlob(ctx context.Context, accessCode, storedName string) (*model.Message, error) {
	var msg model.Message

	err := r.db.WithContext(ctx).
		Where("access_code = ? AND content = ?", accessCode, storedName).
		Order("created_at DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

func (r *messageRepository) DeleteByID(ctx context.Context, id uint, accessCode string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND access_code = ?", id, accessCode).
		Delete(&model.Message{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrMessageNotFound
	}

	return nil
}
