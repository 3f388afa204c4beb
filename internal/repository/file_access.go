package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/EDWINCHENC/c-transfer-unique/internal/model"
	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
)

type FileAccessRepository interface {
	Register(ctx context.Context, accessCode, filename string) (*model.FileAccess, error)
	Lookup(ctx context.Context, accessCode, filename string) (*model.FileAccess, error)
	Delete(ctx context.Context, accessCode, filename string) error
}

type fileAccessRepository struct {
	db *gorm.DB
}

func NewFileAccessRepository(db *gorm.DB) FileAccessRepository {
	return &fileAccessRepository{db: db}
}

func (r *fileAccessRepository) Register(ctx context.Context, accessCode, filename string) (*model.FileAccess, error) {
	fa := &model.FileAccess{
		Filename:   filename,
		AccessCode: accessCode,
	}

	if err := r.db.WithContext(ctx).Create(fa).Error; err != nil {
		return nil, err
	}

	return fa, nil
}

func (r *fileAccessRepository) Lookup(ctx context.Context, accessCode, filename string) (*model.FileAccess, error) {
	var fa model.FileAccess

	err := r.db.WithContext(ctx).
		Where("filename = ? AND access_code = ?", filename, accessCode).
		First(&fa).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &fa, nil
}

func (r *fileAccessRepository) Delete(ctx context.Context, accessCode, filename string) error {
	return r.db.WithContext(ctx).
		Where("filename = ? AND access_code = ?", filename, accessCode).
		Delete(&model.FileAccess{}).Error
}
