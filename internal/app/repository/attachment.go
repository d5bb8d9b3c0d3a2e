package repository

import (
	"context"
	"errors"

	"backend/internal/app/ds"

	"gorm.io/gorm"
)

// Методы для вложений (непрозрачные ссылки на файлы в MinIO)

func (r *Repository) CreateAttachment(ctx context.Context, att *ds.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *Repository) GetAttachment(ctx context.Context, id string) (*ds.Attachment, error) {
	var att ds.Attachment
	err := r.db.WithContext(ctx).First(&att, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *Repository) DeleteAttachment(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&ds.Attachment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
