package repository

import (
	"context"
	"errors"
	"fmt"

	"SteamSync/internal/model"

	"gorm.io/gorm"
)

// TagRepository 标签仓储（分类/题材共用的find-or-create）。
// 入库按tag_id全局去重；入参应已按首次出现去重（见steam.ParseAppDetail）。
type TagRepository interface {
	GetOrCreateCategories(ctx context.Context, tags []*model.Category) ([]*model.Category, error)
	GetOrCreateGenres(ctx context.Context, tags []*model.Genre) ([]*model.Genre, error)
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetOrCreateCategories(ctx context.Context, tags []*model.Category) ([]*model.Category, error) {
	out := make([]*model.Category, 0, len(tags))
	for _, tag := range tags {
		var existing model.Category
		err := r.db.WithContext(ctx).Where("tag_id = ?", tag.TagID).First(&existing).Error
		switch {
		case err == nil:
			out = append(out, &existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
				return nil, fmt.Errorf("创建分类标签%d失败: %w", tag.TagID, err)
			}
			out = append(out, tag)
		default:
			return nil, fmt.Errorf("查询分类标签%d失败: %w", tag.TagID, err)
		}
	}
	return out, nil
}

func (r *tagRepository) GetOrCreateGenres(ctx context.Context, tags []*model.Genre) ([]*model.Genre, error) {
	out := make([]*model.Genre, 0, len(tags))
	for _, tag := range tags {
		var existing model.Genre
		err := r.db.WithContext(ctx).Where("tag_id = ?", tag.TagID).First(&existing).Error
		switch {
		case err == nil:
			out = append(out, &existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
				return nil, fmt.Errorf("创建题材标签%d失败: %w", tag.TagID, err)
			}
			out = append(out, tag)
		default:
			return nil, fmt.Errorf("查询题材标签%d失败: %w", tag.TagID, err)
		}
	}
	return out, nil
}
