package repository

import (
	"context"
	"fmt"

	"SteamSync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrorRepository 永久跳过账本仓储（append-only，不提供删除/过期）
type ErrorRepository interface {
	// Record appid不存在则插入，已存在则no-op（首次原因保留，不覆盖）
	Record(ctx context.Context, appid int, name, reason string) error
	// ListAppids 返回账本内全部appid集合，供Selector剔除
	ListAppids(ctx context.Context) (map[int]struct{}, error)
	ListErrors(ctx context.Context, page, pageSize int) ([]*model.AppidError, int64, error)
}

type errorRepository struct {
	db *gorm.DB
}

func NewErrorRepository(db *gorm.DB) ErrorRepository {
	return &errorRepository{db: db}
}

func (r *errorRepository) Record(ctx context.Context, appid int, name, reason string) error {
	entry := &model.AppidError{Appid: appid, Name: name, Reason: reason}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appid"}},
		DoNothing: true,
	}).Create(entry).Error
	if err != nil {
		return fmt.Errorf("记录账本appid %d失败: %w", appid, err)
	}
	return nil
}

func (r *errorRepository) ListAppids(ctx context.Context) (map[int]struct{}, error) {
	var appids []int
	if err := r.db.WithContext(ctx).Model(&model.AppidError{}).Pluck("appid", &appids).Error; err != nil {
		return nil, fmt.Errorf("查询账本appid清单失败: %w", err)
	}
	skip := make(map[int]struct{}, len(appids))
	for _, appid := range appids {
		skip[appid] = struct{}{}
	}
	return skip, nil
}

func (r *errorRepository) ListErrors(ctx context.Context, page, pageSize int) ([]*model.AppidError, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.AppidError{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.AppidError
	if err := db.Order("appid ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
