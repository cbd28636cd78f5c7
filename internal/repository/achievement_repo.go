package repository

import (
	"context"
	"fmt"

	"SteamSync/internal/model"

	"gorm.io/gorm"
)

// AchievementRepository 成就仓储
type AchievementRepository interface {
	// Reconcile 把抓取到的成就清单合并进库：按(条目, 成就名)逐条upsert；
	// 若同名成就已存在多行（早期缺陷遗留的脏数据），整体删除该条目的
	// 全部成就行后按抓取结果重建，而不是报错。
	// 后置条件：条目的成就行数等于抓取清单长度。
	Reconcile(ctx context.Context, appPK uint64, fetched []model.Achievement) error
	CountByApp(ctx context.Context, appPK uint64) (int64, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Reconcile(ctx context.Context, appPK uint64, fetched []model.Achievement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range fetched {
			fetched[i].SteamAppPK = appPK
			var rows []model.Achievement
			if err := tx.Where("steam_app_pk = ? AND name = ?", appPK, fetched[i].Name).Find(&rows).Error; err != nil {
				return fmt.Errorf("查询成就失败: %w", err)
			}
			switch {
			case len(rows) > 1:
				// 同名成就出现多行：删全量后重建
				return rebuildAchievements(tx, appPK, fetched)
			case len(rows) == 1:
				if err := tx.Model(&rows[0]).Update("percent", fetched[i].Percent).Error; err != nil {
					return fmt.Errorf("更新成就%q失败: %w", fetched[i].Name, err)
				}
			default:
				row := fetched[i]
				row.PK = 0
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("插入成就%q失败: %w", row.Name, err)
				}
			}
		}
		return nil
	})
}

// rebuildAchievements 脏数据恢复路径：清空该条目的成就行，按抓取清单重插
func rebuildAchievements(tx *gorm.DB, appPK uint64, fetched []model.Achievement) error {
	if err := tx.Where("steam_app_pk = ?", appPK).Delete(&model.Achievement{}).Error; err != nil {
		return fmt.Errorf("清空成就行失败: %w", err)
	}
	fresh := make([]model.Achievement, len(fetched))
	for i, a := range fetched {
		fresh[i] = model.Achievement{SteamAppPK: appPK, Name: a.Name, Percent: a.Percent}
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := tx.Create(&fresh).Error; err != nil {
		return fmt.Errorf("重建成就行失败: %w", err)
	}
	return nil
}

func (r *achievementRepository) CountByApp(ctx context.Context, appPK uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Achievement{}).Where("steam_app_pk = ?", appPK).Count(&count).Error
	return count, err
}
