package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SteamSync/internal/model"

	"gorm.io/gorm"
)

// AppidUpdated 库内(appid, updated)对，供Selector计算过期清单
type AppidUpdated struct {
	Appid   int
	Updated time.Time
}

// AppRepository 条目仓储
type AppRepository interface {
	GetByAppid(ctx context.Context, appid int) (*model.SteamApp, error)
	// ListAppidUpdated 返回全部(appid, updated)对，按updated升序（最旧在前）
	ListAppidUpdated(ctx context.Context) ([]AppidUpdated, error)
	// Upsert 幂等合并：存在则原地覆盖标量字段，不存在则新建；
	// 标签关联整集替换（非增量并集）；标量与标签在同一事务内提交
	Upsert(ctx context.Context, app *model.SteamApp, categories []*model.Category, genres []*model.Genre) error
	ListApps(ctx context.Context, appType string, page, pageSize int) ([]*model.SteamApp, int64, error)
}

type appRepository struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db: db}
}

func (r *appRepository) GetByAppid(ctx context.Context, appid int) (*model.SteamApp, error) {
	var app model.SteamApp
	err := r.db.WithContext(ctx).
		Preload("Categories").Preload("Genres").Preload("Achievements").
		Where("appid = ?", appid).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *appRepository) ListAppidUpdated(ctx context.Context) ([]AppidUpdated, error) {
	var pairs []AppidUpdated
	err := r.db.WithContext(ctx).Model(&model.SteamApp{}).
		Select("appid", "updated").Order("updated ASC").Scan(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("查询(appid, updated)清单失败: %w", err)
	}
	return pairs, nil
}

func (r *appRepository) Upsert(ctx context.Context, app *model.SteamApp, categories []*model.Category, genres []*model.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.SteamApp
		err := tx.Where("appid = ?", app.Appid).First(&existing).Error
		switch {
		case err == nil:
			// 原地覆盖：沿用主键与创建时间
			app.PK = existing.PK
			app.Created = existing.Created
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 首次入库
		default:
			return fmt.Errorf("查询appid %d失败: %w", app.Appid, err)
		}
		app.Updated = time.Now().UTC()

		if err := tx.Omit("Categories", "Genres", "Achievements").Save(app).Error; err != nil {
			return fmt.Errorf("保存appid %d失败: %w", app.Appid, err)
		}
		// 标签整集替换（空集合即清空关联）
		if err := tx.Model(app).Association("Categories").Replace(toInterfaceSlice(categories)...); err != nil {
			return fmt.Errorf("替换appid %d分类关联失败: %w", app.Appid, err)
		}
		if err := tx.Model(app).Association("Genres").Replace(toInterfaceSlice(genres)...); err != nil {
			return fmt.Errorf("替换appid %d题材关联失败: %w", app.Appid, err)
		}
		return nil
	})
}

// toInterfaceSlice 任意切片转为[]interface{}（适配Association变参）
func toInterfaceSlice[T any](slice []T) []interface{} {
	res := make([]interface{}, len(slice))
	for i, v := range slice {
		res[i] = v
	}
	return res
}

func (r *appRepository) ListApps(ctx context.Context, appType string, page, pageSize int) ([]*model.SteamApp, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.SteamApp{})
	if appType != "" {
		db = db.Where("type = ?", appType)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.SteamApp
	if err := db.Order("appid ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
