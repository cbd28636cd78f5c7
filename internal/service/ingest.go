package service

import (
	"context"
	"fmt"

	"SteamSync/internal/model"
	"SteamSync/internal/steam"
)

// Import 解析单个appid的详情payload并幂等合并入库。
// 逻辑性失败（success=false、别名不一致、payload不完整）返回steam包的
// 类型化错误，且不创建/修改任何记录；存储层错误原样上抛。
func (s *SyncService) Import(ctx context.Context, appid int, body []byte) (*model.SteamApp, error) {
	detail, err := steam.ParseAppDetail(appid, body)
	if err != nil {
		return nil, err
	}

	// 标签find-or-create（全局共享表，按tag_id去重）
	catInput := make([]*model.Category, len(detail.Categories))
	for i, t := range detail.Categories {
		catInput[i] = &model.Category{TagID: t.ID, Description: t.Description}
	}
	categories, err := s.tags.GetOrCreateCategories(ctx, catInput)
	if err != nil {
		return nil, fmt.Errorf("appid %d标签入库失败: %w", appid, err)
	}
	genreInput := make([]*model.Genre, len(detail.Genres))
	for i, t := range detail.Genres {
		genreInput[i] = &model.Genre{TagID: t.ID, Description: t.Description}
	}
	genres, err := s.tags.GetOrCreateGenres(ctx, genreInput)
	if err != nil {
		return nil, fmt.Errorf("appid %d标签入库失败: %w", appid, err)
	}

	app := &model.SteamApp{
		Appid:             detail.Appid,
		Type:              detail.Type,
		IsFree:            detail.IsFree,
		Name:              detail.Name,
		ControllerSupport: detail.ControllerSupport,
		MetacriticScore:   detail.MetacriticScore,
		MetacriticURL:     detail.MetacriticURL,
		Recommendations:   detail.Recommendations,
		AchievementsTotal: detail.AchievementsTotal,
		ReleaseDate:       detail.ReleaseDate,
	}
	if err := s.apps.Upsert(ctx, app, categories, genres); err != nil {
		return nil, err
	}
	return app, nil
}

// ReconcileAchievements 解析成就payload并按(条目, 成就名)合并，
// 含同名多行脏数据的删全量重建恢复路径
func (s *SyncService) ReconcileAchievements(ctx context.Context, app *model.SteamApp, body []byte) error {
	list, err := steam.ParseAchievements(body)
	if err != nil {
		return err
	}
	rows := make([]model.Achievement, len(list))
	for i, a := range list {
		rows[i] = model.Achievement{SteamAppPK: app.PK, Name: a.Name, Percent: a.Percent}
	}
	return s.achievements.Reconcile(ctx, app.PK, rows)
}
