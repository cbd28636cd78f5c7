package service

import (
	"context"
	"io"
	"testing"
	"time"

	"SteamSync/internal/config"
	"SteamSync/internal/model"
	"SteamSync/internal/steam"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const broforcePayload = `{"274190": {"success": true, "data": {
	"steam_appid": 274190, "type": "game", "is_free": false,
	"name": "Broforce", "controller_support": "full",
	"metacritic": {"score": 77, "url": "https://www.metacritic.com/game/pc/broforce"},
	"recommendations": {"total": 22688},
	"achievements": {"total": 2},
	"release_date": {"coming_soon": false, "date": "Mar 15, 2014"},
	"categories": [{"id": 2, "description": "Single-player"}, {"id": 1, "description": "Multi-player"}],
	"genres": [{"id": 1, "description": "Action"}, {"id": 23, "description": "Indie"}]
}}}`

func newTestService(t *testing.T) (*SyncService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.SteamApp{}, &model.Category{}, &model.Genre{},
		&model.Achievement{}, &model.AppidError{},
	))

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewSyncService(db, log, &config.Config{}), db
}

func TestImportCreatesEntryWithTags(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	app, err := svc.Import(ctx, 274190, []byte(broforcePayload))
	require.NoError(t, err)
	assert.Equal(t, 274190, app.Appid)
	assert.NotZero(t, app.PK)

	got, err := svc.apps.GetByAppid(ctx, 274190)
	require.NoError(t, err)
	assert.Equal(t, "Broforce", got.Name)
	assert.Equal(t, 2, got.AchievementsTotal)
	require.NotNil(t, got.ReleaseDate)
	assert.Equal(t, time.March, got.ReleaseDate.Month())
	assert.Len(t, got.Categories, 2)
	assert.Len(t, got.Genres, 2)

	var tagCount int64
	require.NoError(t, db.Model(&model.Category{}).Count(&tagCount).Error)
	assert.EqualValues(t, 2, tagCount)
}

func TestImportIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first, err := svc.Import(ctx, 274190, []byte(broforcePayload))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := svc.Import(ctx, 274190, []byte(broforcePayload))
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.SteamApp{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "重复导入不得产生新行")
	assert.Equal(t, first.PK, second.PK)
	assert.True(t, second.Updated.After(first.Updated))

	// 标签关联也不膨胀
	got, err := svc.apps.GetByAppid(ctx, 274190)
	require.NoError(t, err)
	assert.Len(t, got.Categories, 2)
}

func TestImportAliasMismatchCreatesNothing(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	body := `{"659": {"success": true, "data": {"steam_appid": 620, "type": "game", "name": "Portal 2",
		"categories": [{"id": 2, "description": "Single-player"}]}}}`
	_, err := svc.Import(ctx, 659, []byte(body))
	require.ErrorIs(t, err, steam.ErrAliasMismatch)

	var appCount, tagCount int64
	require.NoError(t, db.Model(&model.SteamApp{}).Count(&appCount).Error)
	require.NoError(t, db.Model(&model.Category{}).Count(&tagCount).Error)
	assert.Zero(t, appCount)
	assert.Zero(t, tagCount, "别名不一致时不得创建任何记录")
}

func TestImportRemoteFailure(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Import(context.Background(), 12345, []byte(`{"12345": {"success": false}}`))
	require.ErrorIs(t, err, steam.ErrRemoteFailure)
	assert.True(t, steam.IsLogicalFailure(err))

	var count int64
	require.NoError(t, db.Model(&model.SteamApp{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReconcileAchievementsFromPayload(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	app, err := svc.Import(ctx, 274190, []byte(broforcePayload))
	require.NoError(t, err)

	body := `{"achievementpercentages": {"achievements": [
		{"name": "BRO_DOWN", "percent": 84.5},
		{"name": "ALL_BROS", "percent": 1.2}
	]}}`
	require.NoError(t, svc.ReconcileAchievements(ctx, app, []byte(body)))

	count, err := svc.achievements.CountByApp(ctx, app.PK)
	require.NoError(t, err)
	assert.EqualValues(t, app.AchievementsTotal, count)

	// 同一payload再合并一次：行数不变
	require.NoError(t, svc.ReconcileAchievements(ctx, app, []byte(body)))
	count, err = svc.achievements.CountByApp(ctx, app.PK)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
