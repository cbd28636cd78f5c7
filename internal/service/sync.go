package service

import (
	"context"
	"fmt"
	"time"

	"SteamSync/internal/config"
	"SteamSync/internal/fetcher"
	"SteamSync/internal/model"
	"SteamSync/internal/repository"
	"SteamSync/internal/selector"
	"SteamSync/internal/steam"
	"SteamSync/internal/utils/pacer"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SyncService 同步编排：Selector产出backlog → 切批 → 批内并发抓取（Pacer限速）
// → 逐条顺序入库 → 任一环节失败落账本，不中断本次运行
type SyncService struct {
	db           *gorm.DB
	logger       *logrus.Logger
	cfg          *config.Config
	client       *steam.Client
	fetcher      *fetcher.Fetcher
	apps         repository.AppRepository
	tags         repository.TagRepository
	achievements repository.AchievementRepository
	errs         repository.ErrorRepository
}

func NewSyncService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *SyncService {
	client := steam.NewClient(&cfg.Steam, logger)
	return &SyncService{
		db:           db,
		logger:       logger,
		cfg:          cfg,
		client:       client,
		fetcher:      fetcher.New(client.HTTPClient(), cfg.Steam.RetryBaseWait, logger),
		apps:         repository.NewAppRepository(db),
		tags:         repository.NewTagRepository(db),
		achievements: repository.NewAchievementRepository(db),
		errs:         repository.NewErrorRepository(db),
	}
}

// RunStats 单次运行统计
type RunStats struct {
	Backlog  int `json:"backlog"`
	Batches  int `json:"batches"`
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// Run 执行一次有界同步。运行上限（最大批数/最大分钟数）仅在批边界检查，
// 进行中的批总会完整结束。仅存储层故障会中断运行并上抛。
func (s *SyncService) Run(ctx context.Context) (*RunStats, error) {
	log := s.logger.WithField("run_id", uuid.NewString())
	begin := time.Now()

	// 1. 全量目录
	catalog, err := s.client.FetchAppList(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取全量目录失败: %w", err)
	}

	// 2. 库内(appid, updated) + 永久跳过集合
	stored, err := s.apps.ListAppidUpdated(ctx)
	if err != nil {
		return nil, err
	}
	skip, err := s.errs.ListAppids(ctx)
	if err != nil {
		return nil, err
	}

	// 3. backlog：missing在前（appid升序）、stale在后（最旧优先）
	staleness := time.Duration(s.cfg.Sync.StalenessDays) * 24 * time.Hour
	backlog := selector.Backlog(catalog, stored, skip, staleness, time.Now().UTC())
	log.Infof("backlog计算完成：目录%d，库内%d，跳过%d，待处理%d",
		len(catalog), len(stored), len(skip), len(backlog))

	// 4. 切批逐批处理
	stats := &RunStats{Backlog: len(backlog)}
	for _, batch := range chunk(backlog, s.cfg.Sync.BatchSize) {
		if s.cfg.Sync.MaxBatches > 0 && stats.Batches >= s.cfg.Sync.MaxBatches {
			log.Infof("达到最大批数%d，本次运行结束", s.cfg.Sync.MaxBatches)
			break
		}
		if s.cfg.Sync.MaxRunMinutes > 0 && time.Since(begin) > time.Duration(s.cfg.Sync.MaxRunMinutes)*time.Minute {
			log.Infof("达到最大运行时长%d分钟，本次运行结束", s.cfg.Sync.MaxRunMinutes)
			break
		}
		// 整批置于限速窗口下，近似请求/窗口预算
		err := pacer.Pace(s.cfg.Sync.PaceWindow, func() error {
			return s.processBatch(ctx, log, batch, catalog, stats)
		})
		if err != nil {
			return stats, err
		}
		stats.Batches++
	}

	log.Infof("同步完成：%d批，成功%d，失败%d，耗时%s",
		stats.Batches, stats.Imported, stats.Failed, time.Since(begin).Round(time.Second))
	return stats, nil
}

// processBatch 处理一批appid：并发抓详情 → 逐条顺序合并（单写者） →
// 对有成就的条目再抓成就并reconcile。返回的error仅来自存储层。
func (s *SyncService) processBatch(ctx context.Context, log *logrus.Entry, batch []int, catalog map[int]string, stats *RunStats) error {
	urls := make([]string, len(batch))
	for i, appid := range batch {
		urls[i] = s.client.AppDetailURL(appid)
	}
	results := s.fetcher.FetchAll(ctx, urls)

	var withAchievements []*model.SteamApp
	for i, res := range results {
		appid := batch[i]
		if res.Err != nil {
			stats.Failed++
			if err := s.recordFailure(ctx, log, appid, catalog[appid], res.Err); err != nil {
				return err
			}
			continue
		}
		app, err := s.Import(ctx, appid, res.Body)
		if err != nil {
			if !steam.IsLogicalFailure(err) {
				return err // 存储层故障，中断运行
			}
			stats.Failed++
			if err := s.recordFailure(ctx, log, appid, catalog[appid], err); err != nil {
				return err
			}
			continue
		}
		stats.Imported++
		if app.AchievementsTotal > 0 {
			withAchievements = append(withAchievements, app)
		}
	}

	return s.syncAchievements(ctx, log, withAchievements, stats)
}

// syncAchievements 成就合并独立于条目自身的重拉周期：本批成功入库且
// achievements_total>0的条目，并发抓取全局达成率后逐条reconcile
func (s *SyncService) syncAchievements(ctx context.Context, log *logrus.Entry, apps []*model.SteamApp, stats *RunStats) error {
	if len(apps) == 0 {
		return nil
	}
	urls := make([]string, len(apps))
	for i, app := range apps {
		urls[i] = s.client.AchievementURL(app.Appid)
	}
	results := s.fetcher.FetchAll(ctx, urls)
	for i, res := range results {
		app := apps[i]
		if res.Err != nil {
			stats.Failed++
			if err := s.recordFailure(ctx, log, app.Appid, app.Name, res.Err); err != nil {
				return err
			}
			continue
		}
		if err := s.ReconcileAchievements(ctx, app, res.Body); err != nil {
			if !steam.IsLogicalFailure(err) {
				return err // 存储层故障
			}
			stats.Failed++
			if err := s.recordFailure(ctx, log, app.Appid, app.Name, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordFailure 失败收敛点：写入append-only账本（首次原因保留），
// 写账本本身失败视作存储层故障上抛
func (s *SyncService) recordFailure(ctx context.Context, log *logrus.Entry, appid int, name string, cause error) error {
	log.WithError(cause).Warnf("appid %d处理失败，记入账本", appid)
	return s.errs.Record(ctx, appid, name, cause.Error())
}

// chunk 把backlog切成不重叠的定长批（末批可能不满）
func chunk(appids []int, size int) [][]int {
	if size <= 0 {
		size = 10
	}
	batches := make([][]int, 0, (len(appids)+size-1)/size)
	for start := 0; start < len(appids); start += size {
		end := start + size
		if end > len(appids) {
			end = len(appids)
		}
		batches = append(batches, appids[start:end])
	}
	return batches
}
