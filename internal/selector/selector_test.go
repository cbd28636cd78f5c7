package selector

import (
	"testing"
	"time"

	"SteamSync/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestBacklogFreshStaleSkip(t *testing.T) {
	now := time.Now().UTC()
	staleness := 3 * 24 * time.Hour

	catalog := map[int]string{1: "one", 2: "two", 3: "three"}
	stored := []repository.AppidUpdated{
		{Appid: 1, Updated: now},                          // 新鲜，不重拉
		{Appid: 2, Updated: now.Add(-11 * 24 * time.Hour)}, // 过期
	}
	skip := map[int]struct{}{3: {}} // missing但在账本里

	backlog := Backlog(catalog, stored, skip, staleness, now)
	assert.Equal(t, []int{2}, backlog)
}

func TestBacklogMissingBeforeStaleAndOrdered(t *testing.T) {
	now := time.Now().UTC()
	staleness := 3 * 24 * time.Hour

	catalog := map[int]string{30: "c", 10: "a", 20: "b", 40: "d", 50: "e"}
	stored := []repository.AppidUpdated{
		{Appid: 40, Updated: now.Add(-5 * 24 * time.Hour)},  // 较新的过期项
		{Appid: 50, Updated: now.Add(-10 * 24 * time.Hour)}, // 最旧
	}

	backlog := Backlog(catalog, stored, nil, staleness, now)
	// missing按appid升序，stale按updated升序（最旧在前）
	assert.Equal(t, []int{10, 20, 30, 50, 40}, backlog)
}

func TestBacklogNoDuplicates(t *testing.T) {
	now := time.Now().UTC()
	catalog := map[int]string{1: "one"}
	stored := []repository.AppidUpdated{
		{Appid: 1, Updated: now.Add(-4 * 24 * time.Hour)},
		{Appid: 1, Updated: now.Add(-9 * 24 * time.Hour)}, // 异常重复输入
	}

	backlog := Backlog(catalog, stored, nil, 3*24*time.Hour, now)
	assert.Equal(t, []int{1}, backlog)
}

func TestBacklogStaleNotLimitedToCatalog(t *testing.T) {
	// 已下架的条目仍会按过期刷新（由Ingestor侧处理远端失败）
	now := time.Now().UTC()
	stored := []repository.AppidUpdated{
		{Appid: 99, Updated: now.Add(-30 * 24 * time.Hour)},
	}

	backlog := Backlog(map[int]string{}, stored, nil, 3*24*time.Hour, now)
	assert.Equal(t, []int{99}, backlog)
}
