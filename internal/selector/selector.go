package selector

import (
	"sort"
	"time"

	"SteamSync/internal/repository"
)

// Backlog 计算本次运行待(重)抓取的appid有序清单：
//  1. missing：目录中有、库中没有的appid（按appid升序，保证可复现）
//  2. stale：库中updated距now超过staleness的appid（按updated升序，最旧优先）
//  3. missing在前、stale在后拼接，再剔除永久跳过集合
//
// 结果无重复、不含账本中的appid。
func Backlog(catalog map[int]string, stored []repository.AppidUpdated, skip map[int]struct{}, staleness time.Duration, now time.Time) []int {
	storedSet := make(map[int]struct{}, len(stored))
	for _, s := range stored {
		storedSet[s.Appid] = struct{}{}
	}

	missing := make([]int, 0)
	for appid := range catalog {
		if _, ok := storedSet[appid]; !ok {
			missing = append(missing, appid)
		}
	}
	sort.Ints(missing)

	stale := make([]repository.AppidUpdated, 0)
	for _, s := range stored {
		if now.Sub(s.Updated) > staleness {
			stale = append(stale, s)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].Updated.Before(stale[j].Updated) })

	backlog := make([]int, 0, len(missing)+len(stale))
	seen := make(map[int]struct{}, len(missing)+len(stale))
	appendUnique := func(appid int) {
		if _, ok := skip[appid]; ok {
			return
		}
		if _, ok := seen[appid]; ok {
			return
		}
		seen[appid] = struct{}{}
		backlog = append(backlog, appid)
	}
	for _, appid := range missing {
		appendUnique(appid)
	}
	for _, s := range stale {
		appendUnique(s.Appid)
	}
	return backlog
}
