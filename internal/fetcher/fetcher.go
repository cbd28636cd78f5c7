package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxAttempts 重试上限：等待从baseWait逐次翻倍，翻到baseWait×64之前共6次尝试
const maxAttempts = 6

// Result 单个URL的抓取结果（与输入顺序对齐，失败以Err标记而非panic）
type Result struct {
	URL  string
	Body []byte
	Err  error
}

// Fetcher 并发抓取引擎：批内URL全部并发发出，单URL失败不影响兄弟请求
type Fetcher struct {
	client   *http.Client
	baseWait time.Duration
	logger   *logrus.Logger
}

func New(client *http.Client, baseWait time.Duration, logger *logrus.Logger) *Fetcher {
	if baseWait <= 0 {
		baseWait = time.Second
	}
	return &Fetcher{client: client, baseWait: baseWait, logger: logger}
}

// FetchAll 并发GET一批URL，返回与输入同序的结果切片。
// 并发度由共享http.Client的连接池上限约束（批大小本身≤10）。
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = f.fetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

// fetchOne 带上限的迭代重试：超时/传输错误/HTTP 4xx、5xx均视为可重试，
// 等待逐次翻倍；达到上限后产出携带URL与末次错误的终态失败
func (f *Fetcher) fetchOne(ctx context.Context, url string) Result {
	wait := f.baseWait
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, err := f.get(ctx, url)
		if err == nil {
			return Result{URL: url, Body: body}
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		f.logger.WithError(err).WithField("url", url).Warnf("请求失败，%s后第%d次重试", wait, attempt)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Result{URL: url, Err: ctx.Err()}
		}
		wait *= 2
	}
	return Result{URL: url, Err: fmt.Errorf("重试%d次后仍失败: %w", maxAttempts, lastErr)}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		// 读完body让连接可复用
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}
