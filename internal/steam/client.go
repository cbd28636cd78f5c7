package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"SteamSync/internal/config"
	"SteamSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Client Steam Web API适配器（目录/详情/成就三个GET接口，无需鉴权）
type Client struct {
	cfg        *config.SteamConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(cfg *config.SteamConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// HTTPClient 暴露底层客户端供fetcher复用（共享连接池与超时）
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// AppDetailURL 条目详情接口地址
func (c *Client) AppDetailURL(appid int) string {
	return fmt.Sprintf("%s?appids=%d", c.cfg.AppDetailURL, appid)
}

// AchievementURL 全局成就接口地址
func (c *Client) AchievementURL(appid int) string {
	return fmt.Sprintf("%s?gameid=%d&format=json", c.cfg.AchievementURL, appid)
}

// FetchAppList 拉取全量目录，返回appid→展示名称映射
func (c *Client) FetchAppList(ctx context.Context) (map[int]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AppListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造目录请求失败: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取全量目录失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取全量目录失败: HTTP %d", resp.StatusCode)
	}

	var listing struct {
		AppList struct {
			Apps []struct {
				Appid int    `json:"appid"`
				Name  string `json:"name"`
			} `json:"apps"`
		} `json:"applist"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("解析全量目录失败: %w", err)
	}

	catalog := make(map[int]string, len(listing.AppList.Apps))
	for _, app := range listing.AppList.Apps {
		catalog[app.Appid] = app.Name
	}
	c.logger.Infof("全量目录拉取完成，共%d个appid", len(catalog))
	return catalog, nil
}
