package steam

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// 详情payload的逻辑性失败（不可重试，由调用方落账本）
var (
	ErrRemoteFailure    = errors.New("远端标记success=false")
	ErrAliasMismatch    = errors.New("appid别名不一致")
	ErrMissingField     = errors.New("缺少必需字段")
	ErrMalformedPayload = errors.New("payload无法解码")
)

// IsLogicalFailure 判断是否为不可重试的逻辑性失败（应落账本后跳过该appid）
func IsLogicalFailure(err error) bool {
	return errors.Is(err, ErrRemoteFailure) ||
		errors.Is(err, ErrAliasMismatch) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrMalformedPayload)
}

// releaseDateLayout Steam发售日期的固定文本格式（"Mon DD, YYYY"）
const releaseDateLayout = "Jan 2, 2006"

// TagData 分类/题材标签原始数据
type TagData struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// AppDetail 详情payload解析后的类型化中间结构（可选字段用指针表达）
type AppDetail struct {
	Appid             int
	Type              string
	IsFree            bool
	Name              string
	ControllerSupport *string
	MetacriticScore   *int
	MetacriticURL     *string
	Recommendations   *int
	AchievementsTotal int
	ReleaseDate       *time.Time
	Categories        []TagData
	Genres            []TagData
}

// AchievementPercent 全局成就达成率条目
type AchievementPercent struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

// appEnvelope 详情接口外层：{"<appid>": {"success": bool, "data": {...}}}
type appEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// rawAppData 详情data节点。必需字段用指针接收以便区分缺失。
type rawAppData struct {
	SteamAppid        *int      `json:"steam_appid"`
	Type              *string   `json:"type"`
	IsFree            bool      `json:"is_free"`
	Name              *string   `json:"name"`
	ControllerSupport *string   `json:"controller_support"`
	Metacritic        *struct { // 可选嵌套对象
		Score int    `json:"score"`
		URL   string `json:"url"`
	} `json:"metacritic"`
	Recommendations *struct {
		Total int `json:"total"`
	} `json:"recommendations"`
	Achievements *struct {
		Total int `json:"total"`
	} `json:"achievements"`
	ReleaseDate *struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Categories []TagData `json:"categories"`
	Genres     []TagData `json:"genres"`
}

// ParseAppDetail 解析并校验单个appid的详情payload。
// 逻辑性失败（success=false、别名appid不一致、必需字段缺失）返回可判定的
// 类型化错误；发售日期缺失/未发售/无法解析仅置空，不判失败。
func ParseAppDetail(appid int, body []byte) (*AppDetail, error) {
	var envelopes map[string]appEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("appid %d: %w: %v", appid, ErrMalformedPayload, err)
	}
	envelope, ok := envelopes[strconv.Itoa(appid)]
	if !ok {
		return nil, fmt.Errorf("appid %d: %w: 外层键", appid, ErrMissingField)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("appid %d: %w", appid, ErrRemoteFailure)
	}

	var data rawAppData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("appid %d: data节点%w: %v", appid, ErrMalformedPayload, err)
	}
	switch {
	case data.SteamAppid == nil:
		return nil, fmt.Errorf("appid %d: %w: steam_appid", appid, ErrMissingField)
	case data.Type == nil:
		return nil, fmt.Errorf("appid %d: %w: type", appid, ErrMissingField)
	case data.Name == nil:
		return nil, fmt.Errorf("appid %d: %w: name", appid, ErrMissingField)
	}
	// 目录会把同一产品挂在多个appid下，payload内的steam_appid才是权威id；
	// 不一致时拒绝入库，避免把数据合并到错误的条目上
	if *data.SteamAppid != appid {
		return nil, fmt.Errorf("请求appid %d，payload内为 %d: %w", appid, *data.SteamAppid, ErrAliasMismatch)
	}

	detail := &AppDetail{
		Appid:             *data.SteamAppid,
		Type:              *data.Type,
		IsFree:            data.IsFree,
		Name:              *data.Name,
		ControllerSupport: data.ControllerSupport,
		Categories:        dedupTags(data.Categories),
		Genres:            dedupTags(data.Genres),
	}
	if data.Metacritic != nil {
		score, url := data.Metacritic.Score, data.Metacritic.URL
		detail.MetacriticScore, detail.MetacriticURL = &score, &url
	}
	if data.Recommendations != nil {
		total := data.Recommendations.Total
		detail.Recommendations = &total
	}
	if data.Achievements != nil {
		detail.AchievementsTotal = data.Achievements.Total
	}
	if data.ReleaseDate != nil && !data.ReleaseDate.ComingSoon && data.ReleaseDate.Date != "" {
		if d, err := time.Parse(releaseDateLayout, data.ReleaseDate.Date); err == nil {
			detail.ReleaseDate = &d
		}
	}
	return detail, nil
}

// dedupTags 按id去重，保留首次出现
func dedupTags(tags []TagData) []TagData {
	seen := make(map[int]struct{}, len(tags))
	out := make([]TagData, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseAchievements 解析全局成就达成率payload
func ParseAchievements(body []byte) ([]AchievementPercent, error) {
	var resp struct {
		AchievementPercentages struct {
			Achievements []AchievementPercent `json:"achievements"`
		} `json:"achievementpercentages"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("成就%w: %v", ErrMalformedPayload, err)
	}
	return resp.AchievementPercentages.Achievements, nil
}
