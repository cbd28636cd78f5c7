package model

import (
	"time"
)

// SteamApp 商店条目主表（以steam_appid为全局唯一业务主键）
type SteamApp struct {
	PK                uint64     `gorm:"column:pk;primaryKey;autoIncrement;comment:自增主键ID"`
	Appid             int        `gorm:"column:appid;uniqueIndex;not null;comment:Steam全局唯一appid"`
	Type              string     `gorm:"column:type;type:varchar(32);not null;comment:条目类型：game/dlc/demo等"`
	IsFree            bool       `gorm:"column:is_free;default:false;comment:是否免费"`
	Name              string     `gorm:"column:name;type:varchar(256);index;not null;comment:展示名称"`
	ControllerSupport *string    `gorm:"column:controller_support;type:varchar(16);comment:手柄支持：full/partial"`
	MetacriticScore   *int       `gorm:"column:metacritic_score;comment:Metacritic评分"`
	MetacriticURL     *string    `gorm:"column:metacritic_url;type:varchar(256);comment:Metacritic链接"`
	Recommendations   *int       `gorm:"column:recommendations;comment:推荐总数"`
	AchievementsTotal int        `gorm:"column:achievements_total;default:0;comment:成就总数"`
	ReleaseDate       *time.Time `gorm:"column:release_date;type:date;comment:发售日期（未发售/无法解析则为空）"`
	Created           time.Time  `gorm:"column:created;autoCreateTime;comment:创建时间"`
	Updated           time.Time  `gorm:"column:updated;index;comment:最近一次成功合并时间"`

	Categories   []*Category   `gorm:"many2many:steam_app_categories"`
	Genres       []*Genre      `gorm:"many2many:steam_app_genres"`
	Achievements []Achievement `gorm:"foreignKey:SteamAppPK;constraint:OnDelete:CASCADE"`
}

// Category 分类标签（全局共享，many2many关联SteamApp，按tag_id去重）
type Category struct {
	PK          uint64 `gorm:"column:pk;primaryKey;autoIncrement;comment:自增主键ID"`
	TagID       int    `gorm:"column:tag_id;uniqueIndex;not null;comment:Steam侧分类id"`
	Description string `gorm:"column:description;type:varchar(128);not null;comment:分类描述"`
}

// Genre 题材标签（全局共享，many2many关联SteamApp，按tag_id去重）
type Genre struct {
	PK          uint64 `gorm:"column:pk;primaryKey;autoIncrement;comment:自增主键ID"`
	TagID       int    `gorm:"column:tag_id;uniqueIndex;not null;comment:Steam侧题材id"`
	Description string `gorm:"column:description;type:varchar(128);not null;comment:题材描述"`
}

// Achievement 全局成就达成率（归属唯一SteamApp，删除条目时级联删除）。
// 注意：此处刻意不加(steam_app_pk,name)唯一约束——历史脏数据允许出现重复行，
// 由Reconcile负责修复，见repository.AchievementRepository。
type Achievement struct {
	PK         uint64  `gorm:"column:pk;primaryKey;autoIncrement;comment:自增主键ID"`
	SteamAppPK uint64  `gorm:"column:steam_app_pk;index;not null;comment:关联SteamApp主键"`
	Name       string  `gorm:"column:name;type:varchar(256);not null;comment:成就名称"`
	Percent    float64 `gorm:"column:percent;type:numeric(8,4);not null;comment:全局达成率（0-100）"`
}

// AppidError 永久跳过账本（append-only：同appid重复失败不覆盖首次原因）
type AppidError struct {
	PK     uint64 `gorm:"column:pk;primaryKey;autoIncrement;comment:自增主键ID"`
	Appid  int    `gorm:"column:appid;uniqueIndex;not null;comment:失败的appid"`
	Name   string `gorm:"column:name;type:varchar(256);comment:展示名称"`
	Reason string `gorm:"column:reason;type:varchar(512);comment:首次失败原因"`
}

func (SteamApp) TableName() string    { return "steam_app" }
func (Category) TableName() string    { return "category" }
func (Genre) TableName() string       { return "genre" }
func (Achievement) TableName() string { return "achievement" }
func (AppidError) TableName() string  { return "appid_error" }
