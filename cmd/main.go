package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"SteamSync/internal/api"
	"SteamSync/internal/config"
	"SteamSync/internal/model"
	"SteamSync/internal/service"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	serve := flag.Bool("serve", false, "以API服务模式启动（默认执行一次同步后退出）")
	maxBatches := flag.Int("max-batches", -1, "覆盖本次运行最大批数（-1=取配置值）")
	maxMinutes := flag.Int("max-minutes", -1, "覆盖本次运行最大分钟数（-1=取配置值）")
	flag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}
	if *maxBatches >= 0 {
		cfg.Sync.MaxBatches = *maxBatches
	}
	if *maxMinutes >= 0 {
		cfg.Sync.MaxRunMinutes = *maxMinutes
	}

	// 2. 初始化日志
	logrusLogger := logrus.New()
	logrusLogger.SetLevel(logrus.InfoLevel)
	logrusLogger.Info("配置文件加载成功")

	// 3. GORM日志器：只在debug模式下显示SQL
	gormLogLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		gormLogLevel = logger.Info
	}

	// 4. 打开SQLite（文件不存在则自动创建）
	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		logrusLogger.Fatalf("打开SQLite失败: %v", err)
	}
	logrusLogger.Infof("SQLite打开成功: %s", cfg.Database.Path)

	// 5. 连接池：入库为单写者，SQLite下收紧连接数即可
	sqlDB, err := db.DB()
	if err != nil {
		logrusLogger.Fatalf("获取SQL DB失败: %v", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 6. 库表不存在则自动创建（含many2many关联表）
	if err := db.AutoMigrate(
		&model.SteamApp{},
		&model.Category{},
		&model.Genre{},
		&model.Achievement{},
		&model.AppidError{},
	); err != nil {
		logrusLogger.Fatalf("数据库表结构迁移失败: %v", err)
	}
	logrusLogger.Info("数据库表结构检查完成（不存在则已创建）")

	if !*serve {
		// 默认：执行一次有界同步后退出（适合cron反复调度）
		syncService := service.NewSyncService(db, logrusLogger, cfg)
		if _, err := syncService.Run(context.Background()); err != nil {
			logrusLogger.Fatalf("同步运行失败: %v", err)
		}
		return
	}

	// 7. serve模式：查询/触发接口
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	logrusLogger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	syncHandler := api.NewSyncHandler(db, logrusLogger, cfg)
	r.POST("/sync", syncHandler.TriggerSync)

	appHandler := api.NewAppHandler(db, logrusLogger)
	r.GET("/api/apps", appHandler.ListApps)
	r.GET("/api/apps/:appid", appHandler.GetAppDetail)
	r.GET("/api/errors", appHandler.ListErrors)

	port := cfg.Server.Port
	logrusLogger.Infof("服务启动成功，端口：%d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		logrusLogger.Fatalf("启动服务失败: %v", err)
	}
}
