package api

import (
	"net/http"
	"sync"

	"SteamSync/internal/config"
	"SteamSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SyncHandler 手动触发一次有界同步（serve模式）
type SyncHandler struct {
	syncService *service.SyncService
	logger      *logrus.Logger
	mu          sync.Mutex // 入库为单写者，同一时刻只允许一次运行
}

func NewSyncHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		syncService: service.NewSyncService(db, logger, cfg),
		logger:      logger,
	}
}

// TriggerSync 触发同步运行
// POST /sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	if !h.mu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "已有同步运行中"})
		return
	}
	defer h.mu.Unlock()

	stats, err := h.syncService.Run(c.Request.Context())
	if err != nil {
		h.logger.Errorf("同步运行失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "同步完成", "stats": stats})
}
