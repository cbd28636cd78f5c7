package api

import (
	"errors"
	"net/http"
	"strconv"

	"SteamSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AppHandler 条目/账本查询接口（serve模式）
type AppHandler struct {
	apps   repository.AppRepository
	errs   repository.ErrorRepository
	logger *logrus.Logger
}

// NewAppHandler 创建 AppHandler
func NewAppHandler(db *gorm.DB, logger *logrus.Logger) *AppHandler {
	return &AppHandler{
		apps:   repository.NewAppRepository(db),
		errs:   repository.NewErrorRepository(db),
		logger: logger,
	}
}

// ListApps 条目列表接口
// GET /api/apps?type=game&page=1&page_size=20
func (h *AppHandler) ListApps(c *gin.Context) {
	appType := c.Query("type")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.apps.ListApps(c.Request.Context(), appType, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListApps failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "apps": list})
}

// GetAppDetail 条目详情（含标签与成就）
// GET /api/apps/:appid
func (h *AppHandler) GetAppDetail(c *gin.Context) {
	appid, err := strconv.Atoi(c.Param("appid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "appid必须为整数"})
		return
	}

	app, err := h.apps.GetByAppid(c.Request.Context(), appid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appid不存在"})
			return
		}
		h.logger.WithError(err).Error("GetAppDetail failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListErrors 永久跳过账本列表
// GET /api/errors?page=1&page_size=20
func (h *AppHandler) ListErrors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := h.errs.ListErrors(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListErrors failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "errors": list})
}
