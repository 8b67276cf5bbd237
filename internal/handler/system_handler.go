package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	svc *service.Services
	db  *gorm.DB
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(svc *service.Services, repo *repository.Repositories) *SystemHandler {
	return &SystemHandler{svc: svc, db: repo.DB}
}

// Health 健康检查
// 报告数据库连通性和各可选组件的启用状态
func (h *SystemHandler) Health(c *gin.Context) {
	dbStatus := "up"
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "down"
	}

	status := gin.H{
		"status":   "ok",
		"app":      h.svc.Config.App.Name,
		"version":  h.svc.Config.App.Version,
		"database": dbStatus,
		"components": gin.H{
			"embedding": h.svc.Embedding != nil,
			"writer":    h.svc.Writer != nil,
			"search":    h.svc.Search != nil,
		},
	}

	if dbStatus == "down" {
		status["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
