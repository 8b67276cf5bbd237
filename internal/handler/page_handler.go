package handler

import (
	"github.com/gin-gonic/gin"

	svcpage "github.com/ashwinyue/inkwell/internal/service/page"
)

// PageHandler 页面处理器
type PageHandler struct {
	svc *svcpage.Service
}

// NewPageHandler 创建页面处理器
func NewPageHandler(svc *svcpage.Service) *PageHandler {
	return &PageHandler{svc: svc}
}

// CreatePage 创建页面
func (h *PageHandler) CreatePage(c *gin.Context) {
	var req svcpage.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	created(c, page)
}

// GetPage 获取页面
// 参数既可以是 UUID 也可以是 slug
func (h *PageHandler) GetPage(c *gin.Context) {
	idOrSlug := c.Param("id")

	page, err := h.svc.Get(c.Request.Context(), idOrSlug)
	if err == nil {
		success(c, page)
		return
	}

	page, err = h.svc.GetBySlug(c.Request.Context(), idOrSlug)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, page)
}

// ListPages 获取页面列表
// active=true 时只返回启用的页面
func (h *PageHandler) ListPages(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	pages, err := h.svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, pages)
}

// UpdatePage 更新页面
func (h *PageHandler) UpdatePage(c *gin.Context) {
	var req svcpage.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, page)
}

// DeletePage 删除页面
func (h *PageHandler) DeletePage(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"deleted": true})
}
