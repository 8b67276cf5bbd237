package handler

import (
	"github.com/gin-gonic/gin"

	svcproject "github.com/ashwinyue/inkwell/internal/service/project"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	svc *svcproject.Service
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(svc *svcproject.Service) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req svcproject.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	created(c, project)
}

// GetProject 获取项目
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, project)
}

// ListProjects 获取项目列表
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, projects)
}

// UpdateProject 更新项目
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var req svcproject.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	project, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, project)
}

// DeleteProject 删除项目
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"deleted": true})
}
