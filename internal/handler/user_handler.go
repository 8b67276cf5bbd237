package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
)

// UserHandler 用户管理处理器
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler 创建用户管理处理器
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// GetUser 获取用户
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, user.ToUserInfo())
}

// ListUsers 分页获取用户列表
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := h.users.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}

	infos := make([]*model.UserInfo, len(users))
	for i, u := range users {
		infos[i] = u.ToUserInfo()
	}
	paginated(c, infos, total, page, pageSize)
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Avatar   *string `json:"avatar"`
	IsActive *bool   `json:"is_active"`
}

// UpdateUser 更新用户资料
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.users.UpdateUser(c.Request.Context(), user); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, user.ToUserInfo())
}

// DeleteUser 删除用户
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.users.GetUserByID(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"deleted": true})
}
