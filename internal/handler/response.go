package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ashwinyue/inkwell/internal/service/auth"
	"github.com/ashwinyue/inkwell/internal/service/types"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// success 成功响应
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// created 创建成功响应
func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// accepted 已受理响应，用于异步任务
func accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{Code: 0, Message: "accepted", Data: data})
}

// errorResponse 按错误类型映射状态码
// 校验错误带字段级明细
func errorResponse(c *gin.Context, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, Response{
			Code:    -1,
			Message: "validation failed",
			Data:    gin.H{"errors": map[string]string{ve.Field: ve.Message}},
		})
	case types.IsNotFound(err):
		c.JSON(http.StatusNotFound, Response{Code: -1, Message: "resource not found"})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, Response{Code: -1, Message: err.Error()})
	case errors.Is(err, auth.ErrAccountDisabled):
		c.JSON(http.StatusForbidden, Response{Code: -1, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{Code: -1, Message: err.Error()})
	}
}

// badRequest 参数绑定失败响应
// binding 校验失败时展开为字段级明细
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = "failed on '" + fe.Tag() + "' validation"
		}
		c.JSON(http.StatusBadRequest, Response{
			Code:    -1,
			Message: "validation failed",
			Data:    gin.H{"errors": fields},
		})
		return
	}
	c.JSON(http.StatusBadRequest, Response{Code: -1, Message: "invalid request: " + err.Error()})
}

// serviceUnavailable AI 服务未配置时的响应
func serviceUnavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, Response{Code: -1, Message: msg})
}

// PaginationData 分页响应
// Next 和 Prev 是相邻页码，越界时为 null
type PaginationData struct {
	Total   int64       `json:"total"`
	Pages   int         `json:"pages"`
	Next    *int        `json:"next"`
	Prev    *int        `json:"prev"`
	Results interface{} `json:"results"`
}

// paginated 分页成功响应
func paginated(c *gin.Context, results interface{}, total int64, page, pageSize int) {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}

	var next, prev *int
	if page < pages {
		n := page + 1
		next = &n
	}
	if page > 1 {
		p := page - 1
		prev = &p
	}

	success(c, PaginationData{
		Total:   total,
		Pages:   pages,
		Next:    next,
		Prev:    prev,
		Results: results,
	})
}
