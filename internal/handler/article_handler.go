package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/middleware"
	svcarticle "github.com/ashwinyue/inkwell/internal/service/article"
	"github.com/ashwinyue/inkwell/internal/service/search"
)

var errMissingQuery = errors.New("query parameter 'q' is required")

// ArticleHandler 文章处理器
type ArticleHandler struct {
	svc    *svcarticle.Service
	search *search.Service
}

// NewArticleHandler 创建文章处理器
func NewArticleHandler(svc *svcarticle.Service, searchSvc *search.Service) *ArticleHandler {
	return &ArticleHandler{svc: svc, search: searchSvc}
}

// CreateArticle 创建文章
// 作者固定为当前登录用户
func (h *ArticleHandler) CreateArticle(c *gin.Context) {
	var req svcarticle.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	authorID, _ := middleware.GetUserID(c)
	article, err := h.svc.Create(c.Request.Context(), authorID, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	created(c, article)
}

// GetArticle 获取文章
// 参数既可以是 UUID 也可以是 slug
func (h *ArticleHandler) GetArticle(c *gin.Context) {
	idOrSlug := c.Param("id")

	article, err := h.svc.Get(c.Request.Context(), idOrSlug)
	if err == nil {
		success(c, article)
		return
	}

	article, err = h.svc.GetBySlug(c.Request.Context(), idOrSlug)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, article)
}

// ListArticles 分页获取文章列表
func (h *ArticleHandler) ListArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	articles, total, err := h.svc.List(c.Request.Context(), page, pageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}
	paginated(c, articles, total, page, pageSize)
}

// UpdateArticle 局部更新文章
func (h *ArticleHandler) UpdateArticle(c *gin.Context) {
	id := c.Param("id")

	var req svcarticle.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	article, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, article)
}

// DeleteArticle 删除文章
func (h *ArticleHandler) DeleteArticle(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"deleted": true})
}

// SearchArticles 语义检索文章
func (h *ArticleHandler) SearchArticles(c *gin.Context) {
	if h.search == nil {
		serviceUnavailable(c, "article search is not configured")
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, errMissingQuery)
		return
	}

	results, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, gin.H{"query": query, "results": results})
}
