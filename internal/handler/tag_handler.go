package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/repository"
)

// TagHandler 标签处理器
// 标签随文章创建，这里只提供查询
type TagHandler struct {
	tags     *repository.TagRepository
	articles *repository.ArticleRepository
}

// NewTagHandler 创建标签处理器
func NewTagHandler(tags *repository.TagRepository, articles *repository.ArticleRepository) *TagHandler {
	return &TagHandler{tags: tags, articles: articles}
}

// ListTags 获取所有标签
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	success(c, tags)
}

// ListArticlesByTag 分页获取带指定标签的文章
func (h *TagHandler) ListArticlesByTag(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.tags.GetByName(c.Request.Context(), name); err != nil {
		errorResponse(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	articles, total, err := h.articles.ListByTag(c.Request.Context(), name, page, pageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}
	paginated(c, articles, total, page, pageSize)
}
