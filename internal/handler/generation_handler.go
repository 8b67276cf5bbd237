package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/middleware"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/task"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

// GenerationHandler 博客生成处理器
// 生成是异步的，接口受理后返回任务键
type GenerationHandler struct {
	writer     *writer.Service
	dispatcher *task.Dispatcher
	articles   *repository.ArticleRepository
}

// NewGenerationHandler 创建博客生成处理器
func NewGenerationHandler(writerSvc *writer.Service, dispatcher *task.Dispatcher, articles *repository.ArticleRepository) *GenerationHandler {
	return &GenerationHandler{
		writer:     writerSvc,
		dispatcher: dispatcher,
		articles:   articles,
	}
}

// GenerateRequest 生成博客请求
// Tags 会关联到生成的文章，和分析阶段的建议标签无关
type GenerateRequest struct {
	Topic string   `json:"topic" binding:"required"`
	Tags  []string `json:"tags"`
}

// GenerateArticle 触发博客生成任务
func (h *GenerationHandler) GenerateArticle(c *gin.Context) {
	if h.writer == nil {
		serviceUnavailable(c, "blog generation is not configured")
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	job := &task.WriteBlogJob{
		Topic:    req.Topic,
		Tags:     req.Tags,
		AuthorID: userID,
		Writer:   h.writer,
		Articles: h.articles,
	}

	// 同主题任务在途时直接返回已有任务键
	if err := h.dispatcher.Enqueue(job); err != nil && !errors.Is(err, task.ErrDuplicateJob) {
		errorResponse(c, err)
		return
	}

	accepted(c, gin.H{"task_key": job.Key()})
}

// GetTaskStatus 查询任务状态
func (h *GenerationHandler) GetTaskStatus(c *gin.Context) {
	key := c.Param("key")

	record, ok := h.dispatcher.Record(key)
	if !ok {
		c.JSON(http.StatusNotFound, Response{Code: -1, Message: "task not found"})
		return
	}
	success(c, record)
}
