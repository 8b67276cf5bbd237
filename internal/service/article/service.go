// Package article 提供文章的业务逻辑
package article

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/embedding"
	"github.com/ashwinyue/inkwell/internal/service/task"
	"github.com/ashwinyue/inkwell/internal/service/types"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

// Service 文章服务
// 写操作成功后触发异步向量化，任务失败不影响请求结果
type Service struct {
	repo       *repository.ArticleRepository
	embedder   *embedding.Service
	dispatcher *task.Dispatcher
	index      task.Indexer
}

// NewService 创建文章服务
// dispatcher 可为 nil，此时跳过异步向量化
func NewService(repo *repository.ArticleRepository, embedder *embedding.Service, dispatcher *task.Dispatcher, index task.Indexer) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("article repository is required")
	}
	return &Service{
		repo:       repo,
		embedder:   embedder,
		dispatcher: dispatcher,
		index:      index,
	}, nil
}

// CreateRequest 创建文章请求
// 作者取自当前登录用户，不从请求体读取；slug 缺省时由标题生成
type CreateRequest struct {
	Title       string   `json:"title" binding:"required"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Content     string   `json:"content" binding:"required"`
	Image       string   `json:"image"`
	IsDraft     *bool    `json:"is_draft"`
	Tags        []string `json:"tags"`
}

// UpdateRequest 更新文章请求
// 指针字段缺省表示不修改；Tags 非 nil 时全量替换
type UpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Content     *string  `json:"content"`
	Image       *string  `json:"image"`
	IsDraft     *bool    `json:"is_draft"`
	Tags        []string `json:"tags"`
}

// Create 创建文章
// slug 冲突时返回校验错误
func (s *Service) Create(ctx context.Context, authorID string, req *CreateRequest) (*model.Article, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, types.NewValidationError("title", "must be a non-empty string")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, types.NewValidationError("content", "must be a non-empty string")
	}
	if strings.TrimSpace(authorID) == "" {
		return nil, types.NewValidationError("author_id", "must be a non-empty string")
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = writer.Slugify(req.Title)
	}

	article := &model.Article{
		ID:          uuid.New().String(),
		Slug:        slug,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Image:       req.Image,
		AuthorID:    authorID,
		IsDraft:     true,
	}
	if req.IsDraft != nil {
		article.IsDraft = *req.IsDraft
	}

	if _, err := s.repo.GetBySlug(ctx, article.Slug); err == nil {
		return nil, types.NewValidationError("slug", "an article with the same slug already exists")
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	if err := s.repo.Create(ctx, article, req.Tags); err != nil {
		return nil, err
	}

	s.enqueueEmbedding(article.ID)
	return article, nil
}

// Get 根据 ID 获取文章
func (s *Service) Get(ctx context.Context, id string) (*model.Article, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug 根据 slug 获取文章
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Update 局部更新文章
// 每次成功更新都重新触发向量化
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*model.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, types.NewValidationError("title", "must be a non-empty string")
		}
		article.Title = *req.Title
	}
	if req.Description != nil {
		article.Description = *req.Description
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, types.NewValidationError("content", "must be a non-empty string")
		}
		article.Content = *req.Content
	}
	if req.Image != nil {
		article.Image = *req.Image
	}
	if req.IsDraft != nil {
		article.IsDraft = *req.IsDraft
	}

	if err := s.repo.Update(ctx, article, req.Tags); err != nil {
		return nil, err
	}

	s.enqueueEmbedding(article.ID)
	return article, nil
}

// Delete 删除文章
// 搜索索引同步清理，失败只记录
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteArticle(ctx, id); err != nil {
			log.Printf("failed to remove article from search index: article=%s err=%v", id, err)
		}
	}
	return nil
}

// List 分页查询文章
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*model.Article, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.repo.List(ctx, page, pageSize)
}

// enqueueEmbedding 触发异步向量化
// 同键任务在途或队列异常只记录日志
func (s *Service) enqueueEmbedding(articleID string) {
	if s.dispatcher == nil || s.embedder == nil {
		return
	}
	job := &task.EmbedArticleJob{
		ArticleID: articleID,
		Articles:  s.repo,
		Embedder:  s.embedder,
		Index:     s.index,
	}
	if err := s.dispatcher.Enqueue(job); err != nil && !errors.Is(err, task.ErrDuplicateJob) {
		log.Printf("failed to enqueue embedding task: article=%s err=%v", articleID, err)
	}
}
