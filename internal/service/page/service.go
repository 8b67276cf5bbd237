// Package page 提供站点页面的业务逻辑
// 页面内容带版本，更新内容即追加新版本
package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/types"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

var contentTypes = map[string]bool{
	"html":       true,
	"markdown":   true,
	"plain_text": true,
}

// Service 页面服务
type Service struct {
	repo *repository.PageRepository
}

// NewService 创建页面服务
func NewService(repo *repository.PageRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("page repository is required")
	}
	return &Service{repo: repo}, nil
}

// CreateRequest 创建页面请求
type CreateRequest struct {
	Title           string `json:"title" binding:"required"`
	Slug            string `json:"slug"`
	MetaDescription string `json:"meta_description"`
	Content         string `json:"content" binding:"required"`
	ContentType     string `json:"content_type"`
	ShowInNav       bool   `json:"show_in_nav"`
	NavOrder        int    `json:"nav_order"`
}

// UpdateRequest 更新页面请求
// Content 非空时追加新内容版本
type UpdateRequest struct {
	Title           *string `json:"title"`
	MetaDescription *string `json:"meta_description"`
	IsActive        *bool   `json:"is_active"`
	ShowInNav       *bool   `json:"show_in_nav"`
	NavOrder        *int    `json:"nav_order"`
	Content         string  `json:"content"`
	ContentType     string  `json:"content_type"`
}

// Create 创建页面及首个内容版本
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*model.Page, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, types.NewValidationError("title", "must be a non-empty string")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, types.NewValidationError("content", "must be a non-empty string")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "html"
	}
	if !contentTypes[contentType] {
		return nil, types.NewValidationError("content_type", "must be one of html, markdown, plain_text")
	}

	slug := req.Slug
	if slug == "" {
		slug = writer.Slugify(req.Title)
	}
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, types.NewValidationError("slug", "a page with the same slug already exists")
	} else if !types.IsNotFound(err) {
		return nil, err
	}

	page := &model.Page{
		ID:              uuid.New().String(),
		Slug:            slug,
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		IsActive:        true,
		ShowInNav:       req.ShowInNav,
		NavOrder:        req.NavOrder,
	}
	content := &model.PageContent{
		Content:     req.Content,
		ContentType: contentType,
	}
	if err := s.repo.Create(ctx, page, content); err != nil {
		return nil, err
	}
	return page, nil
}

// Get 根据 ID 获取页面
func (s *Service) Get(ctx context.Context, id string) (*model.Page, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug 根据 slug 获取页面
func (s *Service) GetBySlug(ctx context.Context, slug string) (*model.Page, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// List 获取页面列表
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*model.Page, error) {
	return s.repo.List(ctx, activeOnly)
}

// Update 更新页面属性，内容变化时追加新版本
// 系统页面不允许停用
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*model.Page, error) {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, types.NewValidationError("title", "must be a non-empty string")
		}
		page.Title = *req.Title
	}
	if req.MetaDescription != nil {
		page.MetaDescription = *req.MetaDescription
	}
	if req.IsActive != nil {
		if page.IsSystemPage && !*req.IsActive {
			return nil, types.NewValidationError("is_active", "system pages cannot be deactivated")
		}
		page.IsActive = *req.IsActive
	}
	if req.ShowInNav != nil {
		page.ShowInNav = *req.ShowInNav
	}
	if req.NavOrder != nil {
		page.NavOrder = *req.NavOrder
	}

	if err := s.repo.Update(ctx, page); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Content) != "" {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "html"
		}
		if !contentTypes[contentType] {
			return nil, types.NewValidationError("content_type", "must be one of html, markdown, plain_text")
		}
		content := &model.PageContent{
			Content:     req.Content,
			ContentType: contentType,
		}
		if err := s.repo.AddContentVersion(ctx, id, content); err != nil {
			return nil, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

// Delete 删除页面
// 系统页面不可删除
func (s *Service) Delete(ctx context.Context, id string) error {
	page, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if page.IsSystemPage {
		return types.NewValidationError("id", "system pages cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}
