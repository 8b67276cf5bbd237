// Package project 提供项目作品的业务逻辑
package project

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/types"
)

// Service 项目服务
type Service struct {
	repo *repository.ProjectRepository
}

// NewService 创建项目服务
func NewService(repo *repository.ProjectRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("project repository is required")
	}
	return &Service{repo: repo}, nil
}

// CreateRequest 创建项目请求
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Image       string `json:"image"`
}

// UpdateRequest 更新项目请求
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Image       *string `json:"image"`
}

// Create 创建项目
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*model.Project, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, types.NewValidationError("title", "must be a non-empty string")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, types.NewValidationError("description", "must be a non-empty string")
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, types.NewValidationError("url", "must be a non-empty string")
	}

	project := &model.Project{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		Image:       req.Image,
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get 根据 ID 获取项目
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List 获取项目列表
func (s *Service) List(ctx context.Context) ([]*model.Project, error) {
	return s.repo.List(ctx)
}

// Update 局部更新项目
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) (*model.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, types.NewValidationError("title", "must be a non-empty string")
		}
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.URL != nil {
		project.URL = *req.URL
	}
	if req.Image != nil {
		project.Image = *req.Image
	}

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete 删除项目
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
