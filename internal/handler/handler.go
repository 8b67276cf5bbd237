// Package handler 提供 HTTP 处理器
package handler

import (
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Article    *ArticleHandler
	Tag        *TagHandler
	Auth       *AuthHandler
	User       *UserHandler
	Page       *PageHandler
	Project    *ProjectHandler
	Generation *GenerationHandler
	System     *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services, repo *repository.Repositories) *Handlers {
	return &Handlers{
		Article:    NewArticleHandler(svc.Article, svc.Search),
		Tag:        NewTagHandler(repo.Tag, repo.Article),
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(repo.User),
		Page:       NewPageHandler(svc.Page),
		Project:    NewProjectHandler(svc.Project),
		Generation: NewGenerationHandler(svc.Writer, svc.Dispatcher, repo.Article),
		System:     NewSystemHandler(svc, repo),
	}
}
