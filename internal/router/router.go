// Package router 注册 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/inkwell/internal/handler"
	"github.com/ashwinyue/inkwell/internal/middleware"
	"github.com/ashwinyue/inkwell/internal/service/auth"
)

// SetupRouter 设置路由
// 读接口公开，写接口走 JWT 认证
func SetupRouter(h *handler.Handlers, authSvc *auth.Service) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", h.System.Health)

	requireAuth := middleware.RequireAuth(authSvc)

	// API v1
	v1 := r.Group("/api/v1")
	{
		// Auth 认证
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", requireAuth, h.Auth.Logout)
			authGroup.GET("/me", requireAuth, h.Auth.Me)
			authGroup.POST("/change-password", requireAuth, h.Auth.ChangePassword)
		}

		// Article 文章
		articles := v1.Group("/articles")
		{
			articles.GET("", h.Article.ListArticles)
			articles.GET("/search", h.Article.SearchArticles)
			articles.GET("/:id", h.Article.GetArticle)
			articles.POST("", requireAuth, h.Article.CreateArticle)
			articles.PUT("/:id", requireAuth, h.Article.UpdateArticle)
			articles.PATCH("/:id", requireAuth, h.Article.UpdateArticle)
			articles.DELETE("/:id", requireAuth, h.Article.DeleteArticle)
			articles.POST("/generate", requireAuth, h.Generation.GenerateArticle)
		}

		// Tag 标签
		tags := v1.Group("/tags")
		{
			tags.GET("", h.Tag.ListTags)
			tags.GET("/:name/articles", h.Tag.ListArticlesByTag)
		}

		// Task 异步任务状态
		tasks := v1.Group("/tasks")
		{
			tasks.GET("/:key", requireAuth, h.Generation.GetTaskStatus)
		}

		// User 用户管理
		users := v1.Group("/users", requireAuth)
		{
			users.GET("", h.User.ListUsers)
			users.GET("/:id", h.User.GetUser)
			users.PATCH("/:id", h.User.UpdateUser)
			users.DELETE("/:id", h.User.DeleteUser)
		}

		// Page 页面
		pages := v1.Group("/pages")
		{
			pages.GET("", h.Page.ListPages)
			pages.GET("/:id", h.Page.GetPage)
			pages.POST("", requireAuth, h.Page.CreatePage)
			pages.PATCH("/:id", requireAuth, h.Page.UpdatePage)
			pages.DELETE("/:id", requireAuth, h.Page.DeletePage)
		}

		// Project 项目
		projects := v1.Group("/projects")
		{
			projects.GET("", h.Project.ListProjects)
			projects.GET("/:id", h.Project.GetProject)
			projects.POST("", requireAuth, h.Project.CreateProject)
			projects.PATCH("/:id", requireAuth, h.Project.UpdateProject)
			projects.DELETE("/:id", requireAuth, h.Project.DeleteProject)
		}
	}

	return r
}
