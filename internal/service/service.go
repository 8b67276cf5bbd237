// Package service 组装所有业务服务
// eino 组件在这里集中构造并注入，不使用全局单例
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	"github.com/cloudwego/eino-ext/components/model/openai"
	duckduckgov2 "github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	wikipediatool "github.com/cloudwego/eino-ext/components/tool/wikipedia"
	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/inkwell/internal/config"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/article"
	"github.com/ashwinyue/inkwell/internal/service/auth"
	"github.com/ashwinyue/inkwell/internal/service/embedding"
	"github.com/ashwinyue/inkwell/internal/service/page"
	"github.com/ashwinyue/inkwell/internal/service/project"
	"github.com/ashwinyue/inkwell/internal/service/search"
	"github.com/ashwinyue/inkwell/internal/service/task"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

// Services 服务集合
// AI 相关服务在凭据缺失时为 nil，对应接口返回 503
type Services struct {
	Article *article.Service
	Auth    *auth.Service
	Page    *page.Service
	Project *project.Service

	Embedding *embedding.Service
	Writer    *writer.Service
	Search    *search.Service

	Dispatcher *task.Dispatcher
	Config     *config.Config
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	dispatcher := task.NewDispatcher(task.Config{
		Workers:    cfg.Tasks.Workers,
		QueueSize:  cfg.Tasks.QueueSize,
		MaxRetries: cfg.Tasks.MaxRetries,
		RetryDelay: time.Duration(cfg.Tasks.RetryDelay) * time.Second,
	}, redisClient)

	embedder := newEmbedder(ctx, cfg)

	var embeddingSvc *embedding.Service
	if embedder != nil {
		svc, err := embedding.NewService(embedder, cfg.AI.Embedding.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding service: %w", err)
		}
		embeddingSvc = svc
	}

	var searchSvc *search.Service
	if embedder != nil {
		svc, err := search.NewService(ctx, search.Config{
			Host:        cfg.Elastic.Host,
			Username:    cfg.Elastic.Username,
			Password:    cfg.Elastic.Password,
			IndexPrefix: cfg.Elastic.IndexPrefix,
			Dimensions:  cfg.AI.Embedding.Dimensions,
		}, embedder)
		if err != nil {
			log.Printf("Warning: article search disabled: %v", err)
		} else {
			searchSvc = svc
		}
	}

	var writerSvc *writer.Service
	if chatModel, err := newChatModel(ctx, cfg); err != nil {
		log.Printf("Warning: blog generation disabled: %v", err)
	} else if searchTool := newResearchTool(ctx, cfg); searchTool == nil {
		log.Printf("Warning: blog generation disabled: no research tool available")
	} else {
		svc, err := writer.NewService(chatModel, searchTool)
		if err != nil {
			return nil, fmt.Errorf("failed to create writer service: %w", err)
		}
		writerSvc = svc
	}

	// searchSvc 为 nil 的接口值不能直接塞进 task.Indexer
	var indexer task.Indexer
	if searchSvc != nil {
		indexer = searchSvc
	}

	articleSvc, err := article.NewService(repo.Article, embeddingSvc, dispatcher, indexer)
	if err != nil {
		return nil, err
	}
	authSvc, err := auth.NewService(repo.User, cfg.Server.JWTSecret)
	if err != nil {
		return nil, err
	}
	pageSvc, err := page.NewService(repo.Page)
	if err != nil {
		return nil, err
	}
	projectSvc, err := project.NewService(repo.Project)
	if err != nil {
		return nil, err
	}

	return &Services{
		Article:    articleSvc,
		Auth:       authSvc,
		Page:       pageSvc,
		Project:    projectSvc,
		Embedding:  embeddingSvc,
		Writer:     writerSvc,
		Search:     searchSvc,
		Dispatcher: dispatcher,
		Config:     cfg,
	}, nil
}

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (model.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "alibaba", "qwen", "dashscope":
		apiKey = aiCfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = aiCfg.Alibaba.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   modelName,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) einoembedding.Embedder {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api_key is empty, embedding disabled")
		return nil
	}

	modelName := embCfg.Model
	if modelName == "" {
		modelName = "text-embedding-v3"
	}

	embConfig := &dashscope.EmbeddingConfig{
		APIKey: embCfg.APIKey,
		Model:  modelName,
	}
	if embCfg.Timeout > 0 {
		embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
	}
	if embCfg.Dimensions > 0 {
		embConfig.Dimensions = &embCfg.Dimensions
	}

	embedder, err := dashscope.NewEmbedder(ctx, embConfig)
	if err != nil {
		log.Printf("Warning: failed to create embedder: %v", err)
		return nil
	}
	return embedder
}

// newResearchTool 创建写作流水线的检索工具
// 按配置在 duckduckgo 和 wikipedia 之间切换
func newResearchTool(ctx context.Context, cfg *config.Config) einotool.InvokableTool {
	maxResults := cfg.Writer.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	if cfg.Writer.ResearchProvider == "wikipedia" {
		wikiTool, err := wikipediatool.NewTool(ctx, &wikipediatool.Config{
			Language: "en",
			TopK:     maxResults,
		})
		if err != nil {
			log.Printf("Warning: failed to create wikipedia tool: %v", err)
		} else {
			return wikiTool
		}
	}

	searchTool, err := duckduckgov2.NewTextSearchTool(ctx, &duckduckgov2.Config{
		ToolName:   "web_search",
		ToolDesc:   "Search the web for current information using DuckDuckGo.",
		MaxResults: maxResults,
	})
	if err != nil {
		log.Printf("Warning: failed to create web search tool: %v", err)
		return nil
	}
	return searchTool
}
