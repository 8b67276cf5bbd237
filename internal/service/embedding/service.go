// Package embedding 提供文本向量化服务
// 封装 eino Embedder，带固定容量的 LRU 缓存
package embedding

import (
	"context"
	"fmt"
	"strings"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/inkwell/internal/service/types"
)

// Service 向量化服务
// 每个进程只构造一次，构造失败直接致命
type Service struct {
	embedder einoembedding.Embedder
	cache    *lruCache
}

// NewService 创建向量化服务
func NewService(embedder einoembedding.Embedder, cacheSize int) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cacheSize <= 0 {
		cacheSize = 1000
	}
	return &Service{
		embedder: embedder,
		cache:    newLRUCache(cacheSize),
	}, nil
}

// embedOptions 单次调用选项
type embedOptions struct {
	skipCache bool
}

// Option 调用选项
type Option func(*embedOptions)

// WithoutCache 本次调用跳过缓存
func WithoutCache() Option {
	return func(o *embedOptions) {
		o.skipCache = true
	}
}

// Embed 计算单条文本的向量
// 空文本返回校验错误
func (s *Service) Embed(ctx context.Context, text string, opts ...Option) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.NewValidationError("text", "must be a non-empty string")
	}

	var o embedOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.skipCache {
		if vector, ok := s.cache.Get(text); ok {
			return vector, nil
		}
	}

	vector, err := s.compute(ctx, text)
	if err != nil {
		return nil, err
	}

	if !o.skipCache {
		s.cache.Put(text, vector)
	}
	return vector, nil
}

// EmbedBatch 批量计算向量，结果按输入顺序拼接
// batchSize > 0 时按组切分、顺序处理
func (s *Service) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, types.NewValidationError("texts", "must be a non-empty list of strings")
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, types.NewValidationError(fmt.Sprintf("texts[%d]", i), "must be a non-empty string")
		}
	}

	if batchSize <= 0 {
		batchSize = len(texts)
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := s.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, types.NewExternalError("embedding", err)
		}
		if len(batch) != end-start {
			return nil, types.NewExternalError("embedding",
				fmt.Errorf("expected %d vectors, got %d", end-start, len(batch)))
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// compute 调用底层模型计算单条向量
func (s *Service) compute(ctx context.Context, text string) ([]float64, error) {
	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, types.NewExternalError("embedding", err)
	}
	if len(vectors) == 0 {
		return nil, types.NewExternalError("embedding", fmt.Errorf("empty result"))
	}
	return vectors[0], nil
}
