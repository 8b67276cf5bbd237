// Package search 提供基于 Elasticsearch 的文章语义检索
// 索引与检索都走 eino-ext 的 es8 组件，向量由 Embedder 计算
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	indexeres8 "github.com/cloudwego/eino-ext/components/indexer/es8"
	retrieveres8 "github.com/cloudwego/eino-ext/components/retriever/es8"
	"github.com/cloudwego/eino-ext/components/retriever/es8/search_mode"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/schema"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/service/types"
)

// Result 检索结果
type Result struct {
	ArticleID string  `json:"article_id"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
}

// Service 文章检索服务
type Service struct {
	client    *elasticsearch.Client
	indexer   *indexeres8.Indexer
	retriever *retrieveres8.Retriever
	indexName string
}

// Config 检索服务配置
type Config struct {
	Host        string
	Username    string
	Password    string
	IndexPrefix string
	Dimensions  int
	TopK        int
}

// NewService 创建检索服务
// host 未配置时返回 nil 服务，调用方按未启用处理
func NewService(ctx context.Context, cfg Config, embedder embedding.Embedder) (*Service, error) {
	if cfg.Host == "" {
		log.Printf("Warning: elasticsearch host not configured, article search disabled")
		return nil, nil
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required for article search")
	}
	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = "inkwell"
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Host},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create es client: %w", err)
	}

	indexName := cfg.IndexPrefix + "_articles"

	indexer, err := indexeres8.NewIndexer(ctx, &indexeres8.IndexerConfig{
		Client:    client,
		Index:     indexName,
		BatchSize: 10,
		Embedding: embedder,
		DocumentToFields: func(ctx context.Context, doc *schema.Document) (map[string]indexeres8.FieldValue, error) {
			return articleToESFields(doc), nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create es8 indexer: %w", err)
	}

	retriever, err := retrieveres8.NewRetriever(ctx, &retrieveres8.RetrieverConfig{
		Client:     client,
		Index:      indexName,
		TopK:       cfg.TopK,
		SearchMode: search_mode.SearchModeDenseVectorSimilarity(search_mode.DenseVectorSimilarityTypeCosineSimilarity, "content_vector"),
		Embedding:  embedder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create es8 retriever: %w", err)
	}

	svc := &Service{
		client:    client,
		indexer:   indexer,
		retriever: retriever,
		indexName: indexName,
	}
	if err := svc.ensureIndex(ctx, cfg.Dimensions); err != nil {
		return nil, err
	}
	return svc, nil
}

// IndexArticle 索引单篇文章
func (s *Service) IndexArticle(ctx context.Context, article *model.Article) error {
	doc := &schema.Document{
		ID:      article.ID,
		Content: article.EmbeddingText(),
		MetaData: map[string]any{
			"slug":     article.Slug,
			"title":    article.Title,
			"is_draft": article.IsDraft,
		},
	}
	if _, err := s.indexer.Store(ctx, []*schema.Document{doc}); err != nil {
		return types.NewExternalError("elasticsearch", err)
	}
	return nil
}

// DeleteArticle 从索引中删除文章
// 索引中不存在时视为成功
func (s *Service) DeleteArticle(ctx context.Context, articleID string) error {
	req := esapi.DeleteRequest{Index: s.indexName, DocumentID: articleID}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return types.NewExternalError("elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return types.NewExternalError("elasticsearch", fmt.Errorf("delete failed: %s", res.String()))
	}
	return nil
}

// Search 按语义相似度检索文章
func (s *Service) Search(ctx context.Context, query string) ([]*Result, error) {
	docs, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return nil, types.NewExternalError("elasticsearch", err)
	}

	results := make([]*Result, 0, len(docs))
	for _, doc := range docs {
		r := &Result{ArticleID: doc.ID, Score: doc.Score()}
		if slug, ok := doc.MetaData["slug"].(string); ok {
			r.Slug = slug
		}
		if title, ok := doc.MetaData["title"].(string); ok {
			r.Title = title
		}
		results = append(results, r)
	}
	return results, nil
}

// articleToESFields 将文档转换为 ES 字段，内容字段走向量化
func articleToESFields(doc *schema.Document) map[string]indexeres8.FieldValue {
	fields := map[string]indexeres8.FieldValue{
		"content": {
			Value:    doc.Content,
			EmbedKey: "content_vector",
		},
	}
	for k, v := range doc.MetaData {
		fields[k] = indexeres8.FieldValue{Value: v}
	}
	return fields
}

// ensureIndex 索引不存在时按向量维度创建
func (s *Service) ensureIndex(ctx context.Context, dimensions int) error {
	res, err := s.client.Indices.Exists([]string{s.indexName})
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	if dimensions <= 0 {
		dimensions = 384
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content": map[string]interface{}{"type": "text"},
				"content_vector": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       dimensions,
					"index":      true,
					"similarity": "cosine",
				},
				"slug":     map[string]interface{}{"type": "keyword"},
				"title":    map[string]interface{}{"type": "text"},
				"is_draft": map[string]interface{}{"type": "boolean"},
			},
		},
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
	}

	mappingData, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: s.indexName,
		Body:  bytes.NewReader(mappingData),
	}.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	log.Printf("index %s created with %d dimensions", s.indexName, dimensions)
	return nil
}
