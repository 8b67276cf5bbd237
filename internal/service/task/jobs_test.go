package task

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appmodel "github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/embedding"
	"github.com/ashwinyue/inkwell/internal/service/types"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

func newJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(appmodel.AllModels...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// mockEmbedder 返回固定向量
type mockEmbedder struct {
	vector []float64
	err    error
}

func (m *mockEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = m.vector
	}
	return out, nil
}

// mockArticleIndexer 记录索引调用
type mockArticleIndexer struct {
	indexed []string
	deleted []string
	err     error
}

func (m *mockArticleIndexer) IndexArticle(ctx context.Context, article *appmodel.Article) error {
	if m.err != nil {
		return m.err
	}
	m.indexed = append(m.indexed, article.ID)
	return nil
}

func (m *mockArticleIndexer) DeleteArticle(ctx context.Context, articleID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, articleID)
	return nil
}

func newTestEmbedding(t *testing.T, m *mockEmbedder) *embedding.Service {
	t.Helper()
	svc, err := embedding.NewService(m, 16)
	if err != nil {
		t.Fatalf("embedding.NewService failed: %v", err)
	}
	return svc
}

// ========== EmbedArticleJob ==========

func TestEmbedArticleJob(t *testing.T) {
	db := newJobTestDB(t)
	articles := repository.NewArticleRepository(db)

	article := &appmodel.Article{
		ID:      uuid.New().String(),
		Slug:    "embed-me",
		Title:   "Embed Me",
		Content: "some content",
	}
	if err := articles.Create(context.Background(), article, nil); err != nil {
		t.Fatalf("create article failed: %v", err)
	}

	index := &mockArticleIndexer{}
	job := &EmbedArticleJob{
		ArticleID: article.ID,
		Articles:  articles,
		Embedder:  newTestEmbedding(t, &mockEmbedder{vector: []float64{0.1, 0.2, 0.3}}),
		Index:     index,
	}

	if job.Key() != "embed_article:"+article.ID {
		t.Errorf("unexpected key: %s", job.Key())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stored, err := articles.GetByID(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(stored.Embedding) != 3 {
		t.Errorf("expected persisted 3-dim vector, got %d", len(stored.Embedding))
	}
	if len(index.indexed) != 1 || index.indexed[0] != article.ID {
		t.Errorf("article not indexed: %v", index.indexed)
	}
}

func TestEmbedArticleJobDeletedArticle(t *testing.T) {
	db := newJobTestDB(t)
	articles := repository.NewArticleRepository(db)

	job := &EmbedArticleJob{
		ArticleID: uuid.New().String(),
		Articles:  articles,
		Embedder:  newTestEmbedding(t, &mockEmbedder{vector: []float64{1}}),
	}

	// 文章不存在时静默结束，不算失败
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("expected silent no-op, got %v", err)
	}
}

func TestEmbedArticleJobIndexFailureTolerated(t *testing.T) {
	db := newJobTestDB(t)
	articles := repository.NewArticleRepository(db)

	article := &appmodel.Article{
		ID:      uuid.New().String(),
		Slug:    "index-fail",
		Title:   "Index Fail",
		Content: "content",
	}
	if err := articles.Create(context.Background(), article, nil); err != nil {
		t.Fatalf("create article failed: %v", err)
	}

	job := &EmbedArticleJob{
		ArticleID: article.ID,
		Articles:  articles,
		Embedder:  newTestEmbedding(t, &mockEmbedder{vector: []float64{1, 2}}),
		Index:     &mockArticleIndexer{err: errors.New("es down")},
	}

	// 向量已落库，索引失败不回传
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("index failure should not fail the job: %v", err)
	}

	stored, err := articles.GetByID(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(stored.Embedding) != 2 {
		t.Errorf("embedding should be persisted despite index failure, got %d dims", len(stored.Embedding))
	}
}

// ========== WriteBlogJob ==========

// pipelineChatModel 按提示词分派固定回复
type pipelineChatModel struct{}

func (m *pipelineChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "blog post outline"):
		return &schema.Message{Role: schema.Assistant, Content: "Intro\nBody"}, nil
	case strings.Contains(prompt, "Analyze this blog post"):
		return &schema.Message{Role: schema.Assistant, Content: `{"suggested_tags":["go"],"estimated_read_time":1,"seo_keywords":[]}`}, nil
	}
	return &schema.Message{Role: schema.Assistant, Content: "section text"}, nil
}

func (m *pipelineChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (m *pipelineChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

// staticSearchTool 固定检索结果
type staticSearchTool struct{}

func (m *staticSearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: "web_search"}, nil
}

func (m *staticSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	return "research notes", nil
}

func TestWriteBlogJob(t *testing.T) {
	db := newJobTestDB(t)
	articles := repository.NewArticleRepository(db)

	writerSvc, err := writer.NewService(&pipelineChatModel{}, &staticSearchTool{})
	if err != nil {
		t.Fatalf("writer.NewService failed: %v", err)
	}

	job := &WriteBlogJob{
		Topic:    "Concurrency Patterns in Go",
		Tags:     []string{"golang"},
		AuthorID: uuid.New().String(),
		Writer:   writerSvc,
		Articles: articles,
	}

	if job.Key() != "write_blog:concurrency-patterns-in-go" {
		t.Errorf("unexpected key: %s", job.Key())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	stored, err := articles.GetBySlug(context.Background(), "concurrency-patterns-in-go")
	if err != nil {
		t.Fatalf("generated article not found: %v", err)
	}
	if !stored.IsDraft {
		t.Error("generated article must be saved as draft")
	}
	if stored.Title != job.Topic {
		t.Errorf("unexpected title: %s", stored.Title)
	}
	if !strings.Contains(stored.Content, "## Intro") || !strings.Contains(stored.Content, "## Body") {
		t.Errorf("draft missing section headings:\n%s", stored.Content)
	}
	// 只关联请求里的标签，分析阶段建议的 "go" 不自动应用
	if len(stored.Tags) != 1 || stored.Tags[0].Name != "golang" {
		t.Errorf("expected only the requested tag, got %v", stored.Tags)
	}
}

func TestWriteBlogJobRetryPolicy(t *testing.T) {
	job := &WriteBlogJob{}

	// 外部服务错误重试，其余直接产出失败结果
	if !job.Retryable(types.NewExternalError("llm", errors.New("timeout"))) {
		t.Error("external errors must be retryable")
	}
	if job.Retryable(types.NewValidationError("topic", "blank")) {
		t.Error("validation errors must not be retried")
	}
	if job.Retryable(errors.New("db write failed")) {
		t.Error("persistence errors must not be retried")
	}
}
