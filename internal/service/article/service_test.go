package article

import (
	"context"
	"sync"
	"testing"
	"time"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/embedding"
	"github.com/ashwinyue/inkwell/internal/service/task"
	"github.com/ashwinyue/inkwell/internal/service/types"
)

// countingEmbedder 统计向量化调用次数
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (m *countingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 2}
	}
	return out, nil
}

func (m *countingEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeIndex 记录索引增删
type fakeIndex struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (f *fakeIndex) IndexArticle(ctx context.Context, article *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, article.ID)
	return nil
}

func (f *fakeIndex) DeleteArticle(ctx context.Context, articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, articleID)
	return nil
}

func newTestRepo(t *testing.T) *repository.ArticleRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return repository.NewArticleRepository(db)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(newTestRepo(t), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

// newTestServiceWithQueue 带运行中的调度器和 embedder
func newTestServiceWithQueue(t *testing.T) (*Service, *task.Dispatcher) {
	t.Helper()

	embSvc, err := embedding.NewService(&countingEmbedder{}, 0)
	if err != nil {
		t.Fatalf("embedding.NewService failed: %v", err)
	}

	dispatcher := task.NewDispatcher(task.Config{
		Workers:    1,
		QueueSize:  8,
		RetryDelay: time.Millisecond,
	}, nil)
	dispatcher.Start(context.Background())
	t.Cleanup(dispatcher.Stop)

	svc, err := NewService(newTestRepo(t), embSvc, dispatcher, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc, dispatcher
}

// waitForSucceeded 轮询等待任务成功结束，返回其状态记录
func waitForSucceeded(t *testing.T, d *task.Dispatcher, key string, after time.Time) task.Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, ok := d.Record(key); ok && rec.Status == task.StatusSucceeded && rec.UpdatedAt.After(after) {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec, _ := d.Record(key)
	t.Fatalf("task %s never succeeded after %v, last record: %+v", key, after, rec)
	return task.Record{}
}

func createArticle(t *testing.T, svc *Service, title string, tags []string) *model.Article {
	t.Helper()
	article, err := svc.Create(context.Background(), uuid.New().String(), &CreateRequest{
		Title:   title,
		Content: "body of " + title,
		Tags:    tags,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return article
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreateGeneratesSlug(t *testing.T) {
	svc := newTestService(t)

	article := createArticle(t, svc, "Hello, World!", []string{"go", "intro"})
	if article.Slug != "hello-world" {
		t.Errorf("unexpected slug: %s", article.Slug)
	}
	if !article.IsDraft {
		t.Error("articles default to draft")
	}

	stored, err := svc.GetBySlug(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if len(stored.Tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(stored.Tags))
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name   string
		author string
		req    CreateRequest
	}{
		{"blank title", "a", CreateRequest{Title: "  ", Content: "body"}},
		{"blank content", "a", CreateRequest{Title: "Title", Content: " "}},
		{"blank author", "", CreateRequest{Title: "Title", Content: "body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.author, &tt.req); !types.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateSetsAuthorFromCaller(t *testing.T) {
	svc := newTestService(t)
	authorID := uuid.New().String()

	article, err := svc.Create(context.Background(), authorID, &CreateRequest{
		Title:   "Authored",
		Content: "body",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if article.AuthorID != authorID {
		t.Errorf("expected author %s, got %s", authorID, article.AuthorID)
	}
}

func TestCreateWithExplicitSlug(t *testing.T) {
	svc := newTestService(t)

	article, err := svc.Create(context.Background(), uuid.New().String(), &CreateRequest{
		Title:   "Some Long Title",
		Slug:    "custom-slug",
		Content: "body",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if article.Slug != "custom-slug" {
		t.Errorf("client slug must be honored, got %s", article.Slug)
	}

	if _, err := svc.GetBySlug(context.Background(), "custom-slug"); err != nil {
		t.Errorf("article not reachable by explicit slug: %v", err)
	}
}

func TestCreateSlugConflict(t *testing.T) {
	svc := newTestService(t)
	createArticle(t, svc, "My Post", nil)

	// 不同标题生成同一个 slug 也算冲突
	_, err := svc.Create(context.Background(), uuid.New().String(), &CreateRequest{
		Title:   "My Post!",
		Content: "body",
	})
	if !types.IsValidation(err) {
		t.Errorf("expected validation error for slug conflict, got %v", err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc := newTestService(t)
	article := createArticle(t, svc, "Original", []string{"go"})

	updated, err := svc.Update(context.Background(), article.ID, &UpdateRequest{
		Content: strPtr("new body"),
		IsDraft: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != "Original" {
		t.Errorf("title must be untouched, got %s", updated.Title)
	}
	if updated.Content != "new body" {
		t.Errorf("content not updated: %s", updated.Content)
	}
	if updated.IsDraft {
		t.Error("is_draft not updated")
	}
	// Tags 为 nil 时保留原标签
	stored, err := svc.Get(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Tags) != 1 {
		t.Errorf("nil tags must preserve existing tags, got %v", stored.Tags)
	}
}

func TestUpdateReplacesTags(t *testing.T) {
	svc := newTestService(t)
	article := createArticle(t, svc, "Tagged", []string{"old-a", "old-b"})

	if _, err := svc.Update(context.Background(), article.ID, &UpdateRequest{
		Tags: []string{"fresh"},
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := svc.Get(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.Tags) != 1 || stored.Tags[0].Name != "fresh" {
		t.Errorf("tags not replaced: %v", stored.Tags)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc := newTestService(t)
	article := createArticle(t, svc, "Valid", nil)

	if _, err := svc.Update(context.Background(), article.ID, &UpdateRequest{Title: strPtr("  ")}); !types.IsValidation(err) {
		t.Errorf("expected validation error for blank title, got %v", err)
	}
	if _, err := svc.Update(context.Background(), article.ID, &UpdateRequest{Content: strPtr("")}); !types.IsValidation(err) {
		t.Errorf("expected validation error for blank content, got %v", err)
	}
}

func TestUpdateMissingArticle(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.New().String(), &UpdateRequest{Title: strPtr("X")})
	if !types.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListClampsPagination(t *testing.T) {
	svc := newTestService(t)
	for _, title := range []string{"One", "Two", "Three"} {
		createArticle(t, svc, title, nil)
	}

	items, total, err := svc.List(context.Background(), -1, 1000)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
}

func TestDeleteMissingArticle(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Delete(context.Background(), uuid.New().String()); !types.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpdateAlwaysEnqueuesEmbedding(t *testing.T) {
	svc, dispatcher := newTestServiceWithQueue(t)

	article := createArticle(t, svc, "Queued", nil)
	key := "embed_article:" + article.ID
	first := waitForSucceeded(t, dispatcher, key, time.Time{})

	// 只改标签也要重新入队
	if _, err := svc.Update(context.Background(), article.ID, &UpdateRequest{
		Tags: []string{"fresh"},
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	waitForSucceeded(t, dispatcher, key, first.UpdatedAt)
}

func TestDeleteRemovesFromSearchIndex(t *testing.T) {
	index := &fakeIndex{}
	svc, err := NewService(newTestRepo(t), nil, nil, index)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	article := createArticle(t, svc, "Indexed", nil)
	if err := svc.Delete(context.Background(), article.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(index.deleted) != 1 || index.deleted[0] != article.ID {
		t.Errorf("article not removed from index: %v", index.deleted)
	}
}
