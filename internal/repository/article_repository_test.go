package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ashwinyue/inkwell/internal/model"
)

func newTestArticle(title, slug string) *model.Article {
	return &model.Article{
		ID:       uuid.New().String(),
		Slug:     slug,
		Title:    title,
		Content:  "content of " + title,
		AuthorID: uuid.New().String(),
		IsDraft:  false,
	}
}

func TestArticleCreateWithTags(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	article := newTestArticle("Go Concurrency", "go-concurrency")
	if err := repo.Create(ctx, article, []string{"go", "concurrency"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}
	// 标签按名称排序
	if got.Tags[0].Name != "concurrency" || got.Tags[1].Name != "go" {
		t.Errorf("unexpected tag order: %s, %s", got.Tags[0].Name, got.Tags[1].Name)
	}
}

func TestTagGetOrCreateSharedAcrossArticles(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	first := newTestArticle("First", "first")
	second := newTestArticle("Second", "second")

	if err := repo.Create(ctx, first, []string{"shared", "only-first"}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := repo.Create(ctx, second, []string{"shared"}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	// 同名标签只有一行
	var count int64
	if err := db.Model(&model.Tag{}).Where("name = ?", "shared").Count(&count).Error; err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 shared tag row, got %d", count)
	}

	firstTags, _ := tagsByArticleID(db, first.ID)
	secondTags, _ := tagsByArticleID(db, second.ID)
	if len(firstTags) != 2 || len(secondTags) != 1 {
		t.Errorf("unexpected tag counts: first=%d second=%d", len(firstTags), len(secondTags))
	}
}

func TestArticleUpdateTagSemantics(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	article := newTestArticle("Original", "original")
	if err := repo.Create(ctx, article, []string{"a", "b"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name     string
		tagNames []string
		want     []string
	}{
		{"nil preserves existing tags", nil, []string{"a", "b"}},
		{"non-nil replaces all tags", []string{"b", "c"}, []string{"b", "c"}},
		{"empty slice clears tags", []string{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article.Title = "Updated"
			if err := repo.Update(ctx, article, tt.tagNames); err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			got, err := repo.GetByID(ctx, article.ID)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if len(got.Tags) != len(tt.want) {
				t.Fatalf("expected %d tags, got %d", len(tt.want), len(got.Tags))
			}
			for i, name := range tt.want {
				if got.Tags[i].Name != name {
					t.Errorf("tag[%d]: expected %s, got %s", i, name, got.Tags[i].Name)
				}
			}
		})
	}
}

func TestArticleDeleteCascadesAssociations(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	kept := newTestArticle("Kept", "kept")
	doomed := newTestArticle("Doomed", "doomed")
	if err := repo.Create(ctx, kept, []string{"shared"}); err != nil {
		t.Fatalf("create kept: %v", err)
	}
	if err := repo.Create(ctx, doomed, []string{"shared", "doomed-only"}); err != nil {
		t.Fatalf("create doomed: %v", err)
	}

	if err := repo.Delete(ctx, doomed.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// 关联行删除，标签行保留
	var assocCount int64
	db.Model(&model.ArticleTag{}).Where("article_id = ?", doomed.ID).Count(&assocCount)
	if assocCount != 0 {
		t.Errorf("expected 0 associations for deleted article, got %d", assocCount)
	}
	var tagCount int64
	db.Model(&model.Tag{}).Count(&tagCount)
	if tagCount != 2 {
		t.Errorf("expected 2 tag rows to survive, got %d", tagCount)
	}

	// 幸存文章的关联不受影响
	keptTags, _ := tagsByArticleID(db, kept.ID)
	if len(keptTags) != 1 || keptTags[0].Name != "shared" {
		t.Errorf("kept article lost its tags: %v", keptTags)
	}

	// 重复删除返回 not found
	if err := repo.Delete(ctx, doomed.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestArticleGetBySlug(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	article := newTestArticle("Slugged", "slugged-article")
	if err := repo.Create(ctx, article, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetBySlug(ctx, "slugged-article")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if got.ID != article.ID {
		t.Errorf("expected article %s, got %s", article.ID, got.ID)
	}

	if _, err := repo.GetBySlug(ctx, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestArticleList(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		a := newTestArticle("Article", uuid.New().String())
		if err := repo.Create(ctx, a, []string{"common"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	articles, total, err := repo.List(ctx, 1, 3)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(articles) != 3 {
		t.Errorf("expected 3 articles on page 1, got %d", len(articles))
	}
	for _, a := range articles {
		if len(a.Tags) != 1 {
			t.Errorf("expected tags loaded for article %s", a.ID)
		}
	}

	articles, _, err = repo.List(ctx, 2, 3)
	if err != nil {
		t.Fatalf("List page 2 failed: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected 2 articles on page 2, got %d", len(articles))
	}
}

func TestArticleListByTag(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	tagged := newTestArticle("Tagged", "tagged")
	other := newTestArticle("Other", "other")
	if err := repo.Create(ctx, tagged, []string{"target"}); err != nil {
		t.Fatalf("create tagged: %v", err)
	}
	if err := repo.Create(ctx, other, []string{"noise"}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	articles, total, err := repo.ListByTag(ctx, "target", 1, 10)
	if err != nil {
		t.Fatalf("ListByTag failed: %v", err)
	}
	if total != 1 || len(articles) != 1 {
		t.Fatalf("expected 1 article, got total=%d len=%d", total, len(articles))
	}
	if articles[0].ID != tagged.ID {
		t.Errorf("expected article %s, got %s", tagged.ID, articles[0].ID)
	}
}

func TestArticleUpdateEmbedding(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	article := newTestArticle("Vectored", "vectored")
	if err := repo.Create(ctx, article, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	vector := []float64{0.1, 0.2, 0.3}
	if err := repo.UpdateEmbedding(ctx, article.ID, vector); err != nil {
		t.Fatalf("UpdateEmbedding failed: %v", err)
	}

	got, err := repo.GetByID(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Embedding) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(got.Embedding))
	}
	if got.Embedding[1] != 0.2 {
		t.Errorf("expected embedding[1]=0.2, got %f", got.Embedding[1])
	}
}
