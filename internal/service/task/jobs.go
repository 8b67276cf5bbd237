package task

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ashwinyue/inkwell/internal/model"
	"github.com/ashwinyue/inkwell/internal/repository"
	"github.com/ashwinyue/inkwell/internal/service/embedding"
	"github.com/ashwinyue/inkwell/internal/service/types"
	"github.com/ashwinyue/inkwell/internal/service/writer"
)

// Indexer 文章搜索索引器
// 为空时跳过索引步骤
type Indexer interface {
	IndexArticle(ctx context.Context, article *model.Article) error
	DeleteArticle(ctx context.Context, articleID string) error
}

// ========== 文章向量化任务 ==========

// EmbedArticleJob 为单篇文章计算并写回向量
// 文章在任务执行前被删除时静默结束
type EmbedArticleJob struct {
	ArticleID string

	Articles *repository.ArticleRepository
	Embedder *embedding.Service
	Index    Indexer
}

// Key 实现 Job 接口
func (j *EmbedArticleJob) Key() string {
	return "embed_article:" + j.ArticleID
}

// Run 实现 Job 接口
func (j *EmbedArticleJob) Run(ctx context.Context) error {
	article, err := j.Articles.GetByID(ctx, j.ArticleID)
	if err != nil {
		if types.IsNotFound(err) {
			log.Printf("embed task skipped, article deleted: id=%s", j.ArticleID)
			return nil
		}
		return fmt.Errorf("failed to load article %s: %w", j.ArticleID, err)
	}

	vector, err := j.Embedder.Embed(ctx, article.EmbeddingText())
	if err != nil {
		return err
	}

	if err := j.Articles.UpdateEmbedding(ctx, article.ID, vector); err != nil {
		return fmt.Errorf("failed to persist embedding for article %s: %w", article.ID, err)
	}

	if j.Index != nil {
		article.Embedding = datatypes.NewJSONSlice(vector)
		if err := j.Index.IndexArticle(ctx, article); err != nil {
			// 向量已落库，索引失败只记录
			log.Printf("article index failed: id=%s err=%v", article.ID, err)
		}
	}

	log.Printf("article embedding updated: id=%s dims=%d", article.ID, len(vector))
	return nil
}

// ========== 博客生成任务 ==========

// WriteBlogJob 执行写作流水线并把成稿存为草稿文章
// Tags 为调用方指定的标签，分析阶段的建议标签不会自动关联
type WriteBlogJob struct {
	Topic    string
	Tags     []string
	AuthorID string

	Writer   *writer.Service
	Articles *repository.ArticleRepository
}

// Key 实现 Job 接口
func (j *WriteBlogJob) Key() string {
	return "write_blog:" + writer.Slugify(j.Topic)
}

// Retryable 实现 RetryPolicy 接口
// 只有外部服务错误重试，校验和持久化失败直接产出结构化失败结果
func (j *WriteBlogJob) Retryable(err error) bool {
	return types.IsExternal(err)
}

// Run 实现 Job 接口
// 建议标签只记录在日志，不自动关联到文章
func (j *WriteBlogJob) Run(ctx context.Context) error {
	state, err := j.Writer.Run(ctx, j.Topic)
	if err != nil {
		return err
	}

	article := &model.Article{
		ID:       uuid.New().String(),
		Slug:     writer.Slugify(j.Topic),
		Title:    j.Topic,
		Content:  state.Draft,
		AuthorID: j.AuthorID,
		IsDraft:  true,
	}
	if err := j.Articles.Create(ctx, article, j.Tags); err != nil {
		return fmt.Errorf("failed to persist generated article: %w", err)
	}

	log.Printf("blog generated: id=%s slug=%s readTime=%dmin suggestedTags=%v",
		article.ID, article.Slug, state.Metadata.EstimatedReadTime, state.Metadata.SuggestedTags)
	return nil
}
