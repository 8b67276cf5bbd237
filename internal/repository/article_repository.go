package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ashwinyue/inkwell/internal/model"
)

// ArticleRepository 文章仓库
type ArticleRepository struct {
	db *gorm.DB
}

// NewArticleRepository 创建文章仓库
func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create 创建文章并关联标签，单事务提交
func (r *ArticleRepository) Create(ctx context.Context, article *model.Article, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(article).Error; err != nil {
			return fmt.Errorf("failed to create article: %w", err)
		}

		tags, err := attachTags(tx, article.ID, tagNames)
		if err != nil {
			return err
		}
		article.Tags = tags
		return nil
	})
}

// GetByID 根据 ID 获取文章，标签一并加载
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*model.Article, error) {
	var article model.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error
	if err != nil {
		return nil, err
	}

	tags, err := tagsByArticleID(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	article.Tags = tags
	return &article, nil
}

// GetBySlug 根据 slug 获取文章
func (r *ArticleRepository) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	var article model.Article
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&article).Error
	if err != nil {
		return nil, err
	}

	tags, err := tagsByArticleID(r.db.WithContext(ctx), article.ID)
	if err != nil {
		return nil, err
	}
	article.Tags = tags
	return &article, nil
}

// Update 保存文章字段；tagNames 非 nil 时全量替换标签关联
func (r *ArticleRepository) Update(ctx context.Context, article *model.Article, tagNames []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(article).Error; err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}

		if tagNames != nil {
			tags, err := replaceTags(tx, article.ID, tagNames)
			if err != nil {
				return err
			}
			article.Tags = tags
			return nil
		}

		tags, err := tagsByArticleID(tx, article.ID)
		if err != nil {
			return err
		}
		article.Tags = tags
		return nil
	})
}

// Delete 删除文章，级联删除标签关联
func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return fmt.Errorf("failed to remove tag associations: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&model.Article{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete article: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List 分页查询文章，标签一并加载
func (r *ArticleRepository) List(ctx context.Context, page, pageSize int) ([]*model.Article, int64, error) {
	var articles []*model.Article
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Article{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count articles: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}

	for _, article := range articles {
		tags, err := tagsByArticleID(r.db.WithContext(ctx), article.ID)
		if err != nil {
			return nil, 0, err
		}
		article.Tags = tags
	}

	return articles, total, nil
}

// ListByTag 分页查询带指定标签的文章
func (r *ArticleRepository) ListByTag(ctx context.Context, tagName string, page, pageSize int) ([]*model.Article, int64, error) {
	var articles []*model.Article
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Article{}).
		Joins("JOIN article_tags ON article_tags.article_id = articles.id").
		Joins("JOIN tags ON tags.id = article_tags.tag_id").
		Where("tags.name = ?", tagName)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count articles by tag: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("articles.created_at DESC").Offset(offset).Limit(pageSize).Find(&articles).Error
	if err != nil {
		return nil, 0, err
	}

	for _, article := range articles {
		tags, err := tagsByArticleID(r.db.WithContext(ctx), article.ID)
		if err != nil {
			return nil, 0, err
		}
		article.Tags = tags
	}

	return articles, total, nil
}

// UpdateEmbedding 只写回文章的向量列
func (r *ArticleRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float64) error {
	return r.db.WithContext(ctx).Model(&model.Article{}).
		Where("id = ?", id).
		Update("embedding", datatypes.NewJSONSlice(embedding)).Error
}
