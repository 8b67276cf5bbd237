package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ashwinyue/inkwell/internal/model"
)

// TagRepository 标签仓库
// 标签名全局唯一，get-or-create 依赖数据库唯一约束兜底：
// 并发解析同名标签时，后到的插入在提交阶段被唯一约束拒绝，不会产生重复行
type TagRepository struct {
	db *gorm.DB
}

// NewTagRepository 创建标签仓库
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetByName 根据名称获取标签
func (r *TagRepository) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetByID 根据 ID 获取标签
func (r *TagRepository) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// List 获取所有标签
func (r *TagRepository) List(ctx context.Context) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

// resolveTag 在事务内按名称解析标签，不存在则创建
// 先插入再建关联，重名冲突交给唯一约束
func resolveTag(tx *gorm.DB, name string) (*model.Tag, error) {
	var tag model.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tag = model.Tag{ID: uuid.New().String(), Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return &tag, nil
}

// attachTags 在事务内为文章解析并关联一组标签名
// 已存在的 (article_id, tag_id) 关联不重复创建
func attachTags(tx *gorm.DB, articleID string, names []string) ([]*model.Tag, error) {
	tags := make([]*model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := resolveTag(tx, name)
		if err != nil {
			return nil, err
		}

		var count int64
		if err := tx.Model(&model.ArticleTag{}).
			Where("article_id = ? AND tag_id = ?", articleID, tag.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			at := &model.ArticleTag{
				ID:        uuid.New().String(),
				ArticleID: articleID,
				TagID:     tag.ID,
			}
			if err := tx.Create(at).Error; err != nil {
				return nil, fmt.Errorf("failed to attach tag %q: %w", name, err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// replaceTags 在事务内全量替换文章的标签关联（先删后加）
func replaceTags(tx *gorm.DB, articleID string, names []string) ([]*model.Tag, error) {
	if err := tx.Where("article_id = ?", articleID).Delete(&model.ArticleTag{}).Error; err != nil {
		return nil, fmt.Errorf("failed to remove existing tags: %w", err)
	}
	return attachTags(tx, articleID, names)
}

// GetTagsByArticleID 获取文章的所有标签
func (r *TagRepository) GetTagsByArticleID(ctx context.Context, articleID string) ([]*model.Tag, error) {
	return tagsByArticleID(r.db.WithContext(ctx), articleID)
}

func tagsByArticleID(tx *gorm.DB, articleID string) ([]*model.Tag, error) {
	var tags []*model.Tag
	err := tx.
		Joins("JOIN article_tags ON article_tags.tag_id = tags.id").
		Where("article_tags.article_id = ?", articleID).
		Order("tags.name ASC").
		Find(&tags).Error
	return tags, err
}
