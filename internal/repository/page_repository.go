package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ashwinyue/inkwell/internal/model"
)

// PageRepository 页面仓库
type PageRepository struct {
	db *gorm.DB
}

// NewPageRepository 创建页面仓库
func NewPageRepository(db *gorm.DB) *PageRepository {
	return &PageRepository{db: db}
}

// Create 创建页面及首个内容版本
func (r *PageRepository) Create(ctx context.Context, page *model.Page, content *model.PageContent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(page).Error; err != nil {
			return fmt.Errorf("failed to create page: %w", err)
		}
		content.ID = uuid.New().String()
		content.PageID = page.ID
		content.Version = 1
		content.IsCurrent = true
		if err := tx.Create(content).Error; err != nil {
			return fmt.Errorf("failed to create page content: %w", err)
		}
		page.Contents = []*model.PageContent{content}
		return nil
	})
}

// GetByID 根据 ID 获取页面，内容版本按版本号降序
func (r *PageRepository) GetByID(ctx context.Context, id string) (*model.Page, error) {
	var page model.Page
	err := r.db.WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		}).
		Where("id = ?", id).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug 根据 slug 获取页面
func (r *PageRepository) GetBySlug(ctx context.Context, slug string) (*model.Page, error) {
	var page model.Page
	err := r.db.WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		}).
		Where("slug = ?", slug).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// List 获取页面列表
func (r *PageRepository) List(ctx context.Context, activeOnly bool) ([]*model.Page, error) {
	var pages []*model.Page
	query := r.db.WithContext(ctx).
		Preload("Contents", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_current = ?", true)
		})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("nav_order ASC, created_at ASC").Find(&pages).Error
	return pages, err
}

// Update 保存页面字段
func (r *PageRepository) Update(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

// AddContentVersion 追加新内容版本并设为当前
func (r *PageRepository) AddContentVersion(ctx context.Context, pageID string, content *model.PageContent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest model.PageContent
		version := 1
		err := tx.Where("page_id = ?", pageID).Order("version DESC").First(&latest).Error
		if err == nil {
			version = latest.Version + 1
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Model(&model.PageContent{}).
			Where("page_id = ?", pageID).Update("is_current", false).Error; err != nil {
			return err
		}

		content.ID = uuid.New().String()
		content.PageID = pageID
		content.Version = version
		content.IsCurrent = true
		return tx.Create(content).Error
	})
}

// Delete 删除页面及其内容版本
func (r *PageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&model.PageContent{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Page{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
