package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB      *gorm.DB // 直接访问数据库
	Article *ArticleRepository
	Tag     *TagRepository
	User    *UserRepository
	Page    *PageRepository
	Project *ProjectRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:      db,
		Article: NewArticleRepository(db),
		Tag:     NewTagRepository(db),
		User:    NewUserRepository(db),
		Page:    NewPageRepository(db),
		Project: NewProjectRepository(db),
	}
}
