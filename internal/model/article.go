package model

import (
	"time"

	"gorm.io/datatypes"
)

// Article 文章
// Embedding 在文章写入后由异步任务计算，计算前为 null
type Article struct {
	ID          string                       `gorm:"primaryKey;size:36" json:"id"`
	Slug        string                       `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Title       string                       `gorm:"size:255;not null" json:"title"`
	Description string                       `gorm:"size:500" json:"description,omitempty"`
	Content     string                       `gorm:"type:text;not null" json:"content"`
	Image       string                       `gorm:"type:text" json:"image,omitempty"`
	AuthorID    string                       `gorm:"index;size:36;not null" json:"author_id"`
	IsDraft     bool                         `gorm:"not null;default:true" json:"is_draft"`
	Embedding   datatypes.JSONSlice[float64] `json:"embedding,omitempty"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`

	// Tags 由仓库层通过关联表填充，不是数据库列
	Tags []*Tag `gorm:"-" json:"tags"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// EmbeddingText 拼接用于向量化的文本
func (a *Article) EmbeddingText() string {
	return a.Title + "\n" + a.Description + "\n" + a.Content
}

// Tag 文章标签，名称全局唯一
type Tag struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"uniqueIndex;size:255;not null" json:"name"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// ArticleTag 文章-标签关联表
// (article_id, tag_id) 联合唯一，避免重复打标
type ArticleTag struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ArticleID string    `gorm:"size:36;not null;index:idx_article_tag;index:idx_article_tag_unique,unique" json:"article_id"`
	TagID     string    `gorm:"size:36;not null;index:idx_article_tag_unique,unique" json:"tag_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (ArticleTag) TableName() string {
	return "article_tags"
}
