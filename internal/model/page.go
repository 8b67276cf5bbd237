package model

import "time"

// Page 站点页面
type Page struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Slug            string    `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	MetaDescription string    `gorm:"size:255" json:"meta_description,omitempty"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	IsSystemPage    bool      `gorm:"default:false" json:"is_system_page"`
	ShowInNav       bool      `gorm:"default:false" json:"show_in_nav"`
	NavOrder        int       `json:"nav_order,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Contents 内容版本，按版本号降序
	Contents []*PageContent `gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE" json:"contents,omitempty"`
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}

// CurrentContent 获取当前内容版本
func (p *Page) CurrentContent() *PageContent {
	for _, c := range p.Contents {
		if c.IsCurrent {
			return c
		}
	}
	return nil
}

// PageContent 页面内容版本
type PageContent struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	PageID      string    `gorm:"index;size:36;not null" json:"page_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentType string    `gorm:"size:20;default:html" json:"content_type"` // html, markdown, plain_text
	Version     int       `gorm:"not null;default:1" json:"version"`
	IsCurrent   bool      `gorm:"default:true" json:"is_current"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (PageContent) TableName() string {
	return "page_contents"
}
