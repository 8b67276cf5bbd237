package model

// 所有模型的统一导入点
// 用于 AutoMigrate
var AllModels = []interface{}{
	&Article{},
	&Tag{},
	&ArticleTag{},
	&User{},
	&Role{},
	&AuthToken{},
	&Page{},
	&PageContent{},
	&Project{},
}
