package writer

// Stage 流水线阶段
type Stage string

const (
	// StageResearching 检索资料
	StageResearching Stage = "researching"
	// StageOutlining 生成大纲
	StageOutlining Stage = "outlining"
	// StageDrafting 逐节撰写，SectionIndex 指向当前小节
	StageDrafting Stage = "drafting"
	// StageAnalyzing 提取元数据
	StageAnalyzing Stage = "analyzing"
	// StageDone 完成
	StageDone Stage = "done"
)

// Metadata 成稿分析结果
// SuggestedTags 只计算、不自动写回文章
type Metadata struct {
	SuggestedTags     []string `json:"suggested_tags"`
	EstimatedReadTime int      `json:"estimated_read_time"`
	SEOKeywords       []string `json:"seo_keywords"`
}

// State 流水线状态快照
// 每个阶段返回新快照，不原地修改
type State struct {
	Topic        string   `json:"topic"`
	Stage        Stage    `json:"stage"`
	Research     string   `json:"research"`
	Outline      []string `json:"outline"`
	SectionIndex int      `json:"section_index"`
	Draft        string   `json:"draft"`
	Metadata     Metadata `json:"metadata"`
}

// NewState 创建初始状态
func NewState(topic string) State {
	return State{
		Topic: topic,
		Stage: StageResearching,
	}
}
