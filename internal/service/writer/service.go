// Package writer 提供博客写作流水线
// 四个阶段顺序执行：检索 → 大纲 → 逐节撰写 → 元数据分析
// 每个阶段消费上一阶段的状态快照并产出新快照
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/inkwell/internal/service/types"
)

// Service 写作流水线服务
type Service struct {
	chatModel  model.ChatModel
	searchTool einotool.InvokableTool
}

// NewService 创建写作服务
func NewService(chatModel model.ChatModel, searchTool einotool.InvokableTool) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if searchTool == nil {
		return nil, fmt.Errorf("search tool is required")
	}
	return &Service{chatModel: chatModel, searchTool: searchTool}, nil
}

// Run 执行完整流水线直到 Done
// 撰写循环的终止依赖 SectionIndex 在有限大纲上单调递增
func (s *Service) Run(ctx context.Context, topic string) (State, error) {
	if strings.TrimSpace(topic) == "" {
		return State{}, types.NewValidationError("topic", "must be a non-empty string")
	}

	state := NewState(topic)
	for state.Stage != StageDone {
		next, err := s.Step(ctx, state)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// Step 执行一个阶段转移
func (s *Service) Step(ctx context.Context, state State) (State, error) {
	switch state.Stage {
	case StageResearching:
		return s.research(ctx, state)
	case StageOutlining:
		return s.outline(ctx, state)
	case StageDrafting:
		return s.writeSection(ctx, state)
	case StageAnalyzing:
		return s.analyze(ctx, state)
	default:
		return state, fmt.Errorf("unexpected stage: %s", state.Stage)
	}
}

// research 用搜索工具检索主题资料
func (s *Service) research(ctx context.Context, state State) (State, error) {
	query := fmt.Sprintf("latest information about %s", state.Topic)
	args, _ := json.Marshal(map[string]string{"query": query})

	results, err := s.searchTool.InvokableRun(ctx, string(args))
	if err != nil {
		return state, types.NewExternalError("search", err)
	}

	next := state
	next.Research = results
	next.Stage = StageOutlining
	return next, nil
}

// outline 基于检索结果生成大纲，按行切分
func (s *Service) outline(ctx context.Context, state State) (State, error) {
	prompt := fmt.Sprintf(`Based on the following research about %s, create a detailed blog post outline:

Research:
%s

Create an outline with main sections that covers the topic comprehensively.
Output one section title per line, without numbering or markdown markers.`,
		state.Topic, state.Research)

	resp, err := s.generate(ctx, prompt)
	if err != nil {
		return state, err
	}

	outline := make([]string, 0)
	for _, line := range strings.Split(resp, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			outline = append(outline, line)
		}
	}
	if len(outline) == 0 {
		return state, types.NewExternalError("llm", fmt.Errorf("model returned empty outline"))
	}

	next := state
	next.Outline = outline
	next.SectionIndex = 0
	next.Stage = StageDrafting
	return next, nil
}

// writeSection 撰写当前小节并推进指针
// 指针越过大纲末尾时转入分析阶段
func (s *Service) writeSection(ctx context.Context, state State) (State, error) {
	if state.SectionIndex >= len(state.Outline) {
		next := state
		next.Stage = StageAnalyzing
		return next, nil
	}

	section := state.Outline[state.SectionIndex]
	prompt := fmt.Sprintf(`Write the following section of a blog post about %s:

Section: %s

Use this research for accurate information:
%s

Write in an engaging, conversational style. Include relevant examples and data from the research.`,
		state.Topic, section, state.Research)

	resp, err := s.generate(ctx, prompt)
	if err != nil {
		return state, err
	}

	next := state
	if next.Draft != "" {
		next.Draft += "\n\n"
	}
	next.Draft += fmt.Sprintf("## %s\n\n%s", section, resp)
	next.SectionIndex++
	return next, nil
}

// analyze 分析成稿，提取建议标签、预估阅读时长和关键词
func (s *Service) analyze(ctx context.Context, state State) (State, error) {
	prompt := fmt.Sprintf(`Analyze this blog post and respond with a single JSON object:
{"suggested_tags": ["..."], "estimated_read_time": <minutes>, "seo_keywords": ["..."]}

Provide 5-7 relevant tags, the estimated read time in minutes, and 3-5 main SEO keywords.

Content:
%s`, state.Draft)

	resp, err := s.generate(ctx, prompt)
	if err != nil {
		return state, err
	}

	next := state
	next.Metadata = parseMetadata(resp, state.Draft)
	next.Stage = StageDone
	return next, nil
}

// generate 调用 ChatModel
func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: "You are a professional blog writing assistant."},
		{Role: schema.User, Content: prompt},
	}

	resp, err := s.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", types.NewExternalError("llm", err)
	}
	return resp.Content, nil
}

// parseMetadata 解析分析阶段的 JSON 输出
// 解析失败时退回按字数粗估阅读时长
func parseMetadata(output, draft string) Metadata {
	var meta Metadata
	if err := json.Unmarshal([]byte(repairJSON(output)), &meta); err != nil {
		meta = Metadata{}
	}
	if meta.EstimatedReadTime <= 0 {
		meta.EstimatedReadTime = estimateReadTime(draft)
	}
	return meta
}

// estimateReadTime 按每分钟 200 词粗估阅读时长
func estimateReadTime(draft string) int {
	minutes := len(strings.Fields(draft)) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
