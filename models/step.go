package models

import (
	"fmt"
	"time"
)

// StepAction 步骤类型
type StepAction string

const (
	ActionOpen             StepAction = "open"              // 打开 URL（空则使用页面 URL）
	ActionClick            StepAction = "click"             // 点击
	ActionClear            StepAction = "clear"             // 清空，Force 时强制清空
	ActionSendKeys         StepAction = "send_keys"         // 输入
	ActionClearAndSendKeys StepAction = "clear_send_keys"   // 清空后输入
	ActionSelectValue      StepAction = "select_value"      // 下拉框按 value 选择
	ActionSelectIndex      StepAction = "select_index"      // 下拉框按序号选择
	ActionSelectText       StepAction = "select_text"       // 下拉框按可见文本选择
	ActionDeselectAll      StepAction = "deselect_all"      // 多选下拉框全部取消
	ActionSwitchIn         StepAction = "switch_in"         // 进入 iframe
	ActionSwitchOut        StepAction = "switch_out"        // 回到顶层文档
	ActionWait             StepAction = "wait"              // 等待元素出现
	ActionSleep            StepAction = "sleep"             // 固定延迟
	ActionAssertText       StepAction = "assert_text"       // 断言文本
	ActionAssertValue      StepAction = "assert_value"      // 断言值（文本或 value 属性）
	ActionAssertExists     StepAction = "assert_exists"     // 断言存在，Value 为 "false" 时断言不存在
	ActionAssertCount      StepAction = "assert_count"      // 断言集合数量
	ActionExtractText      StepAction = "extract_text"      // 抓取文本
	ActionExtractAttribute StepAction = "extract_attribute" // 抓取属性
	ActionExtractMarkdown  StepAction = "extract_markdown"  // 抓取为 Markdown
)

var fieldless = map[StepAction]bool{
	ActionOpen:      true,
	ActionSwitchOut: true,
	ActionSleep:     true,
}

// Step 页面脚本的一个步骤
type Step struct {
	Action    StepAction `json:"action"`
	Field     string     `json:"field,omitempty"`
	Index     *int       `json:"index,omitempty"` // 集合字段的下标，支持负数
	Value     string     `json:"value,omitempty"`
	URL       string     `json:"url,omitempty"`
	Attribute string     `json:"attribute,omitempty"`
	Variable  string     `json:"variable,omitempty"` // 抓取结果保存的变量名
	Force     bool       `json:"force,omitempty"`
	Duration  int        `json:"duration,omitempty"` // 毫秒，用于 sleep
}

// Validate 检查步骤类型和字段引用
func (s Step) Validate(p *PageDefinition) error {
	switch s.Action {
	case ActionOpen, ActionClick, ActionClear, ActionSendKeys, ActionClearAndSendKeys,
		ActionSelectValue, ActionSelectIndex, ActionSelectText, ActionDeselectAll,
		ActionSwitchIn, ActionSwitchOut, ActionWait, ActionSleep,
		ActionAssertText, ActionAssertValue, ActionAssertExists, ActionAssertCount,
		ActionExtractText, ActionExtractAttribute, ActionExtractMarkdown:
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	if fieldless[s.Action] {
		return nil
	}
	f, ok := p.Field(s.Field)
	if !ok {
		return fmt.Errorf("%s: field %q not defined", s.Action, s.Field)
	}
	if s.Action == ActionAssertCount && !f.Plural {
		return fmt.Errorf("%s: field %q is not plural", s.Action, s.Field)
	}
	if s.Action == ActionExtractAttribute && s.Attribute == "" {
		return fmt.Errorf("%s: attribute is required", s.Action)
	}
	return nil
}

// StepResult 单步执行结果
type StepResult struct {
	Index    int        `json:"index"`
	Action   StepAction `json:"action"`
	Field    string     `json:"field,omitempty"`
	Success  bool       `json:"success"`
	Error    string     `json:"error,omitempty"`
	Duration int64      `json:"duration"` // 毫秒
}

// Run 一次页面脚本执行记录
type Run struct {
	ID        string         `json:"id"`
	PageID    string         `json:"page_id"`
	PageName  string         `json:"page_name"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Steps     []StepResult   `json:"steps"`
	Extracted map[string]any `json:"extracted,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  int64          `json:"duration"` // 毫秒
}

// FieldProbe 页面字段探测结果
type FieldProbe struct {
	Name   string `json:"name"`
	XPath  string `json:"xpath"`
	Plural bool   `json:"plural,omitempty"`
	Exists bool   `json:"exists"`
	Count  int    `json:"count,omitempty"`
	Error  string `json:"error,omitempty"`
}
