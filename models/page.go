package models

import (
	"fmt"
	"time"

	"github.com/browserwing/nopo/locator"
)

// LocatorSpec 单个定位器，By 使用 WebDriver 策略名（id、xpath、css selector ...）
type LocatorSpec struct {
	By    string `json:"by" toml:"by"`
	Value string `json:"value" toml:"value"`
}

// Locator 解析为 locator.Locator
func (l LocatorSpec) Locator() (locator.Locator, error) {
	kind, err := locator.ParseKind(l.By)
	if err != nil {
		return locator.Locator{}, err
	}
	return locator.New(kind, l.Value), nil
}

// FieldDefinition 页面对象中的命名字段
type FieldDefinition struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Plural      bool          `json:"plural,omitempty"`  // true 时作为集合（Collection）
	Parent      string        `json:"parent,omitempty"`  // 以另一个字段的定位链为上下文
	Timeout     int           `json:"timeout,omitempty"` // 等待时间（秒），0 使用全局配置
	Locators    []LocatorSpec `json:"locators"`
}

// PageDefinition 声明式页面对象
type PageDefinition struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	URL         string            `json:"url"` // 打开页面时使用的地址
	Fields      []FieldDefinition `json:"fields"`
	Steps       []Step            `json:"steps"` // 默认步骤脚本
	Tags        []string          `json:"tags"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Field 按名称查找字段
func (p *PageDefinition) Field(name string) (*FieldDefinition, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	return nil, false
}

// Chain 计算字段的完整定位链（父字段链 + 自身定位器）
func (p *PageDefinition) Chain(name string) (locator.Chain, error) {
	return p.chain(name, map[string]bool{})
}

func (p *PageDefinition) chain(name string, visiting map[string]bool) (locator.Chain, error) {
	f, ok := p.Field(name)
	if !ok {
		return locator.Chain{}, fmt.Errorf("field %q not defined", name)
	}
	if visiting[name] {
		return locator.Chain{}, fmt.Errorf("field %q: parent cycle", name)
	}
	visiting[name] = true

	var base locator.Chain
	if f.Parent != "" {
		parent, err := p.chain(f.Parent, visiting)
		if err != nil {
			return locator.Chain{}, err
		}
		base = parent
	}
	units := make([]locator.Locator, 0, len(f.Locators))
	for i, spec := range f.Locators {
		l, err := spec.Locator()
		if err != nil {
			return locator.Chain{}, fmt.Errorf("field %q locator %d: %w", name, i, err)
		}
		units = append(units, l)
	}
	return base.Join(locator.NewChain(units...)), nil
}

// Validate 检查字段名唯一、定位器合法、父字段存在且无环、步骤引用的字段存在
func (p *PageDefinition) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("page name is required")
	}
	seen := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		if f.Name == "" {
			return fmt.Errorf("field name is required")
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q defined twice", f.Name)
		}
		seen[f.Name] = true
		if len(f.Locators) == 0 {
			return fmt.Errorf("field %q has no locators", f.Name)
		}
	}
	for _, f := range p.Fields {
		c, err := p.Chain(f.Name)
		if err != nil {
			return err
		}
		if _, err := c.Path(); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	for i, s := range p.Steps {
		if err := s.Validate(p); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Copy 深拷贝
func (p *PageDefinition) Copy() *PageDefinition {
	fields := make([]FieldDefinition, len(p.Fields))
	for i, f := range p.Fields {
		f.Locators = append([]LocatorSpec(nil), f.Locators...)
		fields[i] = f
	}
	cp := *p
	cp.Fields = fields
	cp.Steps = append([]Step(nil), p.Steps...)
	cp.Tags = append([]string(nil), p.Tags...)
	return &cp
}
