// Package player 执行页面定义中的步骤脚本
package player

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/element"
	"github.com/browserwing/nopo/models"
	"github.com/browserwing/nopo/pkg/logger"
)

// ErrAssertion 断言失败
var ErrAssertion = errors.New("assertion failed")

// Player 步骤回放器
type Player struct {
	opts []element.Option // 所有句柄共享的等待参数
}

// NewPlayer 创建回放器
func NewPlayer(opts ...element.Option) *Player {
	return &Player{opts: opts}
}

// target 字段对应的句柄，单数字段只有 el，复数字段两者都有
type target struct {
	el   *element.Element
	coll *element.Collection
}

func (p *Player) handleOpts(f *models.FieldDefinition, s driver.Session) []element.Option {
	opts := append([]element.Option{}, p.opts...)
	if f.Timeout > 0 {
		opts = append(opts, element.WithTimeout(time.Duration(f.Timeout)*time.Second))
	}
	return append(opts, element.WithSession(s))
}

// Handles 为页面中的每个字段构造句柄
func (p *Player) Handles(def *models.PageDefinition, s driver.Session) (map[string]*element.Element, map[string]*element.Collection, error) {
	els := make(map[string]*element.Element)
	colls := make(map[string]*element.Collection)
	for i := range def.Fields {
		f := &def.Fields[i]
		c, err := def.Chain(f.Name)
		if err != nil {
			return nil, nil, err
		}
		if f.Plural {
			colls[f.Name] = element.NewCollection(c, p.handleOpts(f, s)...)
		} else {
			els[f.Name] = element.New(c, p.handleOpts(f, s)...)
		}
	}
	return els, colls, nil
}

func (p *Player) target(ctx context.Context, def *models.PageDefinition, s driver.Session, step models.Step) (target, error) {
	f, ok := def.Field(step.Field)
	if !ok {
		return target{}, fmt.Errorf("field %q not defined", step.Field)
	}
	c, err := def.Chain(f.Name)
	if err != nil {
		return target{}, err
	}
	opts := p.handleOpts(f, s)
	if !f.Plural {
		return target{el: element.New(c, opts...)}, nil
	}
	coll := element.NewCollection(c, opts...)
	if step.Index == nil {
		return target{el: coll.Element(), coll: coll}, nil
	}
	el, err := coll.Get(ctx, *step.Index)
	if err != nil {
		return target{}, err
	}
	return target{el: el, coll: coll}, nil
}

// Run 依次执行步骤，遇到第一个失败即停止
func (p *Player) Run(ctx context.Context, def *models.PageDefinition, s driver.Session, steps []models.Step) *models.Run {
	run := &models.Run{
		ID:        uuid.New().String(),
		PageID:    def.ID,
		PageName:  def.Name,
		Success:   true,
		Extracted: map[string]any{},
		StartTime: time.Now(),
	}
	ctx = logger.WithTraceID(ctx, run.ID)
	logger.Info(ctx, "Running %d steps of page %s", len(steps), def.Name)

	for i, step := range steps {
		start := time.Now()
		err := step.Validate(def)
		if err == nil {
			err = p.execute(ctx, def, s, step, run.Extracted)
		}
		res := models.StepResult{
			Index:    i,
			Action:   step.Action,
			Field:    step.Field,
			Success:  err == nil,
			Duration: time.Since(start).Milliseconds(),
		}
		if err != nil {
			res.Error = err.Error()
		}
		run.Steps = append(run.Steps, res)
		if err != nil {
			run.Success = false
			run.Message = fmt.Sprintf("step %d (%s) failed: %v", i+1, step.Action, err)
			logger.Warn(ctx, "%s", run.Message)
			break
		}
		logger.Debug(ctx, "Step %d (%s %s) done in %dms", i+1, step.Action, step.Field, res.Duration)
	}

	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime).Milliseconds()
	if run.Success {
		run.Message = fmt.Sprintf("%d steps completed", len(steps))
	}
	logger.Info(ctx, "Run %s finished: %s", run.ID, run.Message)
	return run
}

func (p *Player) execute(ctx context.Context, def *models.PageDefinition, s driver.Session, step models.Step, vars map[string]any) error {
	switch step.Action {
	case models.ActionOpen:
		return p.open(ctx, def, s, step)
	case models.ActionSwitchOut:
		return s.SwitchToDefault(ctx)
	case models.ActionSleep:
		return sleep(ctx, time.Duration(step.Duration)*time.Millisecond)
	}

	t, err := p.target(ctx, def, s, step)
	if err != nil {
		return err
	}
	el := t.el
	value := expand(step.Value, vars)

	switch step.Action {
	case models.ActionClick:
		return el.Click(ctx)
	case models.ActionClear:
		return el.Clear(ctx, step.Force)
	case models.ActionSendKeys:
		return el.SendKeys(ctx, value)
	case models.ActionClearAndSendKeys:
		return el.ClearAndSendKeys(ctx, value, step.Force)
	case models.ActionSelectValue:
		return el.SelectByValue(ctx, value)
	case models.ActionSelectIndex:
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "select index %q", value)
		}
		return el.SelectByIndex(ctx, n)
	case models.ActionSelectText:
		return el.SelectByVisibleText(ctx, value)
	case models.ActionDeselectAll:
		return el.DeselectAll(ctx)
	case models.ActionSwitchIn:
		return el.SwitchIn(ctx)
	case models.ActionWait:
		return el.WaitForPresent(ctx)
	case models.ActionAssertText:
		got, err := el.Text(ctx)
		if err != nil {
			return err
		}
		return expect("text", got, value)
	case models.ActionAssertValue:
		got, err := el.Value(ctx)
		if err != nil {
			return err
		}
		return expect("value", got, value)
	case models.ActionAssertExists:
		return assertExists(ctx, el, value != "false")
	case models.ActionAssertCount:
		want, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "count %q", value)
		}
		got, err := t.coll.Len(ctx)
		if err != nil {
			return err
		}
		return expect("count", strconv.Itoa(got), strconv.Itoa(want))
	case models.ActionExtractText:
		if t.coll != nil && step.Index == nil {
			return extractAll(ctx, t.coll, vars, variable(step))
		}
		text, err := el.Text(ctx)
		if err != nil {
			return err
		}
		vars[variable(step)] = text
		return nil
	case models.ActionExtractAttribute:
		v, ok, err := el.Attribute(ctx, step.Attribute)
		if err != nil {
			return err
		}
		if ok {
			vars[variable(step)] = v
		} else {
			vars[variable(step)] = nil
		}
		return nil
	case models.ActionExtractMarkdown:
		md, err := el.Markdown(ctx)
		if err != nil {
			return err
		}
		vars[variable(step)] = md
		return nil
	}
	return fmt.Errorf("unknown action %q", step.Action)
}

func (p *Player) open(ctx context.Context, def *models.PageDefinition, s driver.Session, step models.Step) error {
	nav, ok := s.(driver.Navigator)
	if !ok {
		return errors.New("session cannot navigate")
	}
	url := step.URL
	if url == "" {
		url = def.URL
	}
	if url == "" {
		return errors.New("no URL to open")
	}
	return nav.Navigate(ctx, url)
}

// Probe 在当前页面上检查每个字段：路径、是否存在、匹配数量。不等待
func (p *Player) Probe(ctx context.Context, def *models.PageDefinition, s driver.Session) ([]models.FieldProbe, error) {
	probes := make([]models.FieldProbe, 0, len(def.Fields))
	for _, f := range def.Fields {
		probe := models.FieldProbe{Name: f.Name, Plural: f.Plural}
		c, err := def.Chain(f.Name)
		if err == nil {
			probe.XPath, err = c.Path()
		}
		if err != nil {
			probe.Error = err.Error()
			probes = append(probes, probe)
			continue
		}
		found, err := s.FindAll(ctx, probe.XPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			probe.Error = err.Error()
		}
		probe.Exists = len(found) > 0
		if f.Plural {
			probe.Count = len(found)
		}
		probes = append(probes, probe)
	}
	return probes, nil
}

func assertExists(ctx context.Context, el *element.Element, want bool) error {
	var (
		ok  bool
		err error
	)
	if want {
		ok, err = el.ExistsWait(ctx)
	} else {
		ok, err = el.Exists(ctx)
	}
	if err != nil {
		return err
	}
	return expect("exists", strconv.FormatBool(ok), strconv.FormatBool(want))
}

func extractAll(ctx context.Context, coll *element.Collection, vars map[string]any, name string) error {
	var texts []string
	for el, err := range coll.All(ctx) {
		if err != nil {
			return err
		}
		text, err := el.Text(ctx)
		if err != nil {
			return err
		}
		texts = append(texts, text)
	}
	vars[name] = texts
	return nil
}

func expect(what, got, want string) error {
	if got != want {
		return errors.Wrapf(ErrAssertion, "%s: got %q, want %q", what, got, want)
	}
	return nil
}

func variable(step models.Step) string {
	if step.Variable != "" {
		return step.Variable
	}
	return step.Field
}

// expand 替换 {{name}} 为已抓取的字符串变量
func expand(s string, vars map[string]any) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	for k, v := range vars {
		if str, ok := v.(string); ok {
			s = strings.ReplaceAll(s, "{{"+k+"}}", str)
		}
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
