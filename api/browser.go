package api

import (
	"context"

	"github.com/browserwing/nopo/driver"
	"github.com/browserwing/nopo/services/browser"
)

// Browser 处理器使用的浏览器控制接口
type Browser interface {
	IsRunning() bool
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() map[string]interface{}
	// Open 打开 URL，返回的会话成为活动会话
	Open(ctx context.Context, url string) (driver.Session, error)
	// Session 返回活动会话
	Session() (driver.Session, error)
}

type managed struct {
	*browser.Manager
}

// Managed 把 browser.Manager 适配为 Browser
func Managed(m *browser.Manager) Browser {
	return managed{m}
}

func (m managed) Open(ctx context.Context, url string) (driver.Session, error) {
	s, err := m.Manager.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (m managed) Session() (driver.Session, error) {
	s, err := m.Manager.Session()
	if err != nil {
		return nil, err
	}
	return s, nil
}
