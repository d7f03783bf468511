package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"

	"github.com/browserwing/nopo/config"
	"github.com/browserwing/nopo/pkg/logger"
)

var (
	ErrAlreadyRunning = errors.New("browser is already running")
	ErrNotRunning     = errors.New("browser is not running")
)

// Manager 浏览器管理器，持有一个浏览器进程和当前活动页面
type Manager struct {
	cfg *config.BrowserConfig
	mu  sync.Mutex

	browser   *rod.Browser
	launcher  *launcher.Launcher
	session   *Session
	isRunning bool
	startTime time.Time
}

// NewManager 创建浏览器管理器
func NewManager(cfg *config.BrowserConfig) *Manager {
	if cfg == nil {
		cfg = &config.BrowserConfig{Headless: true}
	}
	return &Manager{cfg: cfg}
}

func (m *Manager) remote() bool {
	return m.cfg.ControlURL != ""
}

// launcherFor 构造本地启动器，额外参数按名称排序
func (m *Manager) launcherFor(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Headless(m.cfg.Headless).
		Devtools(false).
		Leakless(false)

	names := make([]string, 0, len(m.cfg.LaunchArgs))
	for name := range m.cfg.LaunchArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		flag := flags.Flag(strings.TrimPrefix(name, "--"))
		if v := m.cfg.LaunchArgs[name]; v != "" {
			l = l.Set(flag, v)
		} else {
			l = l.Set(flag)
		}
	}

	if m.cfg.BinPath != "" {
		l = l.Bin(m.cfg.BinPath)
		logger.Info(ctx, "Using browser path: %s", m.cfg.BinPath)
	}

	// 用户数据目录保存登录状态
	if dir := m.cfg.UserDataDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn(ctx, "Failed to create user data directory: %v", err)
		} else {
			l = l.UserDataDir(dir)
		}
	}
	return l
}

// Start 启动（或连接）浏览器
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return ErrAlreadyRunning
	}

	var url string
	if m.remote() {
		url = m.cfg.ControlURL
		logger.Info(ctx, "Using remote Chrome browser, control URL: %s", url)
	} else {
		logger.Info(ctx, "Starting local Chrome browser, headless: %v", m.cfg.Headless)
		l := m.launcherFor(ctx)
		var err error
		url, err = l.Launch()
		if err != nil {
			if strings.Contains(err.Error(), "already") {
				return errors.Wrap(err, "Chrome is already running with the same user data directory")
			}
			return errors.Wrap(err, "failed to start browser")
		}
		m.launcher = l
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		if m.launcher != nil {
			m.launcher.Kill()
			m.launcher = nil
		}
		return errors.Wrap(err, "failed to connect browser")
	}

	if version, err := browser.Version(); err != nil {
		logger.Warn(ctx, "Failed to get browser version: %v", err)
	} else {
		logger.Info(ctx, "Browser version: %s", version.Product)
	}

	m.browser = browser
	m.isRunning = true
	m.startTime = time.Now()
	logger.Info(ctx, "Browser started successfully")
	return nil
}

// Stop 关闭浏览器。远程模式只断开连接
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return ErrNotRunning
	}

	if m.browser != nil {
		if !m.remote() {
			if pages, err := m.browser.Pages(); err == nil {
				for _, page := range pages {
					_ = page.Close()
				}
				logger.Info(ctx, "Closed %d pages", len(pages))
			}
		}
		if err := m.browser.Close(); err != nil {
			logger.Warn(ctx, "Error when closing browser connection: %v", err)
		}
	}

	// 不调用 launcher.Cleanup()，它会删除用户数据目录
	if m.launcher != nil {
		m.launcher.Kill()
	}

	m.browser = nil
	m.launcher = nil
	m.session = nil
	m.isRunning = false
	logger.Info(ctx, "Browser stopped")
	return nil
}

// IsRunning 检查浏览器是否运行
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Open 新建页面并导航，该页面成为活动会话
func (m *Manager) Open(ctx context.Context, url string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil, ErrNotRunning
	}

	var (
		page *rod.Page
		err  error
	)
	if m.cfg.Stealth {
		page, err = stealth.Page(m.browser)
	} else {
		page, err = m.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, errors.Wrap(err, "create page")
	}

	s := NewSession(page)
	if url != "" {
		if err := s.Navigate(ctx, url); err != nil {
			_ = page.Close()
			return nil, err
		}
	}
	if m.session != nil {
		_ = m.session.Page().Close()
	}
	m.session = s
	logger.Info(ctx, "Opened page %s", url)
	return s, nil
}

// Session 返回活动会话
func (m *Manager) Session() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isRunning {
		return nil, ErrNotRunning
	}
	if m.session == nil {
		return nil, errors.New("no page is open")
	}
	return m.session, nil
}

// Status 获取浏览器状态
func (m *Manager) Status() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := map[string]interface{}{
		"is_running": m.isRunning,
		"remote":     m.remote(),
	}
	if !m.remote() {
		status["user_data_dir"] = m.DataDir()
	}
	if !m.isRunning {
		return status
	}

	status["start_time"] = m.startTime.Format(time.RFC3339)
	status["uptime"] = time.Since(m.startTime).String()
	if pages, err := m.browser.Pages(); err == nil {
		status["pages_count"] = len(pages)
	}
	if m.session != nil {
		if info, err := m.session.Page().Info(); err == nil {
			status["url"] = info.URL
			status["title"] = info.Title
		}
	}
	return status
}

// DataDir 返回用户数据目录的绝对路径
func (m *Manager) DataDir() string {
	if m.cfg.UserDataDir == "" {
		return ""
	}
	abs, err := filepath.Abs(m.cfg.UserDataDir)
	if err != nil {
		return m.cfg.UserDataDir
	}
	return abs
}

func (m *Manager) String() string {
	if m.remote() {
		return fmt.Sprintf("remote browser at %s", m.cfg.ControlURL)
	}
	return fmt.Sprintf("local browser (headless=%v)", m.cfg.Headless)
}
