package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/browserwing/nopo/element"
	"github.com/browserwing/nopo/pkg/logger"
)

type Config struct {
	Debug    bool                 `json:"debug" yaml:"debug" toml:"debug"`
	Server   *ServerConfig        `json:"server" yaml:"server" toml:"server"`
	Database *DatabaseConfig      `json:"database" yaml:"database" toml:"database"`
	Browser  *BrowserConfig       `json:"browser" yaml:"browser" toml:"browser"`
	Wait     *WaitConfig          `json:"wait" yaml:"wait" toml:"wait"`
	Log      *logger.LoggerConfig `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
}

type ServerConfig struct {
	Port string `json:"port" toml:"port"`
	Host string `json:"host" toml:"host"`
}

type DatabaseConfig struct {
	Path string `json:"path" toml:"path"`
}

type BrowserConfig struct {
	BinPath     string            `json:"bin_path" toml:"bin_path"`
	UserDataDir string            `json:"user_data_dir" toml:"user_data_dir"`
	ControlURL  string            `json:"control_url,omitempty" toml:"control_url,omitempty"` // 连接已有浏览器（DevTools 地址），为空时本地启动
	Headless    bool              `json:"headless" toml:"headless"`
	Stealth     bool              `json:"stealth" toml:"stealth"`
	LaunchArgs  map[string]string `json:"launch_args,omitempty" toml:"launch_args,omitempty"` // 额外的启动参数，值为空表示开关
}

// WaitConfig 元素等待参数
type WaitConfig struct {
	TimeoutSeconds        int `json:"timeout_seconds" toml:"timeout_seconds"`
	PollIntervalMs        int `json:"poll_interval_ms" toml:"poll_interval_ms"`
	LengthRetryIntervalMs int `json:"length_retry_interval_ms" toml:"length_retry_interval_ms"`
}

// Options 转换为 element 选项，零值使用 element 包的默认值
func (w *WaitConfig) Options() []element.Option {
	if w == nil {
		return nil
	}
	return []element.Option{
		element.WithTimeout(time.Duration(w.TimeoutSeconds) * time.Second),
		element.WithPollInterval(time.Duration(w.PollIntervalMs) * time.Millisecond),
		element.WithLengthRetryInterval(time.Duration(w.LengthRetryIntervalMs) * time.Millisecond),
	}
}

// 常见的 Chrome/Chromium 安装路径
var commonChromePaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/google-chrome-stable",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
	"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
}

func detectChrome() string {
	if envPath := os.Getenv("CHROME_BIN_PATH"); envPath != "" {
		return envPath
	}
	for _, p := range commonChromePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Default 返回默认配置，路径都相对于 dir
func Default(dir string) *Config {
	return &Config{
		Server: &ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Database: &DatabaseConfig{
			Path: filepath.Join(dir, "data", "nopo.db"),
		},
		Browser: &BrowserConfig{
			BinPath:     detectChrome(),
			UserDataDir: filepath.Join(dir, "chrome_user_data"),
			Headless:    true,
		},
		Wait: &WaitConfig{
			TimeoutSeconds:        10,
			PollIntervalMs:        100,
			LengthRetryIntervalMs: 250,
		},
		Log: &logger.LoggerConfig{
			Level: "info",
			File:  filepath.Join(dir, "log", "nopo.log"),
		},
	}
}

// Load 读取 TOML 配置。文件不存在时返回默认配置并写回 path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default(filepath.Dir(path))
		if out, err := toml.Marshal(cfg); err == nil {
			_ = os.WriteFile(path, out, 0o644)
		}
		applyEnv(cfg)
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	// 确保所有必需的配置项都有值
	def := Default(filepath.Dir(path))
	if cfg.Server == nil {
		cfg.Server = def.Server
	}
	if cfg.Database == nil {
		cfg.Database = def.Database
	}
	if cfg.Browser == nil {
		cfg.Browser = def.Browser
	}
	if cfg.Browser.BinPath == "" {
		cfg.Browser.BinPath = detectChrome()
	}
	if cfg.Wait == nil {
		cfg.Wait = def.Wait
	}
	if cfg.Log == nil {
		cfg.Log = &logger.LoggerConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv 环境变量覆盖
func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if bin := os.Getenv("CHROME_BIN_PATH"); bin != "" {
		cfg.Browser.BinPath = bin
	}
}
