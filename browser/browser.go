package browser

import (
	"runtime"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/headless_browser"
)

type browserConfig struct {
	binPath string
}

type Option func(*browserConfig)

func WithBinPath(binPath string) Option {
	return func(c *browserConfig) {
		c.binPath = binPath
	}
}

// NewBrowser 启动一个带反检测脚本的浏览器实例
func NewBrowser(headless bool, options ...Option) *headless_browser.Browser {
	cfg := &browserConfig{}
	for _, opt := range options {
		opt(cfg)
	}

	opts := []headless_browser.Option{
		headless_browser.WithHeadless(headless),
	}
	if cfg.binPath != "" {
		opts = append(opts, headless_browser.WithChromeBinPath(cfg.binPath))
	}

	return headless_browser.New(opts...)
}

// ConfigurePage 配置页面，设置平台要求的 UA 并应用环境补丁
func ConfigurePage(page *rod.Page, userAgent string) {
	// stealth 库默认把 UA 伪装成 Mac Chrome，这里改成平台配置
	// 要求的 UA，避免平台判定设备类型前后不一致
	if userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: userAgent,
		}); err != nil {
			logrus.Warnf("failed to set user agent: %v", err)
		}
	}

	// Windows 下额外覆盖 navigator 属性，防止页面脚本检测到不一致
	if runtime.GOOS == "windows" {
		ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: ua,
			Platform:  "Windows",
		})

		_, err := page.EvalOnNewDocument(`
			Object.defineProperty(navigator, 'platform', {
				get: () => 'Win32'
			});
			Object.defineProperty(navigator, 'userAgent', {
				get: () => '` + ua + `'
			});
			Object.defineProperty(navigator, 'vendor', {
				get: () => 'Google Inc.'
			});
		`)
		if err != nil {
			logrus.Warnf("failed to set user agent script: %v", err)
		}

		logrus.Info("已修正 Windows 环境下的 User-Agent 设置")
	}
}
