package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/platforms"
)

// AuthState 会话的认证状态
type AuthState int

const (
	// StateUnknown 尚未检查
	StateUnknown AuthState = iota
	// StateValid 凭证探测通过，无需登录
	StateValid
	// StateExpired 凭证缺失或已失效
	StateExpired
	// StateLoggingIn 正在等待用户扫码
	StateLoggingIn
	// StateLoggedIn 交互式登录完成
	StateLoggedIn
	// StateLoginFailed 登录未完成（无头模式无法交互，或等待超时）
	StateLoginFailed
)

func (s AuthState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateLoggingIn:
		return "logging_in"
	case StateLoggedIn:
		return "logged_in"
	case StateLoginFailed:
		return "login_failed"
	default:
		return "unknown"
	}
}

// StateMachine 驱动一次会话的认证流程：探测凭证，失效则在可交互模式下
// 等待用户扫码登录，成功后把浏览器里的新凭证回写到会话和客户端。
// 时间相关依赖可注入，便于测试时替换。
type StateMachine struct {
	// PollInterval 登录信号轮询间隔
	PollInterval time.Duration

	// Timeout 等待扫码的上限
	Timeout time.Duration

	// Now 当前时间来源
	Now func() time.Time

	// Sleep 轮询间隔的等待实现
	Sleep func(time.Duration)
}

// NewStateMachine 使用默认轮询参数创建状态机
func NewStateMachine() *StateMachine {
	return &StateMachine{
		PollInterval: configs.DefaultLoginPollInterval,
		Timeout:      configs.DefaultLoginTimeout,
		Now:          time.Now,
		Sleep:        time.Sleep,
	}
}

// EnsureLoggedIn 确保会话处于已登录状态。
//
// 凭证有效时直接返回 StateValid，不做任何修改。凭证失效且无头模式下
// 无法交互，立即返回 StateLoginFailed 并把 IsLoggedIn 置为 false，
// 不返回错误，由上层决定哪些操作必须登录。可交互模式下轮询登录信号
// 直到成功或超时，超时返回 LoginTimeoutError。
//
// 登录成功后新凭证只回写到会话和客户端，持久化由调用方负责。
func (m *StateMachine) EnsureLoggedIn(ctx context.Context, sess *Session, cfg platforms.Config, headless bool) (AuthState, error) {
	ok, err := sess.Client.ProbeLogin(ctx)
	if err != nil {
		logrus.WithError(err).Warnf("探测 %s 登录状态失败，按未登录处理", sess.Platform)
	}
	if ok {
		sess.IsLoggedIn = true
		return StateValid, nil
	}

	if headless {
		logrus.Warnf("%s 凭证失效，无头模式下无法扫码登录", sess.Platform)
		sess.IsLoggedIn = false
		return StateLoginFailed, nil
	}

	logrus.Infof("%s 凭证失效，请在浏览器窗口中扫码登录（最长等待 %s）", sess.Platform, m.Timeout)

	deadline := m.Now().Add(m.Timeout)
	for {
		if err := ctx.Err(); err != nil {
			sess.IsLoggedIn = false
			return StateLoginFailed, err
		}
		if m.Now().After(deadline) {
			sess.IsLoggedIn = false
			return StateLoginFailed, &LoginTimeoutError{
				Platform: sess.Platform,
				Waited:   m.Timeout.String(),
			}
		}

		if m.loginSignaled(sess.Driver, cfg) {
			break
		}
		m.Sleep(m.PollInterval)
	}

	if err := m.refreshCredentials(sess); err != nil {
		sess.IsLoggedIn = false
		return StateLoginFailed, err
	}

	sess.IsLoggedIn = true
	logrus.Infof("%s 登录成功", sess.Platform)
	return StateLoggedIn, nil
}

// loginSignaled 检查两类登录信号：关键 cookie 出现，或页面脚本探测命中。
// 平台对哪个信号先就绪不一致，任一命中即认为登录完成。
func (m *StateMachine) loginSignaled(driver browser.Driver, cfg platforms.Config) bool {
	if cks, err := driver.Cookies(); err == nil {
		_, cookieMap := browser.CookieString(cks)
		for _, name := range cfg.LoginCookies {
			if v, ok := cookieMap[name]; ok && v != "" {
				return true
			}
		}
	}

	if cfg.LoginScript != "" {
		if result, err := driver.Evaluate(cfg.LoginScript); err == nil {
			if v, ok := result.Val().(bool); ok && v {
				return true
			}
		}
	}
	return false
}

// refreshCredentials 登录后从浏览器读出最新 cookie 回写到会话和客户端
func (m *StateMachine) refreshCredentials(sess *Session) error {
	cks, err := sess.Driver.Cookies()
	if err != nil {
		return err
	}
	cookieStr, cookieMap := browser.CookieString(cks)

	sess.CookieStr = cookieStr
	sess.CookieMap = cookieMap
	if updater, ok := sess.Client.(platforms.CookieUpdater); ok {
		updater.UpdateCookies(cookieStr, cookieMap)
	}
	return nil
}
