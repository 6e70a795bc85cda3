package session

import "fmt"

// SessionCreationError 会话创建阶段的失败（浏览器启动、cookie 注入、入口导航）。
// 创建失败时已分配的浏览器资源会在返回前释放。
type SessionCreationError struct {
	Platform string
	Err      error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("create session for %s: %v", e.Platform, e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}

// AuthRequiredError 凭证失效且当前运行模式（无头）不可能完成交互式登录
type AuthRequiredError struct {
	Platform string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("%s requires login: cookies missing or expired, run without headless to scan QR code", e.Platform)
}

// LoginTimeoutError 交互式登录在时限内未完成
type LoginTimeoutError struct {
	Platform string
	Waited   string
}

func (e *LoginTimeoutError) Error() string {
	return fmt.Sprintf("login to %s not completed within %s", e.Platform, e.Waited)
}
