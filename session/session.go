package session

import (
	"time"

	"github.com/xpzouying/media-adapter-mcp/browser"
	"github.com/xpzouying/media-adapter-mcp/platforms"
)

// Session 某个平台当前活跃的浏览器会话。
// 一个平台同时最多一个会话，由 Manager 串行化访问。
type Session struct {
	// Platform 平台规范 ID
	Platform string

	// Driver 会话独占的浏览器
	Driver browser.Driver

	// Client 绑定在该浏览器上的平台客户端
	Client platforms.Client

	// CookieStr 当前生效的凭证串
	CookieStr string

	// CookieMap 凭证的键值视图
	CookieMap map[string]string

	// AccountIndex 本会话使用的账号下标，创建时随机选定后保持不变
	AccountIndex int

	// IsLoggedIn 最近一次认证检查的结论
	IsLoggedIn bool

	// CreatedAt 会话创建时间
	CreatedAt time.Time
}
