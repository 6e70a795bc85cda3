// Package platforms 定义平台客户端能力契约和各平台的具体实现。
//
// 共享逻辑（分页循环、会话管理）只依赖 Client 接口，
// 不允许在共享路径里出现针对具体平台的分支。
package platforms

import "context"

// Record 一条标准化的结果记录（笔记、评论或用户资料）
type Record = map[string]any

// Page 一页列表结果
type Page struct {
	Items      []Record
	NextCursor string
	HasMore    bool
}

// Client 是单个平台的私有接口能力抽象。
// 每个调用都可能因为网络或平台风控失败，核心层从不解析平台特有的报文结构。
type Client interface {
	// ProbeLogin 轻量探测当前凭证是否有效，不产生实际业务请求
	ProbeLogin(ctx context.Context) (bool, error)

	// Search 按关键词搜索一页内容，cursor 为上一页返回的续传标记
	Search(ctx context.Context, keyword, cursor string) (*Page, error)

	// GetDetail 获取单条内容详情，未找到时返回 nil
	GetDetail(ctx context.Context, id string) (Record, error)

	// GetComments 获取一页评论
	GetComments(ctx context.Context, id, cursor string) (*Page, error)

	// GetProfile 获取用户主页信息，未找到时返回 nil
	GetProfile(ctx context.Context, id string) (Record, error)
}

// CookieUpdater 由支持在登录后刷新请求凭证的客户端实现
type CookieUpdater interface {
	UpdateCookies(cookieStr string, cookieMap map[string]string)
}

// SecTokenCarrier 由打开内容页需要附带安全令牌的客户端实现。
// 令牌来自分享链接或搜索结果，调用方在请求详情前先登记。
type SecTokenCarrier interface {
	SetSecToken(contentID, token string)
}
