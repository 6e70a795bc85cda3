package platforms

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xpzouying/media-adapter-mcp/browser"
)

// UnsupportedError 请求的平台没有注册对应的客户端实现。
// 在分发阶段抛出，发生在任何会话工作之前。
type UnsupportedError struct {
	Platform string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.Platform)
}

// Factory 为一个平台创建客户端，driver 是会话独占的浏览器，
// cookieStr 是本次会话选中的账号凭证
type Factory func(driver browser.Driver, cookieStr string) Client

type entry struct {
	cfg     Config
	factory Factory
}

// Registry 平台客户端注册表，按平台规范 ID 查找
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry 创建注册表并注册所有内置平台
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]entry)}

	r.Register(builtinConfigs["xhs"], func(d browser.Driver, cookieStr string) Client {
		return NewXhsClient(d, cookieStr)
	})
	r.Register(builtinConfigs["weibo"], func(d browser.Driver, cookieStr string) Client {
		return NewWeiboClient(d, cookieStr)
	})
	r.Register(builtinConfigs["douyin"], func(d browser.Driver, cookieStr string) Client {
		return NewDouyinClient(d, cookieStr)
	})
	r.Register(builtinConfigs["bilibili"], func(d browser.Driver, cookieStr string) Client {
		return NewBilibiliClient(d, cookieStr)
	})

	return r
}

// Register 注册一个平台，重复注册以后者为准
func (r *Registry) Register(cfg Config, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cfg.ID] = entry{cfg: cfg, factory: f}
}

// Lookup 按平台 ID（或别名）查找配置和客户端工厂
func (r *Registry) Lookup(platform string) (Config, Factory, error) {
	id := CanonicalID(platform)

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return Config{}, nil, &UnsupportedError{Platform: platform}
	}
	return e.cfg, e.factory, nil
}

// Platforms 返回已注册平台的规范 ID 列表，按字典序
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
