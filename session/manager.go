package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/cookies"
	"github.com/xpzouying/media-adapter-mcp/platforms"
)

// DriverFactory 创建一个浏览器 driver，测试时可替换为假实现
type DriverFactory func(headless bool, userAgent string) (browser.Driver, error)

func defaultDriverFactory(headless bool, userAgent string) (browser.Driver, error) {
	var opts []browser.Option
	if binPath := configs.GetBinPath(); binPath != "" {
		opts = append(opts, browser.WithBinPath(binPath))
	}
	return browser.NewRodDriver(headless, userAgent, opts...)
}

// Manager 管理各平台的浏览器会话。
//
// 每个平台同时最多持有一个会话，同平台的并发获取按顺序排队，
// 不同平台互不阻塞。已有会话在复用前会做存活探测，坏掉的会话
// 被丢弃并重建。
type Manager struct {
	registry *platforms.Registry
	store    *cookies.Store
	headless bool

	auth      *StateMachine
	newDriver DriverFactory

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	sessions map[string]*Session
}

// ManagerOption 管理器可选配置
type ManagerOption func(*Manager)

// WithDriverFactory 替换浏览器创建方式，测试时注入假实现
func WithDriverFactory(f DriverFactory) ManagerOption {
	return func(m *Manager) {
		m.newDriver = f
	}
}

// NewManager 创建会话管理器
func NewManager(registry *platforms.Registry, store *cookies.Store, headless bool, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:  registry,
		store:     store,
		headless:  headless,
		auth:      NewStateMachine(),
		newDriver: defaultDriverFactory,
		locks:     make(map[string]*sync.Mutex),
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Headless 当前是否无头模式
func (m *Manager) Headless() bool {
	return m.headless
}

// Registry 返回平台注册表
func (m *Manager) Registry() *platforms.Registry {
	return m.registry
}

// platformLock 返回平台专属的互斥锁，首次访问时创建
func (m *Manager) platformLock(platform string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[platform]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[platform] = lock
	}
	return lock
}

// Acquire 获取平台的活跃会话，没有则创建。
//
// 已有会话先做存活探测（读页面标题），探测通过且未要求强制重建时
// 直接复用。forceNew 为 true 时总是丢弃旧会话重建。同平台的并发
// 调用被串行化，最多只会启动一个浏览器。
func (m *Manager) Acquire(ctx context.Context, platform string, forceNew bool) (*Session, error) {
	id := platforms.CanonicalID(platform)

	lock := m.platformLock(id)
	lock.Lock()
	defer lock.Unlock()

	cfg, factory, err := m.registry.Lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	existing := m.sessions[id]
	m.mu.Unlock()

	if existing != nil {
		if !forceNew && m.alive(existing) {
			// 未登录的会话复用前重试一次认证：上次可能登录超时，
			// 或者用户已经在浏览器窗口里完成了扫码
			if !existing.IsLoggedIn {
				m.authenticate(ctx, existing, cfg)
			}
			return existing, nil
		}
		// 被替换的会话先释放浏览器，避免实例泄漏
		existing.Driver.Close()
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}

	sess, err := m.create(ctx, id, cfg, factory)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess, nil
}

// alive 廉价的会话存活探测：页面标题还能读到就认为浏览器还活着
func (m *Manager) alive(sess *Session) bool {
	if _, err := sess.Driver.Title(); err != nil {
		logrus.Debugf("%s 会话存活探测失败: %v", sess.Platform, err)
		return false
	}
	return true
}

// create 创建新会话：选账号、启动浏览器、注入 cookie、导航入口页、认证
func (m *Manager) create(ctx context.Context, id string, cfg platforms.Config, factory platforms.Factory) (*Session, error) {
	accountIndex := m.pickAccount(id)
	cookieStr := m.store.GetCookie(id, cookies.WithAccountIndex(accountIndex))

	driver, err := m.newDriver(m.headless, cfg.UserAgent)
	if err != nil {
		return nil, &SessionCreationError{Platform: id, Err: err}
	}

	if cookieStr != "" {
		if err := driver.SetCookies(cookieStr, cfg.CookieDomains); err != nil {
			driver.Close()
			return nil, &SessionCreationError{Platform: id, Err: err}
		}
	}

	if err := driver.Navigate(ctx, cfg.IndexURL); err != nil {
		driver.Close()
		return nil, &SessionCreationError{Platform: id, Err: err}
	}

	sess := &Session{
		Platform:     id,
		Driver:       driver,
		Client:       factory(driver, cookieStr),
		CookieStr:    cookieStr,
		CookieMap:    cookies.ParseCookieString(cookieStr),
		AccountIndex: accountIndex,
		CreatedAt:    time.Now(),
	}

	m.authenticate(ctx, sess, cfg)

	logrus.WithFields(logrus.Fields{
		"platform":  id,
		"account":   accountIndex,
		"logged_in": sess.IsLoggedIn,
	}).Info("会话创建完成")
	return sess, nil
}

// authenticate 在会话上执行认证流程。
// 登录超时按未登录处理，会话保留，下次 Acquire 会再次重试；
// 交互式登录成功时把新凭证覆盖写回当初选中的账号记录。
func (m *Manager) authenticate(ctx context.Context, sess *Session, cfg platforms.Config) {
	state, err := m.auth.EnsureLoggedIn(ctx, sess, cfg, m.headless)
	if err != nil {
		logrus.WithError(err).Warnf("%s 登录未完成，会话以未登录状态保留", sess.Platform)
		return
	}

	if state == StateLoggedIn && sess.CookieStr != "" {
		if !m.store.SaveCookie(sess.Platform, sess.CookieStr, sess.AccountIndex) {
			logrus.Warnf("保存 %s 登录凭证失败", sess.Platform)
		}
	}
}

// pickAccount 在可用账号里随机选一个，会话存续期间保持不变
func (m *Manager) pickAccount(platform string) int {
	count := m.store.GetAccountCount(platform)
	if count <= 1 {
		return 0
	}
	return rand.Intn(count)
}

// HasSession 平台当前是否持有会话，不做存活探测
func (m *Manager) HasSession(platform string) bool {
	id := platforms.CanonicalID(platform)

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	return ok
}

// Get 返回平台当前会话，没有则返回 nil
func (m *Manager) Get(platform string) *Session {
	id := platforms.CanonicalID(platform)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Close 关闭平台的会话并释放浏览器，清理过程中的错误只记录
func (m *Manager) Close(platform string) {
	id := platforms.CanonicalID(platform)

	lock := m.platformLock(id)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	sess := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if sess != nil {
		sess.Driver.Close()
		logrus.Infof("已关闭 %s 会话", id)
	}
}

// CloseAll 关闭所有平台的会话，用于进程退出前清理
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		all = append(all, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, sess := range all {
		sess.Driver.Close()
	}
}
