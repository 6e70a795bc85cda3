package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"

	"github.com/xpzouying/media-adapter-mcp/platforms"
)

// fakeDriver 测试用的浏览器替身，记录调用并返回预设值
type fakeDriver struct {
	mu sync.Mutex

	cookies    []*proto.NetworkCookie
	evalResult any
	titleErr   error

	navigated []string
	closed    bool
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) Title() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.titleErr != nil {
		return "", d.titleErr
	}
	return "测试页面", nil
}

func (d *fakeDriver) Cookies() ([]*proto.NetworkCookie, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cookies, nil
}

func (d *fakeDriver) SetCookies(cookieStr string, domains []string) error {
	return nil
}

func (d *fakeDriver) Evaluate(js string) (gson.JSON, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gson.New(d.evalResult), nil
}

func (d *fakeDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *fakeDriver) setCookies(cks ...*proto.NetworkCookie) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cookies = cks
}

// fakeClient 测试用的平台客户端替身
type fakeClient struct {
	loggedIn bool

	cookieStr string
	updated   bool
}

func (c *fakeClient) ProbeLogin(ctx context.Context) (bool, error) {
	return c.loggedIn, nil
}

func (c *fakeClient) Search(ctx context.Context, keyword, cursor string) (*platforms.Page, error) {
	return &platforms.Page{}, nil
}

func (c *fakeClient) GetDetail(ctx context.Context, id string) (platforms.Record, error) {
	return platforms.Record{}, nil
}

func (c *fakeClient) GetComments(ctx context.Context, id, cursor string) (*platforms.Page, error) {
	return &platforms.Page{}, nil
}

func (c *fakeClient) GetProfile(ctx context.Context, id string) (platforms.Record, error) {
	return platforms.Record{}, nil
}

func (c *fakeClient) UpdateCookies(cookieStr string, cookieMap map[string]string) {
	c.cookieStr = cookieStr
	c.updated = true
}

func testConfig() platforms.Config {
	return platforms.Config{
		ID:            "testplat",
		IndexURL:      "https://example.com",
		CookieDomains: []string{".example.com"},
		LoginCookies:  []string{"web_session"},
	}
}

// fakeClock 可手动推进的时钟，Sleep 按调用推进时间
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestStateMachine(clock *fakeClock) *StateMachine {
	return &StateMachine{
		PollInterval: 2 * time.Second,
		Timeout:      10 * time.Second,
		Now:          clock.Now,
		Sleep:        clock.Sleep,
	}
}

func TestEnsureLoggedInValidCredentials(t *testing.T) {
	driver := &fakeDriver{}
	client := &fakeClient{loggedIn: true}
	sess := &Session{Platform: "testplat", Driver: driver, Client: client, CookieStr: "web_session=abc"}

	clock := &fakeClock{now: time.Now()}
	state, err := newTestStateMachine(clock).EnsureLoggedIn(context.Background(), sess, testConfig(), true)

	require.NoError(t, err)
	assert.Equal(t, StateValid, state)
	assert.True(t, sess.IsLoggedIn)
	// 凭证有效时不应改写会话里的 cookie
	assert.Equal(t, "web_session=abc", sess.CookieStr)
}

func TestEnsureLoggedInHeadlessFailsFast(t *testing.T) {
	driver := &fakeDriver{}
	client := &fakeClient{loggedIn: false}
	sess := &Session{Platform: "testplat", Driver: driver, Client: client}

	clock := &fakeClock{now: time.Now()}
	start := clock.Now()
	state, err := newTestStateMachine(clock).EnsureLoggedIn(context.Background(), sess, testConfig(), true)

	// 无头模式下不等待、不报错，由上层决定操作是否必须登录
	require.NoError(t, err)
	assert.Equal(t, StateLoginFailed, state)
	assert.False(t, sess.IsLoggedIn)
	assert.Equal(t, start, clock.Now(), "无头模式下不应进入轮询等待")
}

func TestEnsureLoggedInInteractiveSuccess(t *testing.T) {
	driver := &fakeDriver{}
	client := &fakeClient{loggedIn: false}
	sess := &Session{Platform: "testplat", Driver: driver, Client: client}

	clock := &fakeClock{now: time.Now()}
	sm := newTestStateMachine(clock)

	// 第二次轮询前关键 cookie 出现
	calls := 0
	sm.Sleep = func(d time.Duration) {
		clock.Sleep(d)
		calls++
		if calls == 2 {
			driver.setCookies(
				&proto.NetworkCookie{Name: "web_session", Value: "fresh"},
				&proto.NetworkCookie{Name: "a1", Value: "xyz"},
			)
		}
	}

	state, err := sm.EnsureLoggedIn(context.Background(), sess, testConfig(), false)

	require.NoError(t, err)
	assert.Equal(t, StateLoggedIn, state)
	assert.True(t, sess.IsLoggedIn)
	// 新凭证回写到会话和客户端
	assert.Contains(t, sess.CookieStr, "web_session=fresh")
	assert.Equal(t, "fresh", sess.CookieMap["web_session"])
	assert.True(t, client.updated)
	assert.Equal(t, sess.CookieStr, client.cookieStr)
}

func TestEnsureLoggedInInteractiveTimeout(t *testing.T) {
	driver := &fakeDriver{}
	client := &fakeClient{loggedIn: false}
	sess := &Session{Platform: "testplat", Driver: driver, Client: client}

	clock := &fakeClock{now: time.Now()}
	state, err := newTestStateMachine(clock).EnsureLoggedIn(context.Background(), sess, testConfig(), false)

	require.Error(t, err)
	var timeoutErr *LoginTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "testplat", timeoutErr.Platform)
	assert.Equal(t, StateLoginFailed, state)
	assert.False(t, sess.IsLoggedIn)
}

func TestEnsureLoggedInScriptSignal(t *testing.T) {
	// 只有页面脚本信号命中、关键 cookie 还没出现的情况
	driver := &fakeDriver{evalResult: true}
	driver.setCookies(&proto.NetworkCookie{Name: "other", Value: "v"})
	client := &fakeClient{loggedIn: false}
	sess := &Session{Platform: "testplat", Driver: driver, Client: client}

	cfg := testConfig()
	cfg.LoginScript = `() => true`

	clock := &fakeClock{now: time.Now()}
	state, err := newTestStateMachine(clock).EnsureLoggedIn(context.Background(), sess, cfg, false)

	require.NoError(t, err)
	assert.Equal(t, StateLoggedIn, state)
	assert.True(t, sess.IsLoggedIn)
}
