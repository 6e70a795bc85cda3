package adapter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"

	"github.com/xpzouying/media-adapter-mcp/browser"
	"github.com/xpzouying/media-adapter-mcp/cookies"
	"github.com/xpzouying/media-adapter-mcp/pagination"
	"github.com/xpzouying/media-adapter-mcp/platforms"
	"github.com/xpzouying/media-adapter-mcp/session"
)

// stubDriver 什么都不做的浏览器替身
type stubDriver struct{}

func (d *stubDriver) Navigate(ctx context.Context, url string) error { return nil }
func (d *stubDriver) Title() (string, error)                         { return "页面", nil }
func (d *stubDriver) Cookies() ([]*proto.NetworkCookie, error)       { return nil, nil }
func (d *stubDriver) SetCookies(cookieStr string, domains []string) error {
	return nil
}
func (d *stubDriver) Evaluate(js string) (gson.JSON, error) { return gson.New(nil), nil }
func (d *stubDriver) Close()                                {}

// stubClient 返回预设数据的平台客户端替身
type stubClient struct {
	loggedIn bool

	searchPages map[string][]*platforms.Page
	searchCalls map[string]int
	searchErrs  map[string]error

	detail       platforms.Record
	detailErr    error
	detailIDs    []string
	commentPages []*platforms.Page
	commentCall  int
	profile      platforms.Record

	secTokens map[string]string

	panicOnSearch bool
}

func (c *stubClient) SetSecToken(contentID, token string) {
	if c.secTokens == nil {
		c.secTokens = make(map[string]string)
	}
	c.secTokens[contentID] = token
}

func (c *stubClient) ProbeLogin(ctx context.Context) (bool, error) {
	return c.loggedIn, nil
}

func (c *stubClient) Search(ctx context.Context, keyword, cursor string) (*platforms.Page, error) {
	if c.panicOnSearch {
		panic("page crashed")
	}
	if err := c.searchErrs[keyword]; err != nil {
		return nil, err
	}
	if c.searchCalls == nil {
		c.searchCalls = make(map[string]int)
	}
	pages := c.searchPages[keyword]
	n := c.searchCalls[keyword]
	c.searchCalls[keyword]++
	if n >= len(pages) {
		return &platforms.Page{}, nil
	}
	return pages[n], nil
}

func (c *stubClient) GetDetail(ctx context.Context, id string) (platforms.Record, error) {
	c.detailIDs = append(c.detailIDs, id)
	return c.detail, c.detailErr
}

func (c *stubClient) GetComments(ctx context.Context, id, cursor string) (*platforms.Page, error) {
	if c.commentCall >= len(c.commentPages) {
		return &platforms.Page{}, nil
	}
	page := c.commentPages[c.commentCall]
	c.commentCall++
	return page, nil
}

func (c *stubClient) GetProfile(ctx context.Context, id string) (platforms.Record, error) {
	return c.profile, nil
}

func testPlatformConfig() platforms.Config {
	return platforms.Config{
		ID:            "testplat",
		IndexURL:      "https://example.com",
		CookieDomains: []string{".example.com"},
		InitialCursor: "1",
		CursorStep:    1,
	}
}

// newTestFacade 构造使用替身浏览器和客户端的门面
func newTestFacade(t *testing.T, client *stubClient, seedCookie string) *Facade {
	t.Helper()

	registry := platforms.NewRegistry()
	registry.Register(testPlatformConfig(), func(d browser.Driver, cookieStr string) platforms.Client {
		return client
	})

	store := cookies.NewStore(t.TempDir())
	if seedCookie != "" {
		require.True(t, store.SaveCookie("testplat", seedCookie, -1))
	}

	manager := session.NewManager(registry, store, true,
		session.WithDriverFactory(func(headless bool, userAgent string) (browser.Driver, error) {
			return &stubDriver{}, nil
		}))

	loop := &pagination.Loop{Delay: time.Millisecond, Sleep: func(time.Duration) {}}
	f := NewFacade(manager, loop, nil)
	f.sleep = func(time.Duration) {}
	return f
}

func pageOf(keyword string, n int) *platforms.Page {
	items := make([]platforms.Record, n)
	for i := range items {
		items[i] = platforms.Record{"note_id": fmt.Sprintf("%s-%d", keyword, i), "keyword": keyword}
	}
	return &platforms.Page{Items: items, HasMore: false}
}

func TestSearchContentSuccess(t *testing.T) {
	client := &stubClient{
		loggedIn:    true,
		searchPages: map[string][]*platforms.Page{"golang": {pageOf("golang", 5)}},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", []string{"golang"}, 10)

	require.True(t, result.Success, result.Error)
	items := result.Data.([]platforms.Record)
	assert.Len(t, items, 5)
	assert.Equal(t, 5, result.Metadata["total"])
	assert.NotEmpty(t, result.Metadata["request_id"])
	assert.Equal(t, "testplat", result.Metadata["platform"])
}

func TestSearchContentHeadlessWithoutCredentials(t *testing.T) {
	client := &stubClient{loggedIn: false}
	f := newTestFacade(t, client, "")

	result := f.SearchContent(context.Background(), "testplat", []string{"golang"}, 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "requires login")
}

func TestSearchContentPartialKeywordFailure(t *testing.T) {
	client := &stubClient{
		loggedIn:    true,
		searchPages: map[string][]*platforms.Page{"good": {pageOf("good", 5)}},
		searchErrs:  map[string]error{"bad": fmt.Errorf("blocked")},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", []string{"good", "bad"}, 10)

	// 拿到了内容就算成功，失败的关键词进 metadata
	require.True(t, result.Success)
	assert.Len(t, result.Data.([]platforms.Record), 5)
	errs := result.Metadata["keyword_errors"].(map[string]string)
	assert.Contains(t, errs["bad"], "blocked")
}

func TestSearchContentAllKeywordsFailed(t *testing.T) {
	client := &stubClient{
		loggedIn:   true,
		searchErrs: map[string]error{"bad": fmt.Errorf("blocked")},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", []string{"bad"}, 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "all keywords failed")
}

func TestSearchContentEmptyKeywords(t *testing.T) {
	f := newTestFacade(t, &stubClient{loggedIn: true}, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", nil, 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "keywords")
	assert.True(t, result.IsInvalidRequest())
}

func TestSearchContentRecoversFromPanic(t *testing.T) {
	client := &stubClient{loggedIn: true, panicOnSearch: true}
	f := newTestFacade(t, client, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", []string{"kw"}, 10)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "internal error")
}

func TestGetDetailRequiresLogin(t *testing.T) {
	client := &stubClient{loggedIn: false}
	f := newTestFacade(t, client, "session=abc")

	result := f.GetDetail(context.Background(), "testplat", "content-1")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "requires login")
}

func TestGetDetailSuccess(t *testing.T) {
	client := &stubClient{
		loggedIn: true,
		detail:   platforms.Record{"note_id": "content-1", "title": "标题"},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.GetDetail(context.Background(), "testplat", "content-1")

	require.True(t, result.Success, result.Error)
	detail := result.Data.(platforms.Record)
	assert.Equal(t, "标题", detail["title"])
}

func TestGetDetailNotFound(t *testing.T) {
	client := &stubClient{loggedIn: true, detail: nil}
	f := newTestFacade(t, client, "session=abc")

	result := f.GetDetail(context.Background(), "testplat", "missing")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestGetDetailThreadsShareLinkToken(t *testing.T) {
	client := &stubClient{
		loggedIn: true,
		detail:   platforms.Record{"note_id": "68e66fef0000000004023fdb"},
	}
	f := newTestFacade(t, client, "session=abc")

	// 把替身客户端再注册成小红书，走分享链接解析分支
	cfg := testPlatformConfig()
	cfg.ID = "xhs"
	f.sessions.Registry().Register(cfg, func(d browser.Driver, cookieStr string) platforms.Client {
		return client
	})

	link := "https://www.xiaohongshu.com/explore/68e66fef0000000004023fdb?xsec_token=ABc9tok=&xsec_source=pc_search"
	result := f.GetDetail(context.Background(), "xhs", link)

	require.True(t, result.Success, result.Error)
	// 客户端拿到裸 ID，链接里的令牌也要一并送达
	assert.Equal(t, []string{"68e66fef0000000004023fdb"}, client.detailIDs)
	assert.Equal(t, "ABc9tok=", client.secTokens["68e66fef0000000004023fdb"])
}

func TestGetCommentsThreadsShareLinkToken(t *testing.T) {
	client := &stubClient{
		loggedIn:     true,
		commentPages: []*platforms.Page{{Items: []platforms.Record{{"comment_id": "1"}}}},
	}
	f := newTestFacade(t, client, "session=abc")

	cfg := testPlatformConfig()
	cfg.ID = "xhs"
	f.sessions.Registry().Register(cfg, func(d browser.Driver, cookieStr string) platforms.Client {
		return client
	})

	link := "https://www.xiaohongshu.com/explore/68e66fef0000000004023fdb?xsec_token=tokB&xsec_source=pc_search"
	result := f.GetComments(context.Background(), "xhs", link, 5)

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "tokB", client.secTokens["68e66fef0000000004023fdb"])
}

func TestGetCommentsPaginatesUntilLimit(t *testing.T) {
	pages := []*platforms.Page{
		{Items: []platforms.Record{{"comment_id": "1"}, {"comment_id": "2"}}, NextCursor: "c2", HasMore: true},
		{Items: []platforms.Record{{"comment_id": "3"}, {"comment_id": "4"}}, NextCursor: "c3", HasMore: true},
		{Items: []platforms.Record{{"comment_id": "5"}}, HasMore: false},
	}
	client := &stubClient{loggedIn: true, commentPages: pages}
	f := newTestFacade(t, client, "session=abc")

	result := f.GetComments(context.Background(), "testplat", "content-1", 3)

	require.True(t, result.Success, result.Error)
	comments := result.Data.([]platforms.Record)
	assert.Len(t, comments, 3)
	assert.Equal(t, 2, client.commentCall, "取满配额后不应继续翻页")
}

func TestGetProfileSuccess(t *testing.T) {
	client := &stubClient{
		loggedIn: true,
		profile:  platforms.Record{"user_id": "u1", "nickname": "测试用户"},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.GetProfile(context.Background(), "testplat", "u1")

	require.True(t, result.Success, result.Error)
	profile := result.Data.(platforms.Record)
	assert.Equal(t, "测试用户", profile["nickname"])
}

func TestUnsupportedPlatform(t *testing.T) {
	f := newTestFacade(t, &stubClient{loggedIn: true}, "")

	result := f.SearchContent(context.Background(), "nosuch", []string{"kw"}, 10)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unsupported platform")
	assert.True(t, result.IsInvalidRequest())
}

func TestPlatformFailureIsNotInvalidRequest(t *testing.T) {
	client := &stubClient{
		loggedIn:   true,
		searchErrs: map[string]error{"bad": fmt.Errorf("blocked")},
	}
	f := newTestFacade(t, client, "session=abc")

	result := f.SearchContent(context.Background(), "testplat", []string{"bad"}, 10)

	assert.False(t, result.Success)
	assert.False(t, result.IsInvalidRequest())
}
