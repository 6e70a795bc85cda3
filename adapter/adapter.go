package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/output"
	"github.com/xpzouying/media-adapter-mcp/pagination"
	"github.com/xpzouying/media-adapter-mcp/platforms"
	"github.com/xpzouying/media-adapter-mcp/session"
)

// Facade 内容采集门面，对上层暴露统一的四个操作：
// 搜索、详情、评论、用户资料。返回值都是 ToolResult 信封，
// 任何内部 panic 都会被吞掉并转换成失败结果。
type Facade struct {
	sessions *session.Manager
	loop     *pagination.Loop
	sink     *output.Sink

	// sleep 评论翻页之间的停顿实现，测试时可替换
	sleep func(time.Duration)
}

// NewFacade 创建门面。sink 为 nil 时不落盘。
func NewFacade(sessions *session.Manager, loop *pagination.Loop, sink *output.Sink) *Facade {
	return &Facade{
		sessions: sessions,
		loop:     loop,
		sink:     sink,
		sleep:    time.Sleep,
	}
}

// guard 捕获操作内部的 panic 并转换为失败结果，浏览器自动化的
// 调用链路里任何一步都可能因为页面状态意外而崩溃
func (f *Facade) guard(platform string, result **ToolResult) {
	if r := recover(); r != nil {
		logrus.Errorf("%s 操作发生 panic: %v", platform, r)
		*result = failResult(platform, fmt.Errorf("internal error: %v", r))
	}
}

// SearchContent 多关键词搜索。
//
// total 是全部关键词共享的配额。搜索允许未登录执行（部分平台对
// 游客开放搜索），但无头模式下既没有凭证又无法登录时直接失败。
// 只要采集到了内容就算成功，失败的关键词记录在 metadata 里。
func (f *Facade) SearchContent(ctx context.Context, platform string, keywords []string, total int) (result *ToolResult) {
	id := platforms.CanonicalID(platform)
	defer f.guard(id, &result)

	if len(keywords) == 0 {
		return invalidResult(id, fmt.Errorf("keywords must not be empty"))
	}
	if total <= 0 {
		total = 20
	}

	sess, cfg, err := f.acquire(ctx, id)
	if err != nil {
		return acquireFailure(id, err)
	}

	// 游客搜索可以试，但无头模式下没有任何凭证时注定失败，提前返回
	if !sess.IsLoggedIn && sess.CookieStr == "" && f.sessions.Headless() {
		return failResult(id, &session.AuthRequiredError{Platform: id})
	}

	r := f.loop.Search(ctx, sess.Client, cfg, keywords, total)

	meta := newMetadata(id)
	meta["total"] = len(r.Items)
	meta["keywords"] = keywords
	if len(r.Errors) > 0 {
		meta["keyword_errors"] = r.Errors
	}

	if len(r.Items) == 0 && len(r.Errors) > 0 {
		return &ToolResult{
			Success:  false,
			Error:    fmt.Sprintf("all keywords failed: %v", r.Errors),
			Metadata: meta,
		}
	}

	if f.sink != nil && len(r.Items) > 0 {
		if path := f.sink.SaveQuietly(id, "search", r.Items); path != "" {
			meta["saved_to"] = path
		}
	}

	return &ToolResult{Success: true, Data: r.Items, Metadata: meta}
}

// GetDetail 获取单条内容的详情，入参兼容裸 ID 和分享链接。需要登录。
func (f *Facade) GetDetail(ctx context.Context, platform, contentID string) (result *ToolResult) {
	id := platforms.CanonicalID(platform)
	defer f.guard(id, &result)

	contentID, secToken := ResolveContentID(id, contentID)
	if contentID == "" {
		return invalidResult(id, fmt.Errorf("content id must not be empty"))
	}

	sess, _, err := f.acquireLoggedIn(ctx, id)
	if err != nil {
		return acquireFailure(id, err)
	}

	registerSecToken(sess.Client, contentID, secToken)
	detail, err := sess.Client.GetDetail(ctx, contentID)
	if err != nil {
		return failResult(id, err)
	}
	if detail == nil {
		return failResult(id, fmt.Errorf("content %s not found", contentID))
	}

	if f.sink != nil {
		f.sink.SaveQuietly(id, "detail_"+contentID, detail)
	}
	return okResult(id, detail)
}

// GetComments 获取单条内容的评论，翻页直到取满 limit 条或没有更多。需要登录。
func (f *Facade) GetComments(ctx context.Context, platform, contentID string, limit int) (result *ToolResult) {
	id := platforms.CanonicalID(platform)
	defer f.guard(id, &result)

	contentID, secToken := ResolveContentID(id, contentID)
	if contentID == "" {
		return invalidResult(id, fmt.Errorf("content id must not be empty"))
	}
	if limit <= 0 {
		limit = 20
	}

	sess, _, err := f.acquireLoggedIn(ctx, id)
	if err != nil {
		return acquireFailure(id, err)
	}

	registerSecToken(sess.Client, contentID, secToken)
	var comments []platforms.Record
	cursor := ""
	for len(comments) < limit {
		if err := ctx.Err(); err != nil {
			break
		}
		page, err := sess.Client.GetComments(ctx, contentID, cursor)
		if err != nil {
			// 已取到的评论保留，翻页失败按部分成功处理
			if len(comments) > 0 {
				logrus.WithError(err).Warnf("%s 评论翻页中断", id)
				break
			}
			return failResult(id, err)
		}
		if page == nil || len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if len(comments) >= limit {
				break
			}
			comments = append(comments, item)
		}

		if !page.HasMore || page.NextCursor == "" || len(comments) >= limit {
			break
		}
		cursor = page.NextCursor
		f.sleep(configs.DefaultPolitenessDelay)
	}

	meta := newMetadata(id)
	meta["total"] = len(comments)
	meta["content_id"] = contentID

	if f.sink != nil && len(comments) > 0 {
		f.sink.SaveQuietly(id, "comments_"+contentID, comments)
	}
	return &ToolResult{Success: true, Data: comments, Metadata: meta}
}

// GetProfile 获取用户主页资料，入参兼容裸 ID 和主页链接。需要登录。
func (f *Facade) GetProfile(ctx context.Context, platform, userID string) (result *ToolResult) {
	id := platforms.CanonicalID(platform)
	defer f.guard(id, &result)

	userID = ResolveUserID(id, userID)
	if userID == "" {
		return invalidResult(id, fmt.Errorf("user id must not be empty"))
	}

	sess, _, err := f.acquireLoggedIn(ctx, id)
	if err != nil {
		return acquireFailure(id, err)
	}

	profile, err := sess.Client.GetProfile(ctx, userID)
	if err != nil {
		return failResult(id, err)
	}
	if profile == nil {
		return failResult(id, fmt.Errorf("user %s not found", userID))
	}
	return okResult(id, profile)
}

// registerSecToken 把分享链接里解析出的安全令牌交给支持的客户端，
// 小红书打开笔记页时需要附带它
func registerSecToken(client platforms.Client, contentID, token string) {
	if token == "" {
		return
	}
	if carrier, ok := client.(platforms.SecTokenCarrier); ok {
		carrier.SetSecToken(contentID, token)
	}
}

// acquireFailure 区分调用方错误和会话侧错误，前者标记为参数问题
func acquireFailure(id string, err error) *ToolResult {
	var unsupported *platforms.UnsupportedError
	if errors.As(err, &unsupported) {
		return invalidResult(id, err)
	}
	return failResult(id, err)
}

// acquire 获取平台会话和配置，不检查登录状态
func (f *Facade) acquire(ctx context.Context, id string) (*session.Session, platforms.Config, error) {
	sess, err := f.sessions.Acquire(ctx, id, false)
	if err != nil {
		return nil, platforms.Config{}, err
	}
	cfg, _, err := f.sessions.Registry().Lookup(id)
	if err != nil {
		return nil, platforms.Config{}, err
	}
	return sess, cfg, nil
}

// acquireLoggedIn 获取平台会话，要求已登录，否则返回 AuthRequiredError
func (f *Facade) acquireLoggedIn(ctx context.Context, id string) (*session.Session, platforms.Config, error) {
	sess, cfg, err := f.acquire(ctx, id)
	if err != nil {
		return nil, platforms.Config{}, err
	}
	if !sess.IsLoggedIn {
		return nil, platforms.Config{}, &session.AuthRequiredError{Platform: id}
	}
	return sess, cfg, nil
}
