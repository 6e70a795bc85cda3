package platforms

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
)

// XhsClient 小红书客户端。
// 搜索和详情通过页面的 window.__INITIAL_STATE__ 读取，
// 评论走页面内 fetch，由页面运行时补全签名参数。
type XhsClient struct {
	baseClient

	mu        sync.Mutex
	secTokens map[string]string
}

var _ Client = (*XhsClient)(nil)
var _ CookieUpdater = (*XhsClient)(nil)
var _ SecTokenCarrier = (*XhsClient)(nil)

func NewXhsClient(driver browser.Driver, cookieStr string) *XhsClient {
	return &XhsClient{
		baseClient: newBaseClient(driver, cookieStr),
		secTokens:  make(map[string]string),
	}
}

// SetSecToken 登记笔记对应的 xsec_token。
// 缺少令牌时直接打开笔记页通常拿不到内容。
func (c *XhsClient) SetSecToken(contentID, token string) {
	if contentID == "" || token == "" {
		return
	}
	c.mu.Lock()
	c.secTokens[contentID] = token
	c.mu.Unlock()
}

func (c *XhsClient) secToken(contentID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secTokens[contentID]
}

// ProbeLogin 请求自身信息接口探测凭证有效性
func (c *XhsClient) ProbeLogin(ctx context.Context) (bool, error) {
	payload, err := c.fetchJSON("https://edith.xiaohongshu.com/api/sns/web/v2/user/me")
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	data := getMap(payload, "data")
	return getBool(payload, "success") && !getBool(data, "guest"), nil
}

// Search 打开搜索结果页并从 __INITIAL_STATE__ 提取一页笔记
func (c *XhsClient) Search(ctx context.Context, keyword, cursor string) (*Page, error) {
	searchURL := fmt.Sprintf(
		"https://www.xiaohongshu.com/search_result?keyword=%s&source=web_explore_feed&page=%s",
		url.QueryEscape(keyword), cursor,
	)
	if err := c.driver.Navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	// 只提取需要的字段，避免序列化整个 __INITIAL_STATE__ 时的循环引用
	var feeds []map[string]any
	err := c.evalJSON(`() => {
		const s = window.__INITIAL_STATE__;
		if (s && s.search && s.search.feeds && s.search.feeds._value) {
			return JSON.stringify(s.search.feeds._value.map(feed => ({
				id: feed.id,
				model_type: feed.modelType,
				xsec_token: feed.xsecToken,
				note_card: feed.noteCard
			})));
		}
		return "";
	}`, &feeds)
	if err != nil {
		return nil, err
	}

	items := make([]Record, 0, len(feeds))
	for _, feed := range feeds {
		// 过滤推荐词、热搜词等非笔记卡片
		modelType := getString(feed, "model_type")
		if modelType == "rec_query" || modelType == "hot_query" {
			continue
		}

		noteCard := getMap(feed, "note_card")
		user := getMap(noteCard, "user")
		interact := getMap(noteCard, "interact_info")

		// 记下搜索结果携带的令牌，后续按 ID 取详情时附带
		c.SetSecToken(getString(feed, "id"), getString(feed, "xsec_token"))

		items = append(items, Record{
			"note_id":         getString(feed, "id"),
			"title":           getString(noteCard, "displayTitle"),
			"desc":            getString(noteCard, "desc"),
			"author":          getString(user, "nickname"),
			"author_id":       getString(user, "userId"),
			"liked_count":     getString(interact, "likedCount"),
			"collected_count": getString(interact, "collectedCount"),
			"comment_count":   getString(interact, "commentCount"),
			"type":            getString(noteCard, "type"),
			"keyword":         keyword,
			"xsec_token":      getString(feed, "xsec_token"),
		})
	}

	logrus.WithFields(logrus.Fields{
		"keyword": keyword,
		"page":    cursor,
		"count":   len(items),
	}).Debug("小红书搜索返回一页结果")

	// 搜索页没有显式的续传游标，按页码步进
	return &Page{Items: items, NextCursor: "", HasMore: len(items) > 0}, nil
}

// GetDetail 打开笔记页并从 __INITIAL_STATE__ 提取详情
func (c *XhsClient) GetDetail(ctx context.Context, id string) (Record, error) {
	noteURL := "https://www.xiaohongshu.com/explore/" + url.PathEscape(id)
	if token := c.secToken(id); token != "" {
		noteURL += "?xsec_token=" + url.QueryEscape(token) + "&xsec_source=pc_feed"
	}
	if err := c.driver.Navigate(ctx, noteURL); err != nil {
		return nil, err
	}

	var note map[string]any
	err := c.evalJSON(fmt.Sprintf(`() => {
		const s = window.__INITIAL_STATE__;
		if (s && s.note && s.note.noteDetailMap) {
			const m = s.note.noteDetailMap._value || s.note.noteDetailMap;
			const entry = m[%q];
			if (entry && entry.note) {
				return JSON.stringify(entry.note);
			}
		}
		return "";
	}`, id), &note)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	user := getMap(note, "user")
	interact := getMap(note, "interactInfo")
	return Record{
		"note_id":         id,
		"title":           getString(note, "title"),
		"desc":            getString(note, "desc"),
		"content":         getString(note, "desc"),
		"author":          getString(user, "nickname"),
		"author_id":       getString(user, "userId"),
		"liked_count":     getString(interact, "likedCount"),
		"collected_count": getString(interact, "collectedCount"),
		"comment_count":   getString(interact, "commentCount"),
		"share_count":     getString(interact, "shareCount"),
		"create_time":     getNum(note, "time"),
		"image_list":      getSlice(note, "imageList"),
		"tag_list":        getSlice(note, "tagList"),
	}, nil
}

// GetComments 页面内请求评论接口，cursor 为平台返回的续传令牌
func (c *XhsClient) GetComments(ctx context.Context, id, cursor string) (*Page, error) {
	commentURL := fmt.Sprintf(
		"https://edith.xiaohongshu.com/api/sns/web/v2/comment/page?note_id=%s&cursor=%s&top_comment_id=&image_formats=jpg,webp,avif",
		url.QueryEscape(id), url.QueryEscape(cursor),
	)
	payload, err := c.fetchJSON(commentURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	data := getMap(payload, "data")
	raw := getSlice(data, "comments")

	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		comment, ok := v.(map[string]any)
		if !ok {
			continue
		}
		user := getMap(comment, "user_info")
		items = append(items, Record{
			"comment_id":        getString(comment, "id"),
			"content":           getString(comment, "content"),
			"author":            getString(user, "nickname"),
			"author_id":         getString(user, "user_id"),
			"liked_count":       getString(comment, "like_count"),
			"create_time":       getNum(comment, "create_time"),
			"sub_comment_count": getString(comment, "sub_comment_count"),
		})
	}

	return &Page{
		Items:      items,
		NextCursor: getString(data, "cursor"),
		HasMore:    getBool(data, "has_more"),
	}, nil
}

// GetProfile 打开用户主页并从 __INITIAL_STATE__ 提取资料
func (c *XhsClient) GetProfile(ctx context.Context, id string) (Record, error) {
	profileURL := "https://www.xiaohongshu.com/user/profile/" + url.PathEscape(id)
	if err := c.driver.Navigate(ctx, profileURL); err != nil {
		return nil, err
	}

	var info map[string]any
	err := c.evalJSON(`() => {
		const s = window.__INITIAL_STATE__;
		if (s && s.user && s.user.userPageData) {
			const v = s.user.userPageData._value || s.user.userPageData;
			return JSON.stringify(v);
		}
		return "";
	}`, &info)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	basic := getMap(info, "basicInfo")
	interactions := getSlice(info, "interactions")

	record := Record{
		"user_id":     id,
		"nickname":    getString(basic, "nickname"),
		"desc":        getString(basic, "desc"),
		"gender":      getNum(basic, "gender"),
		"ip_location": getString(basic, "ipLocation"),
	}
	for _, v := range interactions {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		switch getString(item, "type") {
		case "follows":
			record["follows"] = getString(item, "count")
		case "fans":
			record["fans"] = getString(item, "count")
		case "interaction":
			record["interaction"] = getString(item, "count")
		}
	}
	return record, nil
}
