package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
)

// WeiboClient 微博客户端，走 m.weibo.cn 的移动端接口。
// 所有请求都在页面内发起，复用页面会话。
type WeiboClient struct {
	baseClient
}

var _ Client = (*WeiboClient)(nil)
var _ CookieUpdater = (*WeiboClient)(nil)

func NewWeiboClient(driver browser.Driver, cookieStr string) *WeiboClient {
	return &WeiboClient{baseClient: newBaseClient(driver, cookieStr)}
}

func (c *WeiboClient) ProbeLogin(ctx context.Context) (bool, error) {
	payload, err := c.fetchJSON("https://m.weibo.cn/api/config")
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	data := getMap(payload, "data")
	return getBool(data, "login"), nil
}

// Search 搜索综合频道，cursor 为页码
func (c *WeiboClient) Search(ctx context.Context, keyword, cursor string) (*Page, error) {
	containerID := url.QueryEscape("100103type=1&q=" + keyword)
	searchURL := fmt.Sprintf(
		"https://m.weibo.cn/api/container/getIndex?containerid=%s&page_type=searchall&page=%s",
		containerID, cursor,
	)
	payload, err := c.fetchJSON(searchURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	data := getMap(payload, "data")
	cards := getSlice(data, "cards")

	items := make([]Record, 0, len(cards))
	for _, v := range cards {
		card, ok := v.(map[string]any)
		if !ok {
			continue
		}
		// card_type 9 为微博正文卡片，其余是话题、用户等聚合卡
		if getNum(card, "card_type") != 9 {
			continue
		}
		mblog := getMap(card, "mblog")
		if mblog == nil {
			continue
		}
		items = append(items, c.normalizeBlog(mblog, keyword))
	}

	logrus.WithFields(logrus.Fields{
		"keyword": keyword,
		"page":    cursor,
		"count":   len(items),
	}).Debug("微博搜索返回一页结果")

	return &Page{Items: items, NextCursor: "", HasMore: len(items) > 0}, nil
}

func (c *WeiboClient) GetDetail(ctx context.Context, id string) (Record, error) {
	payload, err := c.fetchJSON("https://m.weibo.cn/statuses/show?id=" + url.QueryEscape(id))
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	data := getMap(payload, "data")
	if data == nil {
		return nil, nil
	}
	return c.normalizeBlog(data, ""), nil
}

// GetComments 热评流接口，cursor 为 max_id
func (c *WeiboClient) GetComments(ctx context.Context, id, cursor string) (*Page, error) {
	maxID := cursor
	if maxID == "" {
		maxID = "0"
	}
	commentURL := fmt.Sprintf(
		"https://m.weibo.cn/comments/hotflow?id=%s&mid=%s&max_id=%s&max_id_type=0",
		url.QueryEscape(id), url.QueryEscape(id), url.QueryEscape(maxID),
	)
	payload, err := c.fetchJSON(commentURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	data := getMap(payload, "data")
	raw := getSlice(data, "data")

	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		comment, ok := v.(map[string]any)
		if !ok {
			continue
		}
		user := getMap(comment, "user")
		items = append(items, Record{
			"comment_id":  getNum(comment, "id"),
			"content":     getString(comment, "text"),
			"author":      getString(user, "screen_name"),
			"author_id":   getNum(user, "id"),
			"liked_count": getNum(comment, "like_count"),
			"create_time": getString(comment, "created_at"),
		})
	}

	nextMaxID := getNum(data, "max_id")
	next := ""
	if nextMaxID > 0 {
		next = strconv.FormatFloat(nextMaxID, 'f', -1, 64)
	}
	return &Page{Items: items, NextCursor: next, HasMore: next != ""}, nil
}

func (c *WeiboClient) GetProfile(ctx context.Context, id string) (Record, error) {
	profileURL := fmt.Sprintf(
		"https://m.weibo.cn/api/container/getIndex?type=uid&value=%s",
		url.QueryEscape(id),
	)
	payload, err := c.fetchJSON(profileURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	data := getMap(payload, "data")
	user := getMap(data, "userInfo")
	if user == nil {
		return nil, nil
	}
	return Record{
		"user_id":       getNum(user, "id"),
		"nickname":      getString(user, "screen_name"),
		"desc":          getString(user, "description"),
		"gender":        getString(user, "gender"),
		"fans":          getNum(user, "followers_count"),
		"follows":       getNum(user, "follow_count"),
		"statuses":      getNum(user, "statuses_count"),
		"verified":      getBool(user, "verified"),
		"verified_desc": getString(user, "verified_reason"),
	}, nil
}

func (c *WeiboClient) normalizeBlog(mblog map[string]any, keyword string) Record {
	user := getMap(mblog, "user")
	record := Record{
		"note_id":       getString(mblog, "id"),
		"content":       getString(mblog, "text"),
		"author":        getString(user, "screen_name"),
		"author_id":     getNum(user, "id"),
		"liked_count":   getNum(mblog, "attitudes_count"),
		"comment_count": getNum(mblog, "comments_count"),
		"repost_count":  getNum(mblog, "reposts_count"),
		"create_time":   getString(mblog, "created_at"),
		"source":        getString(mblog, "source"),
		"is_long_text":  getBool(mblog, "isLongText"),
	}
	if keyword != "" {
		record["keyword"] = keyword
	}
	if pics := getSlice(mblog, "pics"); len(pics) > 0 {
		record["pic_count"] = len(pics)
	}
	return record
}
