package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
)

// DouyinClient 抖音客户端。
// 接口请求在页面内发起，签名参数由页面运行时自动附带。
type DouyinClient struct {
	baseClient
}

var _ Client = (*DouyinClient)(nil)
var _ CookieUpdater = (*DouyinClient)(nil)

func NewDouyinClient(driver browser.Driver, cookieStr string) *DouyinClient {
	return &DouyinClient{baseClient: newBaseClient(driver, cookieStr)}
}

// ProbeLogin 读取页面 localStorage 的登录标记
func (c *DouyinClient) ProbeLogin(ctx context.Context) (bool, error) {
	result, err := c.driver.Evaluate(`() => {
		try {
			return window.localStorage.getItem('HasUserLogin') === '1';
		} catch (e) {
			return false;
		}
	}`)
	if err != nil {
		return false, err
	}
	v, ok := result.Val().(bool)
	return ok && v, nil
}

// Search 综合搜索接口，cursor 为 offset
func (c *DouyinClient) Search(ctx context.Context, keyword, cursor string) (*Page, error) {
	offset := cursor
	if offset == "" {
		offset = "0"
	}
	searchURL := fmt.Sprintf(
		"https://www.douyin.com/aweme/v1/web/general/search/single/?keyword=%s&offset=%s&count=10&search_channel=aweme_general&sort_type=0&publish_time=0",
		url.QueryEscape(keyword), url.QueryEscape(offset),
	)
	payload, err := c.fetchJSON(searchURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	raw := getSlice(payload, "data")
	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		aweme := getMap(entry, "aweme_info")
		if aweme == nil {
			continue
		}
		record := c.normalizeAweme(aweme)
		record["keyword"] = keyword
		items = append(items, record)
	}

	logrus.WithFields(logrus.Fields{
		"keyword": keyword,
		"offset":  offset,
		"count":   len(items),
	}).Debug("抖音搜索返回一页结果")

	next := ""
	if getBool(payload, "has_more") {
		next = strconv.FormatFloat(getNum(payload, "cursor"), 'f', -1, 64)
	}
	return &Page{Items: items, NextCursor: next, HasMore: next != ""}, nil
}

func (c *DouyinClient) GetDetail(ctx context.Context, id string) (Record, error) {
	detailURL := "https://www.douyin.com/aweme/v1/web/aweme/detail/?aweme_id=" + url.QueryEscape(id)
	payload, err := c.fetchJSON(detailURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	aweme := getMap(payload, "aweme_detail")
	if aweme == nil {
		return nil, nil
	}
	return c.normalizeAweme(aweme), nil
}

// GetComments 评论列表接口，cursor 为平台返回的数字游标
func (c *DouyinClient) GetComments(ctx context.Context, id, cursor string) (*Page, error) {
	offset := cursor
	if offset == "" {
		offset = "0"
	}
	commentURL := fmt.Sprintf(
		"https://www.douyin.com/aweme/v1/web/comment/list/?aweme_id=%s&cursor=%s&count=20",
		url.QueryEscape(id), url.QueryEscape(offset),
	)
	payload, err := c.fetchJSON(commentURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	raw := getSlice(payload, "comments")
	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		comment, ok := v.(map[string]any)
		if !ok {
			continue
		}
		user := getMap(comment, "user")
		items = append(items, Record{
			"comment_id":  getString(comment, "cid"),
			"content":     getString(comment, "text"),
			"author":      getString(user, "nickname"),
			"author_id":   getString(user, "sec_uid"),
			"liked_count": getNum(comment, "digg_count"),
			"create_time": getNum(comment, "create_time"),
			"reply_count": getNum(comment, "reply_comment_total"),
		})
	}

	next := ""
	if getBool(payload, "has_more") {
		next = strconv.FormatFloat(getNum(payload, "cursor"), 'f', -1, 64)
	}
	return &Page{Items: items, NextCursor: next, HasMore: next != ""}, nil
}

func (c *DouyinClient) GetProfile(ctx context.Context, id string) (Record, error) {
	profileURL := "https://www.douyin.com/aweme/v1/web/user/profile/other/?sec_user_id=" + url.QueryEscape(id)
	payload, err := c.fetchJSON(profileURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	user := getMap(payload, "user")
	if user == nil {
		return nil, nil
	}
	return Record{
		"user_id":     getString(user, "sec_uid"),
		"nickname":    getString(user, "nickname"),
		"desc":        getString(user, "signature"),
		"ip_location": getString(user, "ip_location"),
		"fans":        getNum(user, "follower_count"),
		"follows":     getNum(user, "following_count"),
		"liked":       getNum(user, "total_favorited"),
		"aweme_count": getNum(user, "aweme_count"),
	}, nil
}

func (c *DouyinClient) normalizeAweme(aweme map[string]any) Record {
	author := getMap(aweme, "author")
	stats := getMap(aweme, "statistics")
	return Record{
		"note_id":       getString(aweme, "aweme_id"),
		"title":         getString(aweme, "desc"),
		"content":       getString(aweme, "desc"),
		"author":        getString(author, "nickname"),
		"author_id":     getString(author, "sec_uid"),
		"liked_count":   getNum(stats, "digg_count"),
		"comment_count": getNum(stats, "comment_count"),
		"share_count":   getNum(stats, "share_count"),
		"collect_count": getNum(stats, "collect_count"),
		"create_time":   getNum(aweme, "create_time"),
	}
}
