package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/browser"
)

// BilibiliClient B 站客户端。
// 走站内开放接口，请求在页面内发起以便复用登录态 cookie。
type BilibiliClient struct {
	baseClient
}

var _ Client = (*BilibiliClient)(nil)
var _ CookieUpdater = (*BilibiliClient)(nil)

func NewBilibiliClient(driver browser.Driver, cookieStr string) *BilibiliClient {
	return &BilibiliClient{baseClient: newBaseClient(driver, cookieStr)}
}

// ProbeLogin 请求导航接口探测凭证有效性
func (c *BilibiliClient) ProbeLogin(ctx context.Context) (bool, error) {
	payload, err := c.fetchJSON("https://api.bilibili.com/x/web-interface/nav")
	if err != nil {
		return false, err
	}
	if payload == nil {
		return false, nil
	}
	return getBool(getMap(payload, "data"), "isLogin"), nil
}

// Search 视频搜索接口，cursor 为页码
func (c *BilibiliClient) Search(ctx context.Context, keyword, cursor string) (*Page, error) {
	page := cursor
	if page == "" {
		page = "1"
	}
	searchURL := fmt.Sprintf(
		"https://api.bilibili.com/x/web-interface/search/type?search_type=video&keyword=%s&page=%s&order=totalrank",
		url.QueryEscape(keyword), url.QueryEscape(page),
	)
	payload, err := c.fetchJSON(searchURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	data := getMap(payload, "data")
	raw := getSlice(data, "result")
	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		video, ok := v.(map[string]any)
		if !ok {
			continue
		}
		record := Record{
			"note_id":       getString(video, "bvid"),
			"title":         stripKeywordTags(getString(video, "title")),
			"content":       getString(video, "description"),
			"author":        getString(video, "author"),
			"author_id":     getNum(video, "mid"),
			"play_count":    getNum(video, "play"),
			"liked_count":   getNum(video, "like"),
			"danmaku_count": getNum(video, "video_review"),
			"duration":      getString(video, "duration"),
			"create_time":   getNum(video, "pubdate"),
			"keyword":       keyword,
		}
		items = append(items, record)
	}

	logrus.WithFields(logrus.Fields{
		"keyword": keyword,
		"page":    page,
		"count":   len(items),
	}).Debug("B站搜索返回一页结果")

	// 接口返回总页数，没取满之前按页码步进
	pageNum, _ := strconv.Atoi(page)
	hasMore := len(items) > 0 && float64(pageNum) < getNum(data, "numPages")
	return &Page{Items: items, NextCursor: "", HasMore: hasMore}, nil
}

func (c *BilibiliClient) GetDetail(ctx context.Context, id string) (Record, error) {
	video, err := c.fetchView(id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, nil
	}

	owner := getMap(video, "owner")
	stat := getMap(video, "stat")
	return Record{
		"note_id":       getString(video, "bvid"),
		"aid":           getNum(video, "aid"),
		"title":         getString(video, "title"),
		"content":       getString(video, "desc"),
		"author":        getString(owner, "name"),
		"author_id":     getNum(owner, "mid"),
		"play_count":    getNum(stat, "view"),
		"liked_count":   getNum(stat, "like"),
		"coin_count":    getNum(stat, "coin"),
		"collect_count": getNum(stat, "favorite"),
		"comment_count": getNum(stat, "reply"),
		"share_count":   getNum(stat, "share"),
		"danmaku_count": getNum(stat, "danmaku"),
		"create_time":   getNum(video, "pubdate"),
	}, nil
}

// GetComments 评论区接口按 aid 分区，BV 号先换取 aid，cursor 为页码
func (c *BilibiliClient) GetComments(ctx context.Context, id, cursor string) (*Page, error) {
	oid, err := c.resolveAid(id)
	if err != nil {
		return nil, err
	}
	if oid == "" {
		return nil, nil
	}

	page := cursor
	if page == "" {
		page = "1"
	}
	commentURL := fmt.Sprintf(
		"https://api.bilibili.com/x/v2/reply?type=1&oid=%s&pn=%s&ps=20",
		url.QueryEscape(oid), url.QueryEscape(page),
	)
	payload, err := c.fetchJSON(commentURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}

	data := getMap(payload, "data")
	raw := getSlice(data, "replies")
	items := make([]Record, 0, len(raw))
	for _, v := range raw {
		reply, ok := v.(map[string]any)
		if !ok {
			continue
		}
		member := getMap(reply, "member")
		items = append(items, Record{
			"comment_id":  getNum(reply, "rpid"),
			"content":     getString(getMap(reply, "content"), "message"),
			"author":      getString(member, "uname"),
			"author_id":   getNum(member, "mid"),
			"liked_count": getNum(reply, "like"),
			"create_time": getNum(reply, "ctime"),
			"reply_count": getNum(reply, "rcount"),
		})
	}

	pageInfo := getMap(data, "page")
	num := getNum(pageInfo, "num")
	next := ""
	if num*getNum(pageInfo, "size") < getNum(pageInfo, "count") {
		next = strconv.FormatFloat(num+1, 'f', -1, 64)
	}
	return &Page{Items: items, NextCursor: next, HasMore: next != ""}, nil
}

func (c *BilibiliClient) GetProfile(ctx context.Context, id string) (Record, error) {
	infoURL := "https://api.bilibili.com/x/space/acc/info?mid=" + url.QueryEscape(id)
	payload, err := c.fetchJSON(infoURL)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	info := getMap(payload, "data")
	if info == nil {
		return nil, nil
	}

	record := Record{
		"user_id":  id,
		"nickname": getString(info, "name"),
		"desc":     getString(info, "sign"),
		"gender":   getString(info, "sex"),
		"level":    getNum(info, "level"),
	}

	// 粉丝数在关系接口里，拿不到也不影响基础资料
	statPayload, err := c.fetchJSON("https://api.bilibili.com/x/relation/stat?vmid=" + url.QueryEscape(id))
	if err == nil && statPayload != nil {
		stat := getMap(statPayload, "data")
		record["fans"] = getNum(stat, "follower")
		record["follows"] = getNum(stat, "following")
	}
	return record, nil
}

// fetchView 请求视频详情接口，BV 号和 aid 都接受
func (c *BilibiliClient) fetchView(id string) (map[string]any, error) {
	param := "aid=" + url.QueryEscape(id)
	if strings.HasPrefix(id, "BV") {
		param = "bvid=" + url.QueryEscape(id)
	}
	payload, err := c.fetchJSON("https://api.bilibili.com/x/web-interface/view?" + param)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return getMap(payload, "data"), nil
}

// resolveAid 把 BV 号换取数字 aid，已是数字 ID 时原样返回
func (c *BilibiliClient) resolveAid(id string) (string, error) {
	if !strings.HasPrefix(id, "BV") {
		return id, nil
	}
	video, err := c.fetchView(id)
	if err != nil {
		return "", err
	}
	if video == nil {
		return "", nil
	}
	return strconv.FormatFloat(getNum(video, "aid"), 'f', -1, 64), nil
}

// stripKeywordTags 去掉搜索结果标题里的命中词高亮标签
func stripKeywordTags(s string) string {
	s = strings.ReplaceAll(s, `<em class="keyword">`, "")
	return strings.ReplaceAll(s, "</em>", "")
}
