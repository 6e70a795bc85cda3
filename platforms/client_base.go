package platforms

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/xpzouying/media-adapter-mcp/browser"
	"github.com/xpzouying/media-adapter-mcp/cookies"
)

// baseClient 各平台客户端的公共部分：独占的浏览器 driver 和当前凭证。
// 所有请求都在页面内通过 fetch 发起，由页面自身的运行时补全签名参数，
// Go 侧从不计算平台的加密参数。
type baseClient struct {
	driver    browser.Driver
	cookieStr string
	cookieMap map[string]string
}

func newBaseClient(driver browser.Driver, cookieStr string) baseClient {
	return baseClient{
		driver:    driver,
		cookieStr: cookieStr,
		cookieMap: cookies.ParseCookieString(cookieStr),
	}
}

// UpdateCookies 登录成功后刷新客户端持有的凭证
func (c *baseClient) UpdateCookies(cookieStr string, cookieMap map[string]string) {
	c.cookieStr = cookieStr
	c.cookieMap = cookieMap
}

// fetchJSON 在当前页面内对同源 URL 发起 fetch 并解析 JSON 响应。
// 请求同源且由页面自动携带会话 cookie，无需在 Go 侧构造请求头。
func (c *baseClient) fetchJSON(url string) (map[string]any, error) {
	js := fmt.Sprintf(`() => fetch(%q, {
		headers: {"accept": "application/json, text/plain, */*"},
	}).then(r => r.ok ? r.text() : "").catch(() => "")`, url)

	result, err := c.driver.Evaluate(js)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", url)
	}

	body := result.Str()
	if body == "" {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, errors.Wrapf(err, "unmarshal response of %s", url)
	}
	return payload, nil
}

// evalJSON 在页面内执行脚本，期望返回 JSON 字符串并解析
func (c *baseClient) evalJSON(js string, out any) error {
	result, err := c.driver.Evaluate(js)
	if err != nil {
		return err
	}
	body := result.Str()
	if body == "" {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

// 下面是解析平台响应时使用的轻量取值辅助

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].([]any); ok {
		return v
	}
	return nil
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	}
	return ""
}

func getBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func getNum(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}
