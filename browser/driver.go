package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xpzouying/headless_browser"
	"github.com/ysmood/gson"

	"github.com/xpzouying/media-adapter-mcp/cookies"
)

// Driver 是会话层和平台客户端消费的浏览器能力抽象。
// 所有方法都可能因为底层 I/O 失败而返回错误，调用方按通用 I/O 错误处理。
type Driver interface {
	// Navigate 导航到指定 URL 并等待页面加载完成
	Navigate(ctx context.Context, url string) error

	// Title 读取当前页面标题，用作廉价的存活探测
	Title() (string, error)

	// Cookies 读取浏览器当前的全部 cookie
	Cookies() ([]*proto.NetworkCookie, error)

	// SetCookies 把 "k=v; k=v" 形式的 cookie 字符串注入到指定域名下
	SetCookies(cookieStr string, domains []string) error

	// Evaluate 在当前页面执行 JS 并返回结果
	Evaluate(js string) (gson.JSON, error)

	// Close 释放浏览器资源，清理路径，错误只记录不上抛
	Close()
}

// RodDriver 基于 go-rod 的 Driver 实现，独占一个浏览器实例和一个页面
type RodDriver struct {
	browser *headless_browser.Browser
	page    *rod.Page
}

var _ Driver = (*RodDriver)(nil)

// NewRodDriver 启动浏览器并打开一个配置好的页面。
// 启动失败（找不到浏览器、连接失败等）返回错误而不是 panic。
func NewRodDriver(headless bool, userAgent string, options ...Option) (d *RodDriver, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("launch browser: %v", r)
		}
	}()

	b := NewBrowser(headless, options...)
	page := b.NewPage()
	ConfigurePage(page, userAgent)

	return &RodDriver{browser: b, page: page}, nil
}

// Page 返回底层页面，仅供平台客户端做页面级操作
func (d *RodDriver) Page() *rod.Page {
	return d.page
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return errors.Wrapf(err, "navigate to %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return errors.Wrapf(err, "wait load %s", url)
	}
	return nil
}

func (d *RodDriver) Title() (string, error) {
	info, err := d.page.Info()
	if err != nil {
		return "", errors.Wrap(err, "get page info")
	}
	return info.Title, nil
}

func (d *RodDriver) Cookies() ([]*proto.NetworkCookie, error) {
	cks, err := d.page.Browser().GetCookies()
	if err != nil {
		return nil, errors.Wrap(err, "get browser cookies")
	}
	return cks, nil
}

func (d *RodDriver) SetCookies(cookieStr string, domains []string) error {
	cookieMap := cookies.ParseCookieString(cookieStr)
	if len(cookieMap) == 0 {
		return nil
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookieMap)*len(domains))
	for _, domain := range domains {
		for name, value := range cookieMap {
			params = append(params, &proto.NetworkCookieParam{
				Name:   name,
				Value:  value,
				Domain: domain,
				Path:   "/",
			})
		}
	}

	if err := d.page.Browser().SetCookies(params); err != nil {
		return errors.Wrap(err, "set browser cookies")
	}
	return nil
}

func (d *RodDriver) Evaluate(js string) (gson.JSON, error) {
	obj, err := d.page.Eval(js)
	if err != nil {
		return gson.New(nil), errors.Wrap(err, "evaluate script")
	}
	return obj.Value, nil
}

// Close 先关页面再关浏览器，关闭过程中的错误只记录
func (d *RodDriver) Close() {
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			logrus.Debugf("关闭页面失败: %v", err)
		}
	}
	if d.browser != nil {
		d.browser.Close()
	}
}

// CookieString 把浏览器 cookie 列表转成 "k=v; k=v" 字符串和键值映射
func CookieString(cks []*proto.NetworkCookie) (string, map[string]string) {
	cookieMap := make(map[string]string, len(cks))
	parts := make([]string, 0, len(cks))
	for _, ck := range cks {
		if ck.Name == "" {
			continue
		}
		if _, ok := cookieMap[ck.Name]; ok {
			continue
		}
		cookieMap[ck.Name] = ck.Value
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; "), cookieMap
}
