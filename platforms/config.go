package platforms

// Config 平台接入配置：入口地址、UA、cookie 域名和登录信号。
// 登录信号来自两处：关键 cookie 是否出现，以及页面脚本探测的标记位；
// 平台对哪个信号先更新并不一致，任一信号命中即视为登录成功。
type Config struct {
	// ID 平台规范标识（xhs、weibo、douyin、bilibili）
	ID string

	// IndexURL 会话创建后首先导航到的入口页面
	IndexURL string

	// UserAgent 该平台要求的浏览器 UA
	UserAgent string

	// CookieDomains cookie 注入的目标域名
	CookieDomains []string

	// LoginCookies 任一出现即视为已登录的 cookie 名
	LoginCookies []string

	// LoginScript 页面内执行的登录标记探测脚本，返回布尔值；为空则跳过
	LoginScript string

	// QRCodeScript 页面内执行的脚本，返回登录二维码图片的 dataURL；为空表示不支持
	QRCodeScript string

	// InitialCursor 搜索分页的起始游标（"1" 表示页码型，"" 表示令牌型）
	InitialCursor string

	// CursorStep 页面未返回续传游标时按数字步进的步长
	CursorStep int
}

const macChromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

const mobileSafariUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"

var builtinConfigs = map[string]Config{
	"xhs": {
		ID:            "xhs",
		IndexURL:      "https://www.xiaohongshu.com/explore",
		UserAgent:     macChromeUA,
		CookieDomains: []string{".xiaohongshu.com"},
		LoginCookies:  []string{"web_session"},
		LoginScript: `() => {
			const s = window.__INITIAL_STATE__;
			if (s && s.user && s.user.loggedIn) {
				const v = s.user.loggedIn;
				return v._value !== undefined ? !!v._value : !!v;
			}
			return false;
		}`,
		QRCodeScript: `() => {
			const img = document.querySelector('.login-container .qrcode-img')
				|| document.querySelector('.qrcode img')
				|| document.querySelector('img[src^="data:image"]');
			return img ? img.src : '';
		}`,
		InitialCursor: "1",
		CursorStep:    1,
	},
	"weibo": {
		ID:            "weibo",
		IndexURL:      "https://m.weibo.cn",
		UserAgent:     mobileSafariUA,
		CookieDomains: []string{".weibo.cn", ".weibo.com"},
		LoginCookies:  []string{"SUB", "SUBP"},
		LoginScript: `() => {
			try {
				const cfg = window.config || {};
				return cfg.login === true || cfg.login === '1';
			} catch (e) { return false; }
		}`,
		InitialCursor: "1",
		CursorStep:    1,
	},
	"douyin": {
		ID:            "douyin",
		IndexURL:      "https://www.douyin.com",
		UserAgent:     macChromeUA,
		CookieDomains: []string{".douyin.com"},
		LoginCookies:  []string{"LOGIN_STATUS", "sessionid"},
		LoginScript: `() => {
			try {
				return window.localStorage.getItem('HasUserLogin') === '1';
			} catch (e) { return false; }
		}`,
		InitialCursor: "0",
		CursorStep:    10,
	},
	"bilibili": {
		ID:            "bilibili",
		IndexURL:      "https://www.bilibili.com",
		UserAgent:     macChromeUA,
		CookieDomains: []string{".bilibili.com"},
		// SESSDATA 是 HttpOnly，页面脚本探测不到，只看 cookie 信号
		LoginCookies:  []string{"SESSDATA", "bili_jct"},
		InitialCursor: "1",
		CursorStep:    1,
	},
}

// 平台别名到规范 ID 的映射
var platformAliases = map[string]string{
	"xhs":         "xhs",
	"xiaohongshu": "xhs",
	"weibo":       "weibo",
	"wb":          "weibo",
	"douyin":      "douyin",
	"dy":          "douyin",
	"bilibili":    "bilibili",
	"bili":        "bilibili",
}

// CanonicalID 把平台别名解析为规范 ID，未知平台返回原值
func CanonicalID(platform string) string {
	if id, ok := platformAliases[platform]; ok {
		return id
	}
	return platform
}
