// Package cookies 管理多平台、多账号的 cookie 凭证文件。
//
// 文件格式（txt）：
//   - 每行一个账号的 cookie 字符串：key1=value1; key2=value2; ...
//   - 空行和 # 开头的注释行会被忽略
//
// 示例 cookies/xhs_cookies.txt：
//
//	# Account 1 - Main
//	a1=xxx; web_session=xxx; ...
//
//	# Account 2 - Backup
//	a1=yyy; web_session=yyy; ...
package cookies

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// 平台别名到文件名的映射，未列出的平台使用 <platform>_cookies.txt
var platformFiles = map[string]string{
	"xhs":         "xhs_cookies.txt",
	"xiaohongshu": "xhs_cookies.txt",
	"weibo":       "weibo_cookies.txt",
	"wb":          "weibo_cookies.txt",
	"douyin":      "douyin_cookies.txt",
	"dy":          "douyin_cookies.txt",
	"bilibili":    "bilibili_cookies.txt",
	"bili":        "bilibili_cookies.txt",
	"kuaishou":    "kuaishou_cookies.txt",
	"ks":          "kuaishou_cookies.txt",
	"tieba":       "tieba_cookies.txt",
	"zhihu":       "zhihu_cookies.txt",
}

// GetOption 控制 GetCookie 的账号选择方式
type GetOption func(*getConfig)

type getConfig struct {
	accountIndex int
	randomSelect bool
}

// WithAccountIndex 指定账号下标（0 起始），越界时返回空字符串
func WithAccountIndex(index int) GetOption {
	return func(c *getConfig) {
		c.accountIndex = index
	}
}

// WithRandomSelect 是否在多账号中随机选择，false 时固定使用第 0 条
func WithRandomSelect(random bool) GetOption {
	return func(c *getConfig) {
		c.randomSelect = random
	}
}

// Store 从 txt 文件读取/写回多账号 cookie 记录。
//
// 并发约定：Store 自身不保证跨进程安全，同平台的写入由上层
// session.Manager 的平台锁来串行化；缓存读写在进程内是安全的。
type Store struct {
	dir string

	mu    sync.Mutex
	cache map[string][]string
}

// NewStore 创建 cookie 存储，dir 为 cookie txt 文件所在目录
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "./cookies"
	}
	return &Store{
		dir:   dir,
		cache: make(map[string][]string),
	}
}

// cookieFile 返回平台对应的 cookie 文件路径
func (s *Store) cookieFile(platform string) string {
	platform = strings.ToLower(platform)
	filename, ok := platformFiles[platform]
	if !ok {
		filename = platform + "_cookies.txt"
	}
	return filepath.Join(s.dir, filename)
}

// GetCookie 返回平台的一条 cookie 记录。
// 没有任何记录时返回空字符串；指定下标越界时也返回空字符串；
// 未指定下标时默认在多账号中随机选择一条。
func (s *Store) GetCookie(platform string, opts ...GetOption) string {
	cfg := &getConfig{accountIndex: -1, randomSelect: true}
	for _, opt := range opts {
		opt(cfg)
	}

	records := s.GetAllCookies(platform)
	if len(records) == 0 {
		return ""
	}

	if cfg.accountIndex >= 0 {
		if cfg.accountIndex < len(records) {
			return records[cfg.accountIndex]
		}
		return ""
	}

	if cfg.randomSelect {
		return records[rand.Intn(len(records))]
	}
	return records[0]
}

// GetAllCookies 返回平台的全部 cookie 记录，按文件内顺序。
// 结果按平台缓存，直到 ClearCache 或 SaveCookie 使缓存失效。
func (s *Store) GetAllCookies(platform string) []string {
	platform = strings.ToLower(platform)

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[platform]; ok {
		return cached
	}

	records := loadRecords(s.cookieFile(platform))
	s.cache[platform] = records
	return records
}

// GetAccountCount 返回平台可用的账号数量
func (s *Store) GetAccountCount(platform string) int {
	return len(s.GetAllCookies(platform))
}

// ClearCache 清空缓存，下次读取时重新加载文件
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string][]string)
}

// SaveCookie 把 cookie 字符串写回平台文件。
// accountIndex 指向的记录存在则原地覆盖，否则在文件尾部追加一条新记录。
// 输入为空或发生 I/O 错误时返回 false，从不 panic；成功后使该平台缓存失效。
func (s *Store) SaveCookie(platform, cookieStr string, accountIndex int) bool {
	cookieStr = strings.TrimSpace(cookieStr)
	if cookieStr == "" {
		return false
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		logrus.Warnf("创建 cookies 目录失败: %v", err)
		return false
	}

	path := s.cookieFile(platform)

	// 读取现有内容，记录哪些行是真正的 cookie 记录
	var lines []string
	var recordLines []int
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			lines = append(lines, line)
			if isCookieLine(line) {
				recordLines = append(recordLines, len(lines)-1)
			}
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			logrus.Warnf("读取 cookie 文件失败: %v", err)
			return false
		}
	}

	if accountIndex >= 0 && accountIndex < len(recordLines) {
		lines[recordLines[accountIndex]] = cookieStr
	} else {
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("# Account %d - Auto-saved after login", len(recordLines)+1))
		lines = append(lines, cookieStr)
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		logrus.Warnf("写入 cookie 文件失败: %v", err)
		return false
	}

	s.mu.Lock()
	delete(s.cache, strings.ToLower(platform))
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"platform": platform,
		"account":  accountIndex,
	}).Debug("cookie 已保存")
	return true
}

// CreateTemplate 为平台生成一个带说明的 cookie 模板文件，文件已存在时不覆盖
func (s *Store) CreateTemplate(platform string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	path := s.cookieFile(platform)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	template := fmt.Sprintf(`# %s Cookies
# Each line is a cookie string for one account
# Empty lines and lines starting with # are ignored
# Format: key1=value1; key2=value2; ...

# Account 1 - paste your cookie string below
# Example: a1=xxx; web_session=yyy; ...

`, strings.ToUpper(platform))

	return os.WriteFile(path, []byte(template), 0o644)
}

// loadRecords 从文件加载 cookie 记录，文件不存在时返回空
func loadRecords(path string) []string {
	records := []string{}

	f, err := os.Open(path)
	if err != nil {
		return records
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if isCookieLine(line) {
			records = append(records, line)
		}
	}

	return records
}

// isCookieLine 判断一行是否是有效的 cookie 记录
func isCookieLine(line string) bool {
	line = strings.TrimSpace(line)
	return line != "" && !strings.HasPrefix(line, "#") && strings.Contains(line, "=")
}

// ParseCookieString 把 "k1=v1; k2=v2" 形式的字符串解析为键值映射。
// 缺少 = 的片段静默丢弃，键和值两侧的空白会被去掉。
func ParseCookieString(cookieStr string) map[string]string {
	result := make(map[string]string)
	if cookieStr == "" {
		return result
	}

	for _, item := range strings.Split(cookieStr, ";") {
		item = strings.TrimSpace(item)
		idx := strings.Index(item, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(item[:idx])
		value := strings.TrimSpace(item[idx+1:])
		if key != "" {
			result[key] = value
		}
	}

	return result
}

// FormatCookieString 把键值映射还原为 "k1=v1; k2=v2" 形式，顺序不保证
func FormatCookieString(cookieMap map[string]string) string {
	pairs := make([]string, 0, len(cookieMap))
	for k, v := range cookieMap {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, "; ")
}
