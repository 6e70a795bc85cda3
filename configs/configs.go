package configs

import "time"

// 全局运行配置。进程启动时由 main 初始化一次，之后只读。
var (
	headless bool
	binPath  string

	cookiesDir = "./cookies"
	outputDir  = "./output"
)

// 分页与登录相关的默认参数。
const (
	// DefaultPolitenessDelay 翻页之间的礼貌性停顿，避免触发风控
	DefaultPolitenessDelay = 2 * time.Second

	// DefaultLoginPollInterval 扫码登录轮询间隔
	DefaultLoginPollInterval = 2 * time.Second

	// DefaultLoginTimeout 扫码登录等待上限
	DefaultLoginTimeout = 600 * time.Second
)

// InitHeadless 初始化无头模式配置
func InitHeadless(h bool) {
	headless = h
}

// IsHeadless 是否无头模式
func IsHeadless() bool {
	return headless
}

// SetBinPath 设置浏览器二进制文件路径
func SetBinPath(path string) {
	binPath = path
}

// GetBinPath 获取浏览器二进制文件路径
func GetBinPath() string {
	return binPath
}

// SetCookiesDir 设置 cookies 文件目录
func SetCookiesDir(dir string) {
	if dir != "" {
		cookiesDir = dir
	}
}

// GetCookiesDir 获取 cookies 文件目录
func GetCookiesDir() string {
	return cookiesDir
}

// SetOutputDir 设置结果输出目录
func SetOutputDir(dir string) {
	if dir != "" {
		outputDir = dir
	}
}

// GetOutputDir 获取结果输出目录
func GetOutputDir() string {
	return outputDir
}
