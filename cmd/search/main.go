package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/adapter"
	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/cookies"
	"github.com/xpzouying/media-adapter-mcp/output"
	"github.com/xpzouying/media-adapter-mcp/pagination"
	"github.com/xpzouying/media-adapter-mcp/platforms"
	"github.com/xpzouying/media-adapter-mcp/session"
)

// platformResult 单个平台的搜索结果
type platformResult struct {
	Platform string
	Result   *adapter.ToolResult
}

// 这个 CLI 程序用于直接从命令行对多个平台并行执行关键词搜索，
// 复用服务层的采集逻辑，而不依赖 MCP 客户端。
func main() {
	var (
		headless     bool
		binPath      string
		platformList string
		keywordList  string
		limit        int
		cookiesDir   string
		outputDir    string
		timeout      int
	)

	flag.BoolVar(&headless, "headless", false, "是否无头模式，默认 false（有界面，便于扫码登录）")
	flag.StringVar(&binPath, "bin", "", "浏览器二进制文件路径（可选，不传则使用 ROD_BROWSER_BIN 环境变量）")
	flag.StringVar(&platformList, "platforms", "xhs", "平台列表，逗号分隔，如 xhs,weibo,bilibili")
	flag.StringVar(&keywordList, "keywords", "", "关键词列表，逗号分隔")
	flag.IntVar(&limit, "limit", 20, "每个平台的结果条数上限")
	flag.StringVar(&cookiesDir, "cookies-dir", "", "cookie 文件目录，默认 ./cookies")
	flag.StringVar(&outputDir, "output-dir", "", "采集结果输出目录，默认 ./output")
	flag.IntVar(&timeout, "timeout", 15, "整体超时时间（分钟）")
	flag.Parse()

	keywords := splitList(keywordList)
	if len(keywords) == 0 {
		fmt.Fprintln(os.Stderr, "用法: search -platforms xhs,weibo -keywords 关键词1,关键词2")
		os.Exit(2)
	}
	targets := splitList(platformList)

	if len(binPath) == 0 {
		binPath = os.Getenv("ROD_BROWSER_BIN")
	}
	if headless {
		logrus.Warn("当前以无头模式运行，首次登录时可能无法扫码，建议第一次使用时 headless=false")
	}

	configs.InitHeadless(headless)
	configs.SetBinPath(binPath)
	configs.SetCookiesDir(cookiesDir)
	configs.SetOutputDir(outputDir)

	registry := platforms.NewRegistry()
	store := cookies.NewStore(configs.GetCookiesDir())
	sessions := session.NewManager(registry, store, headless)
	defer sessions.CloseAll()

	sink := output.NewSink(configs.GetOutputDir())
	facade := adapter.NewFacade(sessions, pagination.NewLoop(), sink)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Minute)
	defer cancel()

	logrus.Infof("开始并行搜索，平台=%v，关键词=%v，每平台上限=%d", targets, keywords, limit)

	// 每个平台一个 goroutine，平台之间互不阻塞
	results := make([]*platformResult, len(targets))
	var wg sync.WaitGroup
	for i, platform := range targets {
		idx := i
		p := platform
		results[idx] = &platformResult{Platform: p}

		wg.Add(1)
		go func(res *platformResult) {
			defer wg.Done()
			res.Result = facade.SearchContent(ctx, res.Platform, keywords, limit)
		}(results[idx])
	}
	wg.Wait()

	var successCount int
	for _, res := range results {
		if res.Result != nil && res.Result.Success {
			successCount++
		}
	}

	printResults(results)

	if successCount == 0 {
		logrus.Fatal("所有平台均未取到结果，请检查登录状态或网络情况")
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// printResults 以对齐表格输出各平台的结果概要和内容标题。
// 标题里常混有中英文，宽度用 runewidth 计算才能对齐。
func printResults(results []*platformResult) {
	for _, res := range results {
		fmt.Println()
		if res.Result == nil || !res.Result.Success {
			errMsg := "未知错误"
			if res.Result != nil {
				errMsg = res.Result.Error
			}
			fmt.Printf("== %s 搜索失败: %s\n", res.Platform, errMsg)
			continue
		}

		items, _ := res.Result.Data.([]platforms.Record)
		fmt.Printf("== %s 共 %d 条\n", res.Platform, len(items))

		rows := make([][3]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, [3]string{
				recordField(item, "note_id"),
				firstNonEmpty(recordField(item, "title"), recordField(item, "content")),
				recordField(item, "author"),
			})
		}
		printTable(rows)
	}
}

func printTable(rows [][3]string) {
	headers := [3]string{"ID", "标题", "作者"}
	widths := [3]int{}
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for i := range rows {
		for j, cell := range rows[i] {
			rows[i][j] = runewidth.Truncate(cell, 40, "…")
			if w := runewidth.StringWidth(rows[i][j]); w > widths[j] {
				widths[j] = w
			}
		}
	}

	printRow := func(cells [3]string) {
		parts := make([]string, 3)
		for j, cell := range cells {
			parts[j] = cell + strings.Repeat(" ", widths[j]-runewidth.StringWidth(cell))
		}
		fmt.Println("  " + strings.Join(parts, "  "))
	}

	printRow(headers)
	for _, row := range rows {
		printRow(row)
	}
}

func recordField(record platforms.Record, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
