package pagination

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/platforms"
)

// Loop 多关键词分页采集循环。
//
// 总配额在关键词之间均分（整除，余数丢弃），每个关键词独立翻页，
// 单个关键词的失败只记录错误不中断其它关键词。页与页之间有礼貌性
// 停顿，避免触发平台风控。
type Loop struct {
	// Delay 翻页之间的停顿时长
	Delay time.Duration

	// Sleep 停顿的实现，测试时可替换
	Sleep func(time.Duration)
}

// NewLoop 使用默认停顿参数创建采集循环
func NewLoop() *Loop {
	return &Loop{
		Delay: configs.DefaultPolitenessDelay,
		Sleep: time.Sleep,
	}
}

// KeywordFetchError 单个关键词的采集失败，不影响其它关键词
type KeywordFetchError struct {
	Keyword string
	Err     error
}

func (e *KeywordFetchError) Error() string {
	return fmt.Sprintf("fetch keyword %q: %v", e.Keyword, e.Err)
}

func (e *KeywordFetchError) Unwrap() error {
	return e.Err
}

// Result 一次多关键词采集的结果
type Result struct {
	// Items 按采集顺序汇总的记录，总数不超过请求的配额
	Items []platforms.Record

	// Errors 采集失败的关键词到错误信息的映射
	Errors map[string]string
}

// Search 对每个关键词执行分页搜索并汇总结果。
//
// total 是全部关键词共享的配额，按 total/len(keywords) 均分；
// 均分结果为 0 时该关键词不会采集任何内容。游标优先使用平台返回的
// 续传令牌，没有令牌时按平台配置的数字步长推进。
func (l *Loop) Search(ctx context.Context, client platforms.Client, cfg platforms.Config, keywords []string, total int) *Result {
	result := &Result{Errors: make(map[string]string)}
	if len(keywords) == 0 || total <= 0 {
		return result
	}

	perKeyword := total / len(keywords)

	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			result.Errors[keyword] = err.Error()
			continue
		}

		items, err := l.searchKeyword(ctx, client, cfg, keyword, perKeyword)
		result.Items = append(result.Items, items...)
		if err != nil {
			// 单关键词失败不影响其它关键词，已取到的部分保留
			kerr := &KeywordFetchError{Keyword: keyword, Err: err}
			logrus.WithError(kerr).Warn("关键词采集失败")
			result.Errors[keyword] = err.Error()
		}
	}

	if len(result.Items) > total {
		result.Items = result.Items[:total]
	}
	return result
}

// searchKeyword 对单个关键词翻页直到配额用尽或平台没有更多结果
func (l *Loop) searchKeyword(ctx context.Context, client platforms.Client, cfg platforms.Config, keyword string, budget int) ([]platforms.Record, error) {
	var items []platforms.Record
	cursor := cfg.InitialCursor

	for len(items) < budget {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		page, err := client.Search(ctx, keyword, cursor)
		if err != nil {
			return items, err
		}
		if page == nil || len(page.Items) == 0 {
			break
		}

		for _, item := range page.Items {
			if len(items) >= budget {
				break
			}
			items = append(items, item)
		}

		if !page.HasMore || len(items) >= budget {
			break
		}

		cursor = l.nextCursor(cursor, page.NextCursor, cfg.CursorStep)
		l.Sleep(l.Delay)
	}

	logrus.WithFields(logrus.Fields{
		"keyword": keyword,
		"count":   len(items),
		"budget":  budget,
	}).Debug("关键词采集完成")
	return items, nil
}

// nextCursor 计算下一页游标：平台给了续传令牌就用令牌，
// 没有则把当前游标当数字按步长推进
func (l *Loop) nextCursor(current, next string, step int) string {
	if next != "" {
		return next
	}
	n, err := strconv.Atoi(current)
	if err != nil {
		return current
	}
	return strconv.Itoa(n + step)
}
