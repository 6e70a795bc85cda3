package adapter

import "strings"

// ResolveContentID 把内容标识规范化为平台内部 ID。
// 入参既可以是裸 ID 也可以是分享链接，链接按各平台的 URL 结构解析，
// 相对路径形式的链接同样支持。小红书链接额外带 xsec_token，
// 其它平台该返回值为空。
//
// 小红书格式: https://www.xiaohongshu.com/explore/68e66fef...?xsec_token=ABc9...
// 微博格式:   https://m.weibo.cn/detail/4999123456789012
// 抖音格式:   https://www.douyin.com/video/7123456789012345678
// B站格式:    https://www.bilibili.com/video/BV1xx411c7mD
func ResolveContentID(platform, input string) (id, xsecToken string) {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "/") {
		return input, ""
	}

	switch platform {
	case "xhs":
		return parseXhsNoteURL(input)
	case "weibo":
		return lastPathSegment(input, "/detail/", "/status/"), ""
	case "douyin":
		return lastPathSegment(input, "/video/", "/note/"), ""
	case "bilibili":
		return lastPathSegment(input, "/video/"), ""
	}
	return input, ""
}

// ResolveUserID 把用户标识规范化为平台内部 ID，入参同样兼容裸 ID 和主页链接
func ResolveUserID(platform, input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "/") {
		return input
	}

	switch platform {
	case "xhs":
		return lastPathSegment(input, "/user/profile/")
	case "weibo":
		return lastPathSegment(input, "/u/", "/profile/")
	case "douyin":
		return lastPathSegment(input, "/user/")
	case "bilibili":
		return lastPathSegment(input, "space.bilibili.com/")
	}
	return input
}

// parseXhsNoteURL 从小红书笔记链接解析笔记 ID 和 xsec_token
func parseXhsNoteURL(urlStr string) (feedID, xsecToken string) {
	feedID = lastPathSegment(urlStr, "/explore/", "/discovery/item/")

	if strings.Contains(urlStr, "xsec_token=") {
		parts := strings.Split(urlStr, "xsec_token=")
		if len(parts) > 1 {
			tokenPart := parts[1]
			if idx := strings.Index(tokenPart, "&"); idx > 0 {
				xsecToken = tokenPart[:idx]
			} else {
				xsecToken = tokenPart
			}
		}
	}
	return feedID, xsecToken
}

// lastPathSegment 取 URL 中任一标记路径后面的一段，去掉查询参数。
// 所有标记都不匹配时返回原始输入。
func lastPathSegment(urlStr string, markers ...string) string {
	for _, marker := range markers {
		if !strings.Contains(urlStr, marker) {
			continue
		}
		parts := strings.Split(urlStr, marker)
		segment := parts[len(parts)-1]
		if idx := strings.IndexAny(segment, "?#/"); idx >= 0 {
			segment = segment[:idx]
		}
		return segment
	}
	return urlStr
}
