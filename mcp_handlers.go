package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/adapter"
)

// MCP 工具处理函数

// SearchContentArgs 搜索工具参数
type SearchContentArgs struct {
	Platform string `json:"platform" jsonschema:"平台标识：xhs、weibo、douyin、bilibili"`
	Keywords string `json:"keywords" jsonschema:"搜索关键词，多个用英文逗号分隔"`
	Limit    int    `json:"limit,omitempty" jsonschema:"全部关键词共享的结果条数上限，默认 20"`
}

func (s *AppServer) handleSearchContent(ctx context.Context, req *mcp.CallToolRequest, args SearchContentArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 搜索内容 - 平台: %s, 关键词: %s", args.Platform, args.Keywords)

	keywords := splitKeywords(args.Keywords)
	result := s.service.SearchContent(ctx, args.Platform, keywords, args.Limit)
	return toolResultContent(result), nil, nil
}

// splitKeywords 拆分逗号分隔的关键词，去掉空白项
func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ContentDetailArgs 详情工具参数
type ContentDetailArgs struct {
	Platform  string `json:"platform" jsonschema:"平台标识：xhs、weibo、douyin、bilibili"`
	ContentID string `json:"content_id" jsonschema:"内容 ID 或分享链接"`
}

func (s *AppServer) handleGetContentDetail(ctx context.Context, req *mcp.CallToolRequest, args ContentDetailArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 获取内容详情 - 平台: %s, 内容: %s", args.Platform, args.ContentID)

	result := s.service.GetContentDetail(ctx, args.Platform, args.ContentID)
	return toolResultContent(result), nil, nil
}

// ContentCommentsArgs 评论工具参数
type ContentCommentsArgs struct {
	Platform  string `json:"platform" jsonschema:"平台标识：xhs、weibo、douyin、bilibili"`
	ContentID string `json:"content_id" jsonschema:"内容 ID 或分享链接"`
	Limit     int    `json:"limit,omitempty" jsonschema:"评论条数上限，默认 20"`
}

func (s *AppServer) handleGetContentComments(ctx context.Context, req *mcp.CallToolRequest, args ContentCommentsArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 获取评论 - 平台: %s, 内容: %s", args.Platform, args.ContentID)

	result := s.service.GetContentComments(ctx, args.Platform, args.ContentID, args.Limit)
	return toolResultContent(result), nil, nil
}

// UserProfileArgs 用户资料工具参数
type UserProfileArgs struct {
	Platform string `json:"platform" jsonschema:"平台标识：xhs、weibo、douyin、bilibili"`
	UserID   string `json:"user_id" jsonschema:"用户 ID 或主页链接"`
}

func (s *AppServer) handleGetUserProfile(ctx context.Context, req *mcp.CallToolRequest, args UserProfileArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 获取用户资料 - 平台: %s, 用户: %s", args.Platform, args.UserID)

	result := s.service.GetUserProfile(ctx, args.Platform, args.UserID)
	return toolResultContent(result), nil, nil
}

// PlatformArgs 只带平台标识的工具参数
type PlatformArgs struct {
	Platform string `json:"platform" jsonschema:"平台标识：xhs、weibo、douyin、bilibili"`
}

func (s *AppServer) handleCheckLoginStatus(ctx context.Context, req *mcp.CallToolRequest, args PlatformArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 检查登录状态 - 平台: %s", args.Platform)

	status, err := s.service.CheckLoginStatus(ctx, args.Platform)
	if err != nil {
		return errorContent("检查登录状态失败: " + err.Error()), nil, nil
	}

	return textContent(fmt.Sprintf("登录状态检查成功: %+v", status)), nil, nil
}

func (s *AppServer) handleGetLoginQrcode(ctx context.Context, req *mcp.CallToolRequest, args PlatformArgs) (*mcp.CallToolResult, any, error) {
	logrus.Infof("MCP: 获取登录二维码 - 平台: %s", args.Platform)

	qrcode, err := s.service.GetLoginQrcode(ctx, args.Platform)
	if err != nil {
		return errorContent("获取登录二维码失败: " + err.Error()), nil, nil
	}

	if qrcode.IsLoggedIn {
		return textContent("你当前已处于登录状态"), nil, nil
	}

	payload := qrcode.Img
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return errorContent("二维码图片解码失败: " + err.Error()), nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("请用对应平台 App 在 %s 内扫码登录 👇", qrcode.Timeout)},
			&mcp.ImageContent{Data: raw, MIMEType: qrcode.MimeType},
		},
	}, nil, nil
}

// toolResultContent 把统一结果信封序列化为 MCP 文本内容
func toolResultContent(result *adapter.ToolResult) *mcp.CallToolResult {
	body, err := json.Marshal(result)
	if err != nil {
		return errorContent("序列化结果失败: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		IsError: !result.Success,
	}
}

func textContent(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorContent(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
