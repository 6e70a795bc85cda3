package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "media-adapter-mcp"
	serverVersion = "1.0.0"
)

// buildMCPServer 创建 MCP 服务器并注册全部工具
func (s *AppServer) buildMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_content",
		Description: "按关键词搜索平台内容。支持多关键词，总条数在关键词之间均分。platform 取值：xhs（小红书）、weibo（微博）、douyin（抖音）、bilibili（B站）。",
	}, s.handleSearchContent)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_content_detail",
		Description: "获取单条内容的详情。content_id 支持裸 ID 或分享链接。需要已登录。",
	}, s.handleGetContentDetail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_content_comments",
		Description: "获取单条内容的评论列表，翻页直到取满 limit 条。需要已登录。",
	}, s.handleGetContentComments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_user_profile",
		Description: "获取用户主页资料。user_id 支持裸 ID 或主页链接。需要已登录。",
	}, s.handleGetUserProfile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_login_status",
		Description: "检查平台的登录状态，没有会话时会创建一个。",
	}, s.handleCheckLoginStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_login_qrcode",
		Description: "获取平台登录二维码图片，扫码完成登录后凭证会自动保存。",
	}, s.handleGetLoginQrcode)

	return server
}
