package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/adapter"
)

// AppServer 应用服务器，同时暴露三种入口：
//   - GET  /health            健康检查
//   - ANY  /mcp               MCP Streamable HTTP
//   - POST /api/v1/...        REST 接口
type AppServer struct {
	service   *AdapterService
	mcpServer *mcp.Server
	engine    *gin.Engine
}

// NewAppServer 创建应用服务器
func NewAppServer(service *AdapterService) *AppServer {
	s := &AppServer{service: service}
	s.mcpServer = s.buildMCPServer()
	s.engine = s.buildEngine()
	return s
}

// Start 启动 HTTP 服务
func (s *AppServer) Start(addr string) error {
	logrus.Infof("HTTP 服务启动，监听 %s", addr)
	return s.engine.Run(addr)
}

// StartSTDIO 以 STDIO 模式运行 MCP 服务器，供 MCP 客户端直连
func (s *AppServer) StartSTDIO() error {
	defer s.service.Shutdown()
	return s.mcpServer.Run(context.Background(), &mcp.StdioTransport{})
}

func (s *AppServer) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.GET("/health", s.handleHealth)

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
	engine.Any("/mcp", gin.WrapH(mcpHandler))

	api := engine.Group("/api/v1")
	{
		api.GET("/platforms", s.handlePlatforms)
		api.POST("/search", s.handleAPISearch)
		api.POST("/detail", s.handleAPIDetail)
		api.POST("/comments", s.handleAPIComments)
		api.POST("/profile", s.handleAPIProfile)
		api.GET("/login/status", s.handleAPILoginStatus)
		api.GET("/login/qrcode", s.handleAPILoginQrcode)
	}

	return engine
}

// requestLogger 用 logrus 记录每个 HTTP 请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("http request")
	}
}

func (s *AppServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"platforms": s.service.Platforms(),
	})
}

func (s *AppServer) handlePlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": s.service.Platforms()})
}

type searchRequest struct {
	Platform string   `json:"platform" binding:"required"`
	Keywords []string `json:"keywords" binding:"required"`
	Limit    int      `json:"limit"`
}

func (s *AppServer) handleAPISearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.service.SearchContent(c.Request.Context(), req.Platform, req.Keywords, req.Limit)
	c.JSON(resultStatus(result), result)
}

type contentRequest struct {
	Platform  string `json:"platform" binding:"required"`
	ContentID string `json:"content_id" binding:"required"`
	Limit     int    `json:"limit"`
}

func (s *AppServer) handleAPIDetail(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.service.GetContentDetail(c.Request.Context(), req.Platform, req.ContentID)
	c.JSON(resultStatus(result), result)
}

func (s *AppServer) handleAPIComments(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.service.GetContentComments(c.Request.Context(), req.Platform, req.ContentID, req.Limit)
	c.JSON(resultStatus(result), result)
}

type profileRequest struct {
	Platform string `json:"platform" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
}

func (s *AppServer) handleAPIProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := s.service.GetUserProfile(c.Request.Context(), req.Platform, req.UserID)
	c.JSON(resultStatus(result), result)
}

func (s *AppServer) handleAPILoginStatus(c *gin.Context) {
	platform := c.Query("platform")
	if platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}

	status, err := s.service.CheckLoginStatus(c.Request.Context(), platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *AppServer) handleAPILoginQrcode(c *gin.Context) {
	platform := c.Query("platform")
	if platform == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}

	qrcode, err := s.service.GetLoginQrcode(c.Request.Context(), platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, qrcode)
}

// resultStatus 把操作结果映射为 HTTP 状态码：
// 调用方参数问题返回 400，平台侧失败返回 502
func resultStatus(result *adapter.ToolResult) int {
	if result.Success {
		return http.StatusOK
	}
	if result.IsInvalidRequest() {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
