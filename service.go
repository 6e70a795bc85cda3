package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/media-adapter-mcp/adapter"
	"github.com/xpzouying/media-adapter-mcp/configs"
	"github.com/xpzouying/media-adapter-mcp/cookies"
	"github.com/xpzouying/media-adapter-mcp/output"
	"github.com/xpzouying/media-adapter-mcp/pagination"
	"github.com/xpzouying/media-adapter-mcp/platforms"
	"github.com/xpzouying/media-adapter-mcp/session"
)

// AdapterService 服务层，组装平台注册表、会话管理和采集门面，
// 供 MCP、HTTP、CLI 三种入口复用。
type AdapterService struct {
	registry *platforms.Registry
	sessions *session.Manager
	store    *cookies.Store
	facade   *adapter.Facade
}

// NewAdapterService 按全局配置组装服务
func NewAdapterService() *AdapterService {
	registry := platforms.NewRegistry()
	store := cookies.NewStore(configs.GetCookiesDir())
	sessions := session.NewManager(registry, store, configs.IsHeadless())
	sink := output.NewSink(configs.GetOutputDir())

	return &AdapterService{
		registry: registry,
		sessions: sessions,
		store:    store,
		facade:   adapter.NewFacade(sessions, pagination.NewLoop(), sink),
	}
}

// Platforms 返回支持的平台列表
func (s *AdapterService) Platforms() []string {
	return s.registry.Platforms()
}

// SearchContent 多关键词搜索
func (s *AdapterService) SearchContent(ctx context.Context, platform string, keywords []string, limit int) *adapter.ToolResult {
	return s.facade.SearchContent(ctx, platform, keywords, limit)
}

// GetContentDetail 获取内容详情
func (s *AdapterService) GetContentDetail(ctx context.Context, platform, contentID string) *adapter.ToolResult {
	return s.facade.GetDetail(ctx, platform, contentID)
}

// GetContentComments 获取内容评论
func (s *AdapterService) GetContentComments(ctx context.Context, platform, contentID string, limit int) *adapter.ToolResult {
	return s.facade.GetComments(ctx, platform, contentID, limit)
}

// GetUserProfile 获取用户资料
func (s *AdapterService) GetUserProfile(ctx context.Context, platform, userID string) *adapter.ToolResult {
	return s.facade.GetProfile(ctx, platform, userID)
}

// LoginStatus 登录状态检查结果
type LoginStatus struct {
	Platform     string    `json:"platform"`
	IsLoggedIn   bool      `json:"is_logged_in"`
	AccountIndex int       `json:"account_index"`
	AccountCount int       `json:"account_count"`
	CreatedAt    time.Time `json:"session_created_at"`
}

// CheckLoginStatus 检查平台当前的登录状态，没有会话时会创建一个
func (s *AdapterService) CheckLoginStatus(ctx context.Context, platform string) (*LoginStatus, error) {
	sess, err := s.sessions.Acquire(ctx, platform, false)
	if err != nil {
		return nil, err
	}

	return &LoginStatus{
		Platform:     sess.Platform,
		IsLoggedIn:   sess.IsLoggedIn,
		AccountIndex: sess.AccountIndex,
		AccountCount: s.store.GetAccountCount(sess.Platform),
		CreatedAt:    sess.CreatedAt,
	}, nil
}

// LoginQrcode 登录二维码
type LoginQrcode struct {
	IsLoggedIn bool   `json:"is_logged_in"`
	Img        string `json:"img,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
}

// GetLoginQrcode 获取平台登录页的二维码图片。
// 已登录时只返回状态；平台不支持二维码登录时返回错误。
func (s *AdapterService) GetLoginQrcode(ctx context.Context, platform string) (*LoginQrcode, error) {
	sess, err := s.sessions.Acquire(ctx, platform, false)
	if err != nil {
		return nil, err
	}
	if sess.IsLoggedIn {
		return &LoginQrcode{IsLoggedIn: true}, nil
	}

	cfg, _, err := s.registry.Lookup(platform)
	if err != nil {
		return nil, err
	}
	if cfg.QRCodeScript == "" {
		return nil, fmt.Errorf("%s 不支持二维码登录", cfg.ID)
	}

	result, err := sess.Driver.Evaluate(cfg.QRCodeScript)
	if err != nil {
		return nil, errors.Wrap(err, "读取登录二维码失败")
	}

	dataURL := result.Str()
	if dataURL == "" {
		return nil, fmt.Errorf("页面上没有找到登录二维码，请稍后重试")
	}

	mime, err := sniffImageMime(dataURL)
	if err != nil {
		return nil, err
	}

	logrus.Infof("已获取 %s 登录二维码", cfg.ID)
	return &LoginQrcode{
		Img:      dataURL,
		MimeType: mime,
		Timeout:  configs.DefaultLoginTimeout.String(),
	}, nil
}

// CloseSession 关闭指定平台的会话
func (s *AdapterService) CloseSession(platform string) {
	s.sessions.Close(platform)
}

// Shutdown 关闭全部会话，进程退出前调用
func (s *AdapterService) Shutdown() {
	s.sessions.CloseAll()
}

// sniffImageMime 从 dataURL 解出图片字节并嗅探真实的 MIME 类型，
// 页面声明的类型不可信
func sniffImageMime(dataURL string) (string, error) {
	payload := dataURL
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.Wrap(err, "解码二维码图片失败")
	}

	kind, err := filetype.Image(raw)
	if err != nil {
		return "", errors.Wrap(err, "无法识别二维码图片格式")
	}
	return kind.MIME.Value, nil
}
