package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveContentID(t *testing.T) {
	tests := []struct {
		name          string
		platform      string
		input         string
		expectedID    string
		expectedToken string
	}{
		{
			name:          "小红书完整链接",
			platform:      "xhs",
			input:         "https://www.xiaohongshu.com/explore/68e66fef0000000004023fdb?xsec_token=ABc9MCVTGMXqvxLT8H-fHb_6DodO8iEoHByoltzPex20I=&xsec_source=pc_feed",
			expectedID:    "68e66fef0000000004023fdb",
			expectedToken: "ABc9MCVTGMXqvxLT8H-fHb_6DodO8iEoHByoltzPex20I=",
		},
		{
			name:       "小红书相对路径",
			platform:   "xhs",
			input:      "/explore/68e495f20000000004014d47",
			expectedID: "68e495f20000000004014d47",
		},
		{
			name:       "小红书 discovery 链接",
			platform:   "xhs",
			input:      "https://www.xiaohongshu.com/discovery/item/68e495f20000000004014d47",
			expectedID: "68e495f20000000004014d47",
		},
		{
			name:       "裸 ID 原样返回",
			platform:   "xhs",
			input:      "68e66fef0000000004023fdb",
			expectedID: "68e66fef0000000004023fdb",
		},
		{
			name:       "微博 detail 链接",
			platform:   "weibo",
			input:      "https://m.weibo.cn/detail/4999123456789012",
			expectedID: "4999123456789012",
		},
		{
			name:       "微博 status 链接",
			platform:   "weibo",
			input:      "https://m.weibo.cn/status/4999123456789012?sudaref=example.com",
			expectedID: "4999123456789012",
		},
		{
			name:       "抖音视频链接",
			platform:   "douyin",
			input:      "https://www.douyin.com/video/7123456789012345678",
			expectedID: "7123456789012345678",
		},
		{
			name:       "抖音图文链接",
			platform:   "douyin",
			input:      "https://www.douyin.com/note/7123456789012345678?modal_id=x",
			expectedID: "7123456789012345678",
		},
		{
			name:       "B站视频链接",
			platform:   "bilibili",
			input:      "https://www.bilibili.com/video/BV1xx411c7mD/?spm_id_from=333.337",
			expectedID: "BV1xx411c7mD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, token := ResolveContentID(tt.platform, tt.input)
			assert.Equal(t, tt.expectedID, id)
			assert.Equal(t, tt.expectedToken, token)
		})
	}
}

func TestResolveUserID(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		input    string
		expected string
	}{
		{
			name:     "小红书主页链接",
			platform: "xhs",
			input:    "https://www.xiaohongshu.com/user/profile/5ff0e6410000000001008400?xsec_token=AB",
			expected: "5ff0e6410000000001008400",
		},
		{
			name:     "微博用户链接",
			platform: "weibo",
			input:    "https://m.weibo.cn/u/1749127163",
			expected: "1749127163",
		},
		{
			name:     "微博 profile 链接",
			platform: "weibo",
			input:    "https://m.weibo.cn/profile/1749127163",
			expected: "1749127163",
		},
		{
			name:     "抖音用户链接",
			platform: "douyin",
			input:    "https://www.douyin.com/user/MS4wLjABAAAAxxxx?from_tab_name=main",
			expected: "MS4wLjABAAAAxxxx",
		},
		{
			name:     "B站空间链接",
			platform: "bilibili",
			input:    "https://space.bilibili.com/12345?spm_id_from=333.999",
			expected: "12345",
		},
		{
			name:     "裸 ID 原样返回",
			platform: "douyin",
			input:    "MS4wLjABAAAAxxxx",
			expected: "MS4wLjABAAAAxxxx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveUserID(tt.platform, tt.input))
		})
	}
}
