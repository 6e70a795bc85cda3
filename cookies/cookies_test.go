package cookies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCookieEmptyStore(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.Empty(t, store.GetCookie("xhs"))
	assert.Empty(t, store.GetAllCookies("xhs"))
	assert.Zero(t, store.GetAccountCount("xhs"))
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.True(t, store.SaveCookie("xhs", "a1=xxx; web_session=yyy", -1))

	got := store.GetCookie("xhs")
	assert.Equal(t, "a1=xxx; web_session=yyy", got)
	assert.Equal(t, 1, store.GetAccountCount("xhs"))
}

func TestSaveCookieAppendsNewAccount(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.True(t, store.SaveCookie("xhs", "web_session=first", -1))
	require.True(t, store.SaveCookie("xhs", "web_session=second", -1))

	records := store.GetAllCookies("xhs")
	require.Len(t, records, 2)
	assert.Equal(t, "web_session=first", records[0])
	assert.Equal(t, "web_session=second", records[1])

	// 追加的记录前面带账号注释
	body, err := os.ReadFile(filepath.Join(dir, "xhs_cookies.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "# Account 2 - Auto-saved after login")
}

func TestSaveCookieOverwritesExistingAccount(t *testing.T) {
	store := NewStore(t.TempDir())

	require.True(t, store.SaveCookie("xhs", "web_session=old", -1))
	require.True(t, store.SaveCookie("xhs", "web_session=refreshed", 0))

	records := store.GetAllCookies("xhs")
	require.Len(t, records, 1)
	assert.Equal(t, "web_session=refreshed", records[0])
}

func TestSaveCookieRejectsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	assert.False(t, store.SaveCookie("xhs", "", -1))
	assert.False(t, store.SaveCookie("xhs", "   ", 0))
}

func TestGetCookieDeterministicSelect(t *testing.T) {
	store := NewStore(t.TempDir())
	require.True(t, store.SaveCookie("xhs", "  a=1; b=2  ", -1))
	require.True(t, store.SaveCookie("xhs", "a=3; b=4", -1))

	// 关闭随机选择时固定返回第 0 条，保存时首尾空白已去掉
	for i := 0; i < 5; i++ {
		assert.Equal(t, "a=1; b=2", store.GetCookie("xhs", WithRandomSelect(false)))
	}
}

func TestGetCookieByIndex(t *testing.T) {
	store := NewStore(t.TempDir())
	require.True(t, store.SaveCookie("weibo", "SUB=one", -1))
	require.True(t, store.SaveCookie("weibo", "SUB=two", -1))

	assert.Equal(t, "SUB=one", store.GetCookie("weibo", WithAccountIndex(0)))
	assert.Equal(t, "SUB=two", store.GetCookie("weibo", WithAccountIndex(1)))
	// 下标越界返回空而不是兜底到别的账号
	assert.Empty(t, store.GetCookie("weibo", WithAccountIndex(5)))
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := `# XHS Cookies
# Account 1 - Main
a1=xxx; web_session=first

# Account 2 - Backup
a1=yyy; web_session=second
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xhs_cookies.txt"), []byte(content), 0o644))

	store := NewStore(dir)
	records := store.GetAllCookies("xhs")

	require.Len(t, records, 2)
	assert.Equal(t, "a1=xxx; web_session=first", records[0])
}

func TestPlatformAliasesShareFile(t *testing.T) {
	store := NewStore(t.TempDir())
	require.True(t, store.SaveCookie("xiaohongshu", "web_session=abc", -1))

	assert.Equal(t, "web_session=abc", store.GetCookie("xhs"))
}

func TestSaveInvalidatesCache(t *testing.T) {
	store := NewStore(t.TempDir())

	require.True(t, store.SaveCookie("douyin", "sessionid=a", -1))
	assert.Equal(t, 1, store.GetAccountCount("douyin"))

	require.True(t, store.SaveCookie("douyin", "sessionid=b", -1))
	assert.Equal(t, 2, store.GetAccountCount("douyin"))
}

func TestCreateTemplateDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.CreateTemplate("xhs"))
	require.True(t, store.SaveCookie("xhs", "web_session=abc", -1))
	require.NoError(t, store.CreateTemplate("xhs"))

	assert.Equal(t, "web_session=abc", store.GetCookie("xhs"))
}

func TestParseCookieString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:     "常规多键",
			input:    "a1=xxx; web_session=yyy; webId=zzz",
			expected: map[string]string{"a1": "xxx", "web_session": "yyy", "webId": "zzz"},
		},
		{
			name:     "值里带等号",
			input:    "token=abc=def; k=v",
			expected: map[string]string{"token": "abc=def", "k": "v"},
		},
		{
			name:     "畸形片段被丢弃",
			input:    "valid=1; justtext; =novalue; k2=2",
			expected: map[string]string{"valid": "1", "k2": "2"},
		},
		{
			name:     "空字符串",
			input:    "",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCookieString(tt.input))
		})
	}
}

func TestFormatCookieStringRoundTrip(t *testing.T) {
	original := map[string]string{"a1": "xxx", "web_session": "yyy"}

	formatted := FormatCookieString(original)
	parsed := ParseCookieString(formatted)

	assert.Equal(t, original, parsed)
}
