package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesPlatformDateLayout(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(dir)
	sink.Now = func() time.Time {
		return time.Date(2026, 3, 15, 10, 30, 45, 0, time.Local)
	}

	path, err := sink.Save("xhs", "search_golang", map[string]any{"total": 3})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "xhs", "2026-03-15", "103045_search_golang.json"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.EqualValues(t, 3, decoded["total"])
}

func TestSaveQuietlySwallowsErrors(t *testing.T) {
	// 输出目录是一个普通文件，MkdirAll 必然失败
	dir := t.TempDir()
	blocked := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	sink := NewSink(filepath.Join(blocked, "output"))
	path := sink.SaveQuietly("xhs", "search", map[string]any{})

	assert.Empty(t, path)
}
