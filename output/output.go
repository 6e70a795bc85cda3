package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sink 把采集结果落盘为 JSON 文件，按平台和日期分目录。
// 落盘是尽力而为的：失败只记录日志，不影响调用方拿到结果。
type Sink struct {
	dir string

	// Now 当前时间来源，测试时可替换
	Now func() time.Time
}

// NewSink 创建输出器，dir 是输出根目录
func NewSink(dir string) *Sink {
	return &Sink{dir: dir, Now: time.Now}
}

// Save 把数据写到 output/<platform>/<日期>/<时间戳>_<suffix>.json，
// 返回写入的文件路径。任何失败返回错误，由调用方决定是否忽略。
func (s *Sink) Save(platform, suffix string, data any) (string, error) {
	now := s.Now()
	dir := filepath.Join(s.dir, platform, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}

	name := fmt.Sprintf("%s_%s.json", now.Format("150405"), suffix)
	path := filepath.Join(dir, name)

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal output")
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", errors.Wrap(err, "write output file")
	}
	return path, nil
}

// SaveQuietly 落盘并吞掉错误，返回文件路径（失败时为空）
func (s *Sink) SaveQuietly(platform, suffix string, data any) string {
	path, err := s.Save(platform, suffix, data)
	if err != nil {
		logrus.WithError(err).Warn("保存采集结果失败")
		return ""
	}
	return path
}
