package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// VideoExts 可发布的视频格式
var VideoExts = []string{".mp4", ".mov", ".webm", ".mkv"}

// IsVideo 按扩展名判断，不区分大小写
func IsVideo(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range VideoExts {
		if ext == e {
			return true
		}
	}
	return false
}

// ScanVideos 列出目录下的视频文件（不递归），按文件名排序
func ScanVideos(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("读取视频目录失败: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s 不是目录", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取视频目录失败: %w", err)
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsVideo(e.Name()) {
			continue
		}
		videos = append(videos, filepath.Join(dir, e.Name()))
	}
	sort.Strings(videos)
	return videos, nil
}
