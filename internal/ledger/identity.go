package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"Fpublisher/internal/types"
)

// 身份键策略
const (
	IdentityPath   = "path"
	IdentityName   = "name"
	IdentitySHA256 = "sha256"
)

// IdentityKey 计算视频的去重键
func IdentityKey(strategy, videoPath string) (string, error) {
	switch strategy {
	case "", IdentityPath:
		abs, err := filepath.Abs(videoPath)
		if err != nil {
			return "", fmt.Errorf("解析路径失败: %w", err)
		}
		return filepath.ToSlash(abs), nil
	case IdentityName:
		return filepath.Base(videoPath), nil
	case IdentitySHA256:
		return fileDigest(videoPath)
	default:
		return "", types.NewConfigurationError("未知身份键策略: %s", strategy)
	}
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("打开视频失败: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("计算摘要失败: %w", err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
