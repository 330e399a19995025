package client

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNoText 文本框为空且没有上传文件
	ErrNoText = errors.New("please enter text or upload a file")
	// ErrUploadNotText 上传内容不是合法的 UTF-8 文本
	ErrUploadNotText = errors.New("uploaded file is not valid UTF-8 text")
)

// ResolveText 选择要转换的文本。upload 为 nil 表示没有上传文件。
// 优先级：勾选使用上传 > 非空文本框 > 上传文件兜底。选中的文本为空白时返回 ErrNoText，不发请求。
func ResolveText(textArea string, upload []byte, useUpload bool) (string, error) {
	text, err := pickText(textArea, upload, useUpload)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func pickText(textArea string, upload []byte, useUpload bool) (string, error) {
	if upload != nil && useUpload {
		return decodeUpload(upload)
	}
	if strings.TrimSpace(textArea) != "" {
		return textArea, nil
	}
	if upload != nil {
		return decodeUpload(upload)
	}
	return "", nil
}

func decodeUpload(upload []byte) (string, error) {
	if !utf8.Valid(upload) {
		return "", ErrUploadNotText
	}
	return string(upload), nil
}
