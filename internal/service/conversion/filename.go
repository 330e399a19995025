package conversion

import (
	"regexp"
	"strings"
	"time"
)

// DefaultSnippetMaxLength 文件名片段默认最大长度
const DefaultSnippetMaxLength = 50

// TimestampLayout 文件名时间戳格式 YYYYMMDD_HHMMSS
const TimestampLayout = "20060102_150405"

// spaceClass 与 Python str.isspace 一致：ASCII 空白、\v、\x1c-\x1f、\x85 以及 Unicode 分隔符。
// RE2 的 \s 只覆盖 [\t\n\f\r ]。
const spaceClass = `\s\v\x1c-\x1f\x85\p{Z}`

var (
	disallowedChars = regexp.MustCompile(`[^\w` + spaceClass + `-]`)
	separatorRuns   = regexp.MustCompile(`[-` + spaceClass + `]+`)
)

// SanitizeSnippet 将文本规整为仅含 [a-z0-9_] 的文件名片段。
func SanitizeSnippet(text string, maxLength int) string {
	snippet := strings.ToLower(text)
	snippet = disallowedChars.ReplaceAllString(snippet, "")
	snippet = separatorRuns.ReplaceAllString(snippet, "_")
	snippet = strings.Trim(snippet, "_")

	if maxLength >= 0 && len(snippet) > maxLength {
		snippet = snippet[:maxLength]
	}
	return snippet
}

// SnippetSource 取第一个句点之前的文本，没有句点时取全文。
// "e.g." 之类的缩写会被截断，保持现状。
func SnippetSource(text string) string {
	if idx := strings.Index(text, "."); idx >= 0 {
		return text[:idx]
	}
	return text
}

// DeriveFilename 生成 {时间戳}_{片段}.{扩展名}，片段为空时省略。不会失败。
func DeriveFilename(text string, now time.Time, ext string, maxLength int) string {
	timestamp := now.Format(TimestampLayout)
	ext = strings.TrimPrefix(ext, ".")

	snippet := SanitizeSnippet(SnippetSource(text), maxLength)
	if snippet == "" {
		return timestamp + "." + ext
	}
	return timestamp + "_" + snippet + "." + ext
}
