package utils

import (
	"strconv"
	"strings"
	"time"
)

// Slugify 转小写, 连续的非字母数字字符替换为单个 -, 并去掉首尾的 -
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// NewDatasetID 生成数据集 ID: slug(name)-毫秒时间戳
func NewDatasetID(name string, now time.Time) string {
	return Slugify(name) + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}
