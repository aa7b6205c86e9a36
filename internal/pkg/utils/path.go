package utils

import "strings"

// CleanRelPath 规范化数据集内的相对路径: 统一使用 /, 去掉开头的 / 和空段
// 含有 . 或 .. 段的路径视为非法, 返回空串
func CleanRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, seg := range parts {
		switch seg {
		case "":
			continue
		case ".", "..":
			return ""
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}

// BaseName 返回路径最后一段
func BaseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
