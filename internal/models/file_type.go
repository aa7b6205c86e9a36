package models

import (
	"path"
	"strings"
)

// FileType 文件预览类型, 入库时根据扩展名判定, 读取时再次校验
type FileType string

const (
	FileTypeParquet  FileType = "parquet"
	FileTypeJSON     FileType = "json"
	FileTypeMP4      FileType = "mp4"
	FileTypeMarkdown FileType = "md"
	FileTypeOther    FileType = "other"
)

// FileTypes 返回全部类型, 顺序固定
func FileTypes() []FileType {
	return []FileType{FileTypeParquet, FileTypeJSON, FileTypeMP4, FileTypeMarkdown, FileTypeOther}
}

// Valid 判断是否为已知类型
func (t FileType) Valid() bool {
	switch t {
	case FileTypeParquet, FileTypeJSON, FileTypeMP4, FileTypeMarkdown, FileTypeOther:
		return true
	}
	return false
}

// Classify 根据路径最后一段的扩展名判定文件类型, 不区分大小写
func Classify(p string) FileType {
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".parquet":
		return FileTypeParquet
	case ".json":
		return FileTypeJSON
	case ".mp4":
		return FileTypeMP4
	case ".md", ".markdown":
		return FileTypeMarkdown
	default:
		return FileTypeOther
	}
}

// Resolve 处理历史数据: 入库时记为 other 或未知类型, 但扩展名可识别时以扩展名为准
func Resolve(stored FileType, p string) FileType {
	if stored == FileTypeOther || !stored.Valid() {
		return Classify(p)
	}
	return stored
}
