package models

import "encoding/json"

// Preview 是预览结果, 每种文件类型对应一个具体结构
// previewKind 未导出, 保证只有本包内的类型可以实现
type Preview interface {
	Kind() FileType
	previewKind()
}

// JSONPreview 格式化后的 JSON 文本; 解析失败时 Content 为原始文本且 ParseError 为 true
type JSONPreview struct {
	Type       FileType `json:"type"`
	Content    string   `json:"content"`
	Truncated  bool     `json:"truncated"`
	ParseError bool     `json:"parseError,omitempty"`
}

// MarkdownPreview 原始 markdown 文本, 渲染由调用方负责
type MarkdownPreview struct {
	Type      FileType `json:"type"`
	Content   string   `json:"content"`
	Truncated bool     `json:"truncated"`
}

// VideoPreview 带有效期的签名播放地址
type VideoPreview struct {
	Type     FileType `json:"type"`
	VideoURL string   `json:"videoUrl"`
}

// ParquetPreviewResult 原样返回入库时的 previewData; 缺失时 Error 说明原因
type ParquetPreviewResult struct {
	Type           FileType        `json:"type"`
	ParquetPreview json.RawMessage `json:"parquetPreview,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// UnsupportedPreview 不支持预览的文件类型
type UnsupportedPreview struct {
	Type  FileType `json:"type"`
	Error string   `json:"error"`
}

func (*JSONPreview) Kind() FileType          { return FileTypeJSON }
func (*MarkdownPreview) Kind() FileType      { return FileTypeMarkdown }
func (*VideoPreview) Kind() FileType         { return FileTypeMP4 }
func (*ParquetPreviewResult) Kind() FileType { return FileTypeParquet }
func (*UnsupportedPreview) Kind() FileType   { return FileTypeOther }

func (*JSONPreview) previewKind()          {}
func (*MarkdownPreview) previewKind()      {}
func (*VideoPreview) previewKind()         {}
func (*ParquetPreviewResult) previewKind() {}
func (*UnsupportedPreview) previewKind()   {}
