package models

import (
	"time"

	"gorm.io/datatypes"
)

// FileRecord 对应 dataset_files 表, 一行代表数据集中的一个物理文件
// (dataset_id, path) 为联合主键, path 不以 / 开头也不含空段
type FileRecord struct {
	DatasetID   string         `gorm:"primaryKey;type:varchar(191)" json:"datasetId"`
	Path        string         `gorm:"primaryKey;type:varchar(512)" json:"path"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Type        FileType       `gorm:"type:varchar(16);not null;default:'other'" json:"type"`
	Size        string         `gorm:"type:varchar(32)" json:"size"`
	OssURL      string         `gorm:"type:varchar(1024)" json:"ossUrl,omitempty"`
	PreviewData datatypes.JSON `json:"previewData,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"-"`
}

// TableName 指定 GORM 使用的表名
func (FileRecord) TableName() string {
	return "dataset_files"
}

// HasPreviewData 判断是否存有预计算的表格预览
func (f *FileRecord) HasPreviewData() bool {
	return HasJSONValue(f.PreviewData)
}

// HasJSONValue 判断 JSON 列是否有实际内容, SQL NULL 与 JSON null 都视为空
func HasJSONValue(data datatypes.JSON) bool {
	if len(data) == 0 {
		return false
	}
	return string(data) != "null"
}

// ParquetPreview 是 CLI 上传时预先计算好的表格预览
type ParquetPreview struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	TotalRows int64            `json:"totalRows"`
}
