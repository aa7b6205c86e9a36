package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultFormat  = "parquet"
	DefaultLicense = "MIT"
	DefaultTask    = "Other"
)

// Dataset 对应 datasets 表
type Dataset struct {
	ID          string                      `gorm:"primaryKey;type:varchar(191)" json:"id"`
	Name        string                      `gorm:"type:varchar(500);not null" json:"name"`
	Author      string                      `gorm:"type:varchar(255);not null" json:"author"`
	Description string                      `gorm:"type:text;not null" json:"description"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Downloads   int                         `gorm:"not null;default:0" json:"downloads"`
	Likes       int                         `gorm:"not null;default:0" json:"likes"`
	UpdatedAt   string                      `gorm:"type:varchar(10);index" json:"updatedAt"` // YYYY-MM-DD
	Size        string                      `gorm:"type:varchar(50)" json:"size"`
	Format      string                      `gorm:"type:varchar(50);index" json:"format"`
	License     string                      `gorm:"type:varchar(100);index" json:"license"`
	Task        string                      `gorm:"type:varchar(255);index" json:"task"`
	Language    string                      `gorm:"type:varchar(100)" json:"language,omitempty"`
	Rows        int64                       `gorm:"not null;default:0" json:"rows"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime" json:"createdAt"`

	Splits      []DatasetSplit      `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"splits,omitempty"`
	Features    []DatasetFeature    `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"features,omitempty"`
	PreviewRows []DatasetPreviewRow `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
	Files       []FileRecord        `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// TableName 指定 GORM 使用的表名
func (Dataset) TableName() string {
	return "datasets"
}

// ApplyDefaults 补全 format / license / task / updatedAt 默认值
func (d *Dataset) ApplyDefaults(now time.Time) {
	if d.Format == "" {
		d.Format = DefaultFormat
	}
	if d.License == "" {
		d.License = DefaultLicense
	}
	if d.Task == "" {
		d.Task = DefaultTask
	}
	if d.UpdatedAt == "" {
		d.UpdatedAt = now.Format(time.DateOnly)
	}
	if d.Tags == nil {
		d.Tags = datatypes.JSONSlice[string]{}
	}
}

// DatasetSplit 数据集划分, 例如 train / test
type DatasetSplit struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	DatasetID string `gorm:"type:varchar(191);index;not null" json:"-"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	Rows      int64  `gorm:"not null;default:0" json:"rows"`
}

func (DatasetSplit) TableName() string {
	return "dataset_splits"
}

// DatasetFeature 数据集字段定义
type DatasetFeature struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	DatasetID string `gorm:"type:varchar(191);index;not null" json:"-"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Type      string `gorm:"type:varchar(100);not null" json:"type"`
}

func (DatasetFeature) TableName() string {
	return "dataset_features"
}

// DatasetPreviewRow 详情页展示的样例行, 每行一个 JSON 对象
type DatasetPreviewRow struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"-"`
	DatasetID string         `gorm:"type:varchar(191);index;not null" json:"-"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
}

func (DatasetPreviewRow) TableName() string {
	return "dataset_preview_data"
}

// PreviewData 返回样例行的 JSON 列表
func (d *Dataset) PreviewData() []datatypes.JSON {
	rows := make([]datatypes.JSON, 0, len(d.PreviewRows))
	for _, r := range d.PreviewRows {
		rows = append(rows, r.Data)
	}
	return rows
}
