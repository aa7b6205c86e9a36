package models

// SplitInput 请求中的划分信息
type SplitInput struct {
	Name string `json:"name" mapstructure:"name"`
	Rows int64  `json:"rows" mapstructure:"rows"`
}

// FeatureInput 请求中的字段定义
type FeatureInput struct {
	Name string `json:"name" mapstructure:"name"`
	Type string `json:"type" mapstructure:"type"`
}

// CreateDatasetRequest 创建数据集; name / author / description 必填, 由服务层校验
type CreateDatasetRequest struct {
	Name        string           `json:"name"`
	Author      string           `json:"author"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Size        string           `json:"size"`
	Format      string           `json:"format"`
	License     string           `json:"license"`
	Task        string           `json:"task"`
	Language    string           `json:"language"`
	Rows        int64            `json:"rows"`
	Downloads   int              `json:"downloads"`
	Likes       int              `json:"likes"`
	Splits      []SplitInput     `json:"splits"`
	Features    []FeatureInput   `json:"features"`
	PreviewData []map[string]any `json:"previewData"`
}

// DatasetPatch 部分更新, nil 字段表示不修改
// 子表字段非 nil 时整体替换, 空数组表示清空
type DatasetPatch struct {
	Name        *string           `json:"name"`
	Author      *string           `json:"author"`
	Description *string           `json:"description"`
	Tags        *[]string         `json:"tags"`
	Size        *string           `json:"size"`
	Format      *string           `json:"format"`
	License     *string           `json:"license"`
	Task        *string           `json:"task"`
	Language    *string           `json:"language"`
	Rows        *int64            `json:"rows"`
	Downloads   *int              `json:"downloads"`
	Likes       *int              `json:"likes"`
	Splits      *[]SplitInput     `json:"splits"`
	Features    *[]FeatureInput   `json:"features"`
	PreviewData *[]map[string]any `json:"previewData"`
}

// UploadedFile CLI 上传完成后回报的单个文件
type UploadedFile struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Size        int64           `json:"size"`
	URL         string          `json:"url,omitempty"`
	PreviewData *ParquetPreview `json:"previewData,omitempty"`
}

// UploadCompleteRequest 一次上传批次的文件清单
type UploadCompleteRequest struct {
	Files     []UploadedFile `json:"files"`
	TotalSize int64          `json:"totalSize"`
}

// UploadCompleteResponse 写入目录的文件数
type UploadCompleteResponse struct {
	Uploaded int `json:"uploaded"`
}

// UploadObjectResponse 单个对象上传结果
type UploadObjectResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// DatasetDetail 详情接口返回的数据集, 附带样例行, 文件数与渲染后的描述
type DatasetDetail struct {
	*Dataset
	PreviewData     []map[string]any `json:"previewData"`
	FileCount       int64            `json:"fileCount"`
	DescriptionHTML string           `json:"descriptionHtml"`
}

// DatasetList 列表接口返回
type DatasetList struct {
	Items []Dataset `json:"items"`
	Total int64     `json:"total"`
}
