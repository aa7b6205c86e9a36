package models

// FileTreeItem 是某一层目录下的一个展示节点, 可能是文件也可能是推断出的文件夹
// 文件夹不落库, 只要有文件路径以其为前缀就存在
type FileTreeItem struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	IsDirectory bool     `json:"isDirectory"`
	Size        string   `json:"size,omitempty"`
	Type        FileType `json:"type,omitempty"`
	// ChildCount 为该文件夹下所有层级的文件总数
	ChildCount int `json:"childCount,omitempty"`
}

// FolderListing 是一页目录列表
type FolderListing struct {
	Items      []FileTreeItem `json:"items"`
	HasMore    bool           `json:"hasMore"`
	NextCursor string         `json:"nextCursor,omitempty"`
	TotalCount int            `json:"totalCount"`
}
