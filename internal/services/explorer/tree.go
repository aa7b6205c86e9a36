package explorer

import (
	"slices"
	"strings"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// NormalizePrefix 把目录路径转换为查询前缀: 非空时以 / 结尾, 空串代表根目录
func NormalizePrefix(folder string) string {
	folder = strings.TrimLeft(folder, "/")
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}

// BuildFolderListing 从扁平的文件记录中推断出 folder 这一层的直接子节点并分页
// rows 可以包含 folder 整棵子树, 子目录的 ChildCount 为其下所有层级的文件数
// cursor 为上一页最后一项的 path, 找不到时从第一项开始
func BuildFolderListing(rows []models.FileRecord, folder string, limit int, cursor string) models.FolderListing {
	prefix := NormalizePrefix(folder)
	children := collectChildren(rows, prefix)
	sortChildren(children)

	start := 0
	if cursor != "" {
		if i := slices.IndexFunc(children, func(it models.FileTreeItem) bool { return it.Path == cursor }); i >= 0 {
			start = i + 1
		}
	}
	if limit < 0 {
		limit = 0
	}
	end := min(start+limit, len(children))

	page := make([]models.FileTreeItem, end-start)
	copy(page, children[start:end])

	listing := models.FolderListing{
		Items:      page,
		HasMore:    end < len(children),
		TotalCount: len(children),
	}
	if listing.HasMore && len(page) > 0 {
		listing.NextCursor = page[len(page)-1].Path
	}
	return listing
}

func collectChildren(rows []models.FileRecord, prefix string) []models.FileTreeItem {
	var children []models.FileTreeItem
	files := make(map[string]struct{})
	// 目录 path -> children 下标
	dirs := make(map[string]int)

	for _, row := range rows {
		rel, ok := strings.CutPrefix(row.Path, prefix)
		if !ok || rel == "" {
			continue
		}

		segment, _, isNested := strings.Cut(rel, "/")
		if !isNested {
			if _, dup := files[row.Path]; dup {
				continue
			}
			files[row.Path] = struct{}{}
			name := row.Name
			if name == "" {
				name = rel
			}
			children = append(children, models.FileTreeItem{
				Name: name,
				Path: row.Path,
				Size: row.Size,
				Type: models.Resolve(row.Type, row.Path),
			})
			continue
		}

		dirPath := prefix + segment
		if i, ok := dirs[dirPath]; ok {
			children[i].ChildCount++
			continue
		}
		dirs[dirPath] = len(children)
		children = append(children, models.FileTreeItem{
			Name:        segment,
			Path:        dirPath,
			IsDirectory: true,
			ChildCount:  1,
		})
	}
	return children
}

// sortChildren 目录在前, 同组内按名称的本地化排序, 排序键相同时按字节序保证结果稳定
func sortChildren(items []models.FileTreeItem) {
	col := collate.New(language.Und)
	slices.SortFunc(items, func(a, b models.FileTreeItem) int {
		if a.IsDirectory != b.IsDirectory {
			if a.IsDirectory {
				return -1
			}
			return 1
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}
