package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// LocalFile 待上传的本地文件, RelPath 使用 / 分隔
type LocalFile struct {
	AbsPath string
	RelPath string
	Size    int64
}

// Scan 递归收集 root 下的文件, 跳过忽略列表中的目录和文件, 结果按 RelPath 排序
func Scan(root string) ([]LocalFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var files []LocalFile
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && IgnoreDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		// 符号链接, 设备文件等只处理普通文件
		if !d.Type().IsRegular() || IgnoreFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, LocalFile{AbsPath: p, RelPath: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// TotalSize 文件总字节数
func TotalSize(files []LocalFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}
