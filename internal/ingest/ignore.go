package ingest

import "path"

// 上传时跳过的目录与文件, 版本控制, 缓存, 虚拟环境与编辑器文件不属于数据集
var (
	ignoredDirs = map[string]struct{}{
		".git": {}, ".svn": {}, ".hg": {},
		"__pycache__": {}, ".pytest_cache": {}, ".eggs": {},
		".venv": {}, "venv": {},
		".idea": {}, ".vscode": {},
		"node_modules": {},
	}
	ignoredDirPatterns = []string{"*.egg-info"}

	ignoredFiles = map[string]struct{}{
		".gitignore": {}, ".gitattributes": {}, ".gitmodules": {},
		".DS_Store": {}, "Thumbs.db": {},
		".env": {}, ".env.local": {},
	}
	ignoredFilePatterns = []string{"*.pyc", "*.pyo", "*.tmp", "*.temp", "*.swp", "*.swo"}
)

// IgnoreDir 判断目录名是否应跳过
func IgnoreDir(name string) bool {
	if _, ok := ignoredDirs[name]; ok {
		return true
	}
	return matchAny(ignoredDirPatterns, name)
}

// IgnoreFile 判断文件名是否应跳过
func IgnoreFile(name string) bool {
	if _, ok := ignoredFiles[name]; ok {
		return true
	}
	return matchAny(ignoredFilePatterns, name)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
