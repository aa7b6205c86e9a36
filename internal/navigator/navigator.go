// Package navigator 维护数据集文件树中每个目录的展开与分页状态
package navigator

import (
	"context"
	"strings"
	"sync"

	"github.com/3Eeeecho/go-datahub/internal/models"
)

// Fetcher 取一页目录列表, apiclient.Client 实现了该接口
type Fetcher interface {
	ListFolder(ctx context.Context, datasetID, path, cursor string, limit int) (*models.FolderListing, error)
}

// NodeState 单个目录的状态; 折叠不会丢弃已加载的子节点
type NodeState struct {
	Expanded   bool
	Loading    bool
	Loaded     bool
	Children   []models.FileTreeItem
	NextCursor string
	HasMore    bool
	Err        error
}

type Navigator struct {
	fetcher   Fetcher
	datasetID string
	pageSize  int

	mu    sync.Mutex
	nodes map[string]*NodeState
}

func New(fetcher Fetcher, datasetID string, pageSize int) *Navigator {
	return &Navigator{
		fetcher:   fetcher,
		datasetID: datasetID,
		pageSize:  pageSize,
		nodes:     make(map[string]*NodeState),
	}
}

// key 根目录为 "", "data/" 与 "/data" 都视为 "data"
func key(path string) string {
	return strings.Trim(path, "/")
}

func (n *Navigator) node(path string) *NodeState {
	st, ok := n.nodes[path]
	if !ok {
		st = &NodeState{}
		n.nodes[path] = st
	}
	return st
}

// snapshot 调用方需持有锁
func snapshot(st *NodeState) NodeState {
	cp := *st
	cp.Children = append([]models.FileTreeItem(nil), st.Children...)
	return cp
}

// State 返回目录状态的副本
func (n *Navigator) State(path string) (NodeState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	st, ok := n.nodes[key(path)]
	if !ok {
		return NodeState{}, false
	}
	return snapshot(st), true
}

// Expand 展开目录, 只有首次展开才请求第一页
func (n *Navigator) Expand(ctx context.Context, path string) (NodeState, error) {
	path = key(path)

	n.mu.Lock()
	st := n.node(path)
	st.Expanded = true
	if st.Loaded || st.Loading {
		out := snapshot(st)
		n.mu.Unlock()
		return out, nil
	}
	st.Loading = true
	n.mu.Unlock()

	listing, err := n.fetcher.ListFolder(ctx, n.datasetID, path, "", n.pageSize)

	n.mu.Lock()
	defer n.mu.Unlock()
	st.Loading = false
	if err != nil {
		st.Err = err
		return snapshot(st), err
	}
	st.Err = nil
	st.Loaded = true
	st.Children = append([]models.FileTreeItem(nil), listing.Items...)
	st.NextCursor = listing.NextCursor
	st.HasMore = listing.HasMore
	return snapshot(st), nil
}

// Collapse 折叠目录, 保留已加载的子节点
func (n *Navigator) Collapse(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if st, ok := n.nodes[key(path)]; ok {
		st.Expanded = false
	}
}

// LoadMore 用保存的游标追加下一页, 没有更多或尚未加载时不做任何事
func (n *Navigator) LoadMore(ctx context.Context, path string) (NodeState, error) {
	path = key(path)

	n.mu.Lock()
	st, ok := n.nodes[path]
	if !ok {
		n.mu.Unlock()
		return NodeState{}, nil
	}
	if !st.Loaded || st.Loading || !st.HasMore {
		out := snapshot(st)
		n.mu.Unlock()
		return out, nil
	}
	st.Loading = true
	cursor := st.NextCursor
	n.mu.Unlock()

	listing, err := n.fetcher.ListFolder(ctx, n.datasetID, path, cursor, n.pageSize)

	n.mu.Lock()
	defer n.mu.Unlock()
	st.Loading = false
	if err != nil {
		st.Err = err
		return snapshot(st), err
	}
	st.Err = nil
	st.Children = append(st.Children, listing.Items...)
	st.NextCursor = listing.NextCursor
	st.HasMore = listing.HasMore
	return snapshot(st), nil
}

// LoadAll 展开目录并翻完所有页
func (n *Navigator) LoadAll(ctx context.Context, path string) (NodeState, error) {
	st, err := n.Expand(ctx, path)
	for err == nil && st.HasMore {
		st, err = n.LoadMore(ctx, path)
	}
	return st, err
}

// WalkFunc 遍历回调, depth 从 0 开始
type WalkFunc func(item models.FileTreeItem, depth int) error

// Walk 深度优先遍历 path 下的节点, maxDepth < 0 表示不限深度
func (n *Navigator) Walk(ctx context.Context, path string, maxDepth int, fn WalkFunc) error {
	return n.walk(ctx, key(path), 0, maxDepth, fn)
}

func (n *Navigator) walk(ctx context.Context, path string, depth, maxDepth int, fn WalkFunc) error {
	st, err := n.LoadAll(ctx, path)
	if err != nil {
		return err
	}
	for _, item := range st.Children {
		if err := fn(item, depth); err != nil {
			return err
		}
		if item.IsDirectory && (maxDepth < 0 || depth+1 <= maxDepth) {
			if err := n.walk(ctx, item.Path, depth+1, maxDepth, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
