package navigator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/3Eeeecho/go-datahub/internal/models"
)

// fakeFetcher 按 path 返回预设的分页, cursor 为上一页最后一项的名字
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][]models.FileTreeItem
	calls []string
	err   error
}

func (f *fakeFetcher) ListFolder(_ context.Context, _ string, path, cursor string, limit int) (*models.FolderListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s|%s", path, cursor))
	if f.err != nil {
		return nil, f.err
	}
	items := f.pages[path]
	start := 0
	if cursor != "" {
		for i, it := range items {
			if it.Name == cursor {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(items))
	out := &models.FolderListing{Items: items[start:end], TotalCount: len(items), HasMore: end < len(items)}
	if out.HasMore {
		out.NextCursor = items[end-1].Name
	}
	return out, nil
}

func dir(path string) models.FileTreeItem {
	return models.FileTreeItem{Name: path[strings.LastIndex(path, "/")+1:], Path: path, IsDirectory: true}
}

func file(path string) models.FileTreeItem {
	return models.FileTreeItem{Name: path[strings.LastIndex(path, "/")+1:], Path: path}
}

func newFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string][]models.FileTreeItem{
		"":     {dir("data"), file("README.md")},
		"data": {file("data/a.json"), file("data/b.json"), file("data/c.json")},
	}}
}

func TestExpandFetchesOnce(t *testing.T) {
	f := newFetcher()
	nav := New(f, "d1", 10)
	ctx := context.Background()

	st, err := nav.Expand(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Expanded || !st.Loaded || len(st.Children) != 2 {
		t.Fatalf("state = %+v", st)
	}

	nav.Collapse("")
	if st, _ := nav.State(""); st.Expanded || len(st.Children) != 2 {
		t.Fatalf("collapse should keep children: %+v", st)
	}

	if _, err := nav.Expand(ctx, "/"); err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 1 {
		t.Errorf("calls = %v, want a single fetch", f.calls)
	}
}

func TestLoadMoreAppends(t *testing.T) {
	f := newFetcher()
	nav := New(f, "d1", 2)
	ctx := context.Background()

	st, err := nav.Expand(ctx, "data/")
	if err != nil {
		t.Fatal(err)
	}
	if !st.HasMore || st.NextCursor != "b.json" {
		t.Fatalf("state = %+v", st)
	}

	st, err = nav.LoadMore(ctx, "data")
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Children) != 3 || st.HasMore || st.Children[2].Name != "c.json" {
		t.Fatalf("state = %+v", st)
	}

	// 没有更多时不再请求
	if _, err := nav.LoadMore(ctx, "data"); err != nil {
		t.Fatal(err)
	}
	want := []string{"data|", "data|b.json"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", f.calls, want)
	}
}

func TestLoadMoreBeforeExpand(t *testing.T) {
	f := newFetcher()
	nav := New(f, "d1", 2)
	st, err := nav.LoadMore(context.Background(), "data")
	if err != nil || st.Loaded {
		t.Fatalf("state = %+v err = %v", st, err)
	}
	if len(f.calls) != 0 {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestExpandErrorAllowsRetry(t *testing.T) {
	f := newFetcher()
	f.err = errors.New("boom")
	nav := New(f, "d1", 10)
	ctx := context.Background()

	st, err := nav.Expand(ctx, "")
	if err == nil || st.Loaded || st.Loading || st.Err == nil {
		t.Fatalf("state = %+v err = %v", st, err)
	}

	f.err = nil
	st, err = nav.Expand(ctx, "")
	if err != nil || !st.Loaded || st.Err != nil {
		t.Fatalf("retry state = %+v err = %v", st, err)
	}
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{"unbounded", -1, []string{"0:data", "1:data/a.json", "1:data/b.json", "1:data/c.json", "0:README.md"}},
		{"top level only", 0, []string{"0:data", "0:README.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := New(newFetcher(), "d1", 2)
			var got []string
			err := nav.Walk(context.Background(), "", tt.maxDepth, func(item models.FileTreeItem, depth int) error {
				got = append(got, fmt.Sprintf("%d:%s", depth, item.Path))
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConcurrentExpand(t *testing.T) {
	f := newFetcher()
	nav := New(f, "d1", 10)

	var wg sync.WaitGroup
	for _, p := range []string{"", "data", "", "data"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := nav.Expand(context.Background(), p); err != nil {
				t.Error(err)
			}
		}(p)
	}
	wg.Wait()

	root, _ := nav.State("")
	data, _ := nav.State("data")
	if !root.Loaded || !data.Loaded || len(data.Children) != 3 {
		t.Errorf("root=%+v data=%+v", root, data)
	}
}
