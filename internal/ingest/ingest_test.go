package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/3Eeeecho/go-datahub/internal/models"
)

func TestIgnoreRules(t *testing.T) {
	tests := []struct {
		name string
		dir  bool
		want bool
	}{
		{".git", true, true},
		{"node_modules", true, true},
		{"pkg.egg-info", true, true},
		{"data", true, false},
		{".DS_Store", false, true},
		{"cache.pyc", false, true},
		{"edit.swp", false, true},
		{".env", false, true},
		{".env.example", false, false},
		{"train.parquet", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IgnoreFile(tt.name)
			if tt.dir {
				got = IgnoreDir(tt.name)
			}
			if got != tt.want {
				t.Errorf("ignore(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# hi")
	writeFile(t, root, "data/train.json", "{}")
	writeFile(t, root, "data/.DS_Store", "x")
	writeFile(t, root, ".git/HEAD", "ref")
	writeFile(t, root, "src/__pycache__/m.pyc", "x")
	writeFile(t, root, "src/m.py", "print()")

	files, err := Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
	}
	want := []string{"README.md", "data/train.json", "src/m.py"}
	if strings.Join(rels, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", rels, want)
	}
	if TotalSize(files) != int64(len("# hi")+len("{}")+len("print()")) {
		t.Errorf("total = %d", TotalSize(files))
	}
}

func TestPreviewValue(t *testing.T) {
	long := make([]any, 105)
	for i := range long {
		long[i] = int64(i)
	}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "<nil>"},
		{"utf8 bytes", []byte("héllo"), "héllo"},
		{"binary bytes", []byte{0xff, 0xfe, 0x00}, "<binary: 3 bytes>"},
		{"nan", math.NaN(), "NaN"},
		{"nested", map[string]any{"k": []byte("v")}, "map[k:v]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fmt.Sprint(PreviewValue(tt.in)); got != tt.want {
				t.Errorf("PreviewValue = %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("long list", func(t *testing.T) {
		out := PreviewValue(long).([]any)
		if len(out) != 101 || out[99] != int64(99) || out[100] != "... (5 more)" {
			t.Errorf("len=%d last=%v", len(out), out[len(out)-1])
		}
	})
}

type fakeAPI struct {
	mu       sync.Mutex
	fail     map[string]bool
	bodies   map[string]string
	complete *models.UploadCompleteRequest
}

func (f *fakeAPI) UploadObject(_ context.Context, _ string, path string, body io.Reader, _ int64) (*models.UploadObjectResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[path] {
		return nil, errors.New("storage error")
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[path] = string(data)
	return &models.UploadObjectResponse{Path: path, URL: "http://cdn/" + path, Size: int64(len(data))}, nil
}

func (f *fakeAPI) CompleteUpload(_ context.Context, _ string, req *models.UploadCompleteRequest) (*models.UploadCompleteResponse, error) {
	f.complete = req
	return &models.UploadCompleteResponse{Uploaded: len(req.Files)}, nil
}

type fakePreviewer struct{ calls []string }

func (p *fakePreviewer) Extract(_ context.Context, path string) (*models.ParquetPreview, error) {
	p.calls = append(p.calls, filepath.Base(path))
	return &models.ParquetPreview{Columns: []string{"a"}, Rows: []map[string]any{}, TotalRows: 7}, nil
}

func TestUpload(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.json", "{}")
	writeFile(t, root, "b/train.parquet", "PAR1")
	writeFile(t, root, "c.md", "# c")
	files, err := Scan(root)
	if err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{fail: map[string]bool{"c.md": true}}
	previewer := &fakePreviewer{}
	var progress int
	var pmu sync.Mutex
	res, err := Upload(context.Background(), api, "d1", files, Options{
		Workers:   2,
		Previewer: previewer,
		Progress: func(LocalFile, error) {
			pmu.Lock()
			progress++
			pmu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if progress != 3 || len(res.Failed) != 1 || res.Failed[0].File.RelPath != "c.md" {
		t.Fatalf("progress=%d failed=%+v", progress, res.Failed)
	}
	if res.Registered != 2 || res.TotalSize != 6 {
		t.Errorf("registered=%d total=%d", res.Registered, res.TotalSize)
	}
	if api.complete == nil || len(api.complete.Files) != 2 {
		t.Fatalf("complete = %+v", api.complete)
	}
	first, second := api.complete.Files[0], api.complete.Files[1]
	if first.Path != "a.json" || first.PreviewData != nil || first.URL != "http://cdn/a.json" {
		t.Errorf("first = %+v", first)
	}
	if second.Path != "b/train.parquet" || second.Name != "train.parquet" || second.PreviewData == nil || second.PreviewData.TotalRows != 7 {
		t.Errorf("second = %+v", second)
	}
	if api.bodies["b/train.parquet"] != "PAR1" {
		t.Errorf("bodies = %v", api.bodies)
	}
	if strings.Join(previewer.calls, ",") != "train.parquet" {
		t.Errorf("previewer calls = %v", previewer.calls)
	}
}

func TestUploadAllFailed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.json", "{}")
	files, _ := Scan(root)

	api := &fakeAPI{fail: map[string]bool{"a.json": true}}
	_, err := Upload(context.Background(), api, "d1", files, Options{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v", err)
	}
	if api.complete != nil {
		t.Error("upload-complete should not be called")
	}
}
