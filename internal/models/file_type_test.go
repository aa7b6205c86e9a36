package models

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want FileType
	}{
		{"data/train-00000.parquet", FileTypeParquet},
		{"meta/info.JSON", FileTypeJSON},
		{"videos/ep_0001.mp4", FileTypeMP4},
		{"README.md", FileTypeMarkdown},
		{"docs/guide.markdown", FileTypeMarkdown},
		{"weights.bin", FileTypeOther},
		{"Makefile", FileTypeOther},
		{"archive.tar.gz", FileTypeOther},
		{"dir.json/file", FileTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		stored FileType
		path   string
		want   FileType
	}{
		{"stale other", FileTypeOther, "a/b.json", FileTypeJSON},
		{"unknown value", FileType("csv"), "a/b.md", FileTypeMarkdown},
		{"trusted", FileTypeParquet, "a/b.parquet", FileTypeParquet},
		{"other stays other", FileTypeOther, "a/b.txt", FileTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.stored, tt.path); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileTypesAreValid(t *testing.T) {
	for _, ft := range FileTypes() {
		if !ft.Valid() {
			t.Errorf("%q should be valid", ft)
		}
	}
	if FileType("").Valid() {
		t.Error("empty type should be invalid")
	}
}

func TestHasPreviewData(t *testing.T) {
	tests := []struct {
		name string
		data datatypes.JSON
		want bool
	}{
		{"nil", nil, false},
		{"json null", datatypes.JSON("null"), false},
		{"object", datatypes.JSON(`{"columns":["a"],"rows":[],"totalRows":0}`), true},
	}
	for _, tt := range tests {
		f := FileRecord{PreviewData: tt.data}
		if got := f.HasPreviewData(); got != tt.want {
			t.Errorf("%s: HasPreviewData = %v", tt.name, got)
		}
	}
}

func TestListingJSONShape(t *testing.T) {
	listing := FolderListing{
		Items: []FileTreeItem{
			{Name: "a", Path: "a", IsDirectory: true, ChildCount: 3},
			{Name: "b.json", Path: "b.json", Size: "1 KB", Type: FileTypeJSON},
		},
		TotalCount: 2,
	}
	raw, err := json.Marshal(listing)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"items":[{"name":"a","path":"a","isDirectory":true,"childCount":3},` +
		`{"name":"b.json","path":"b.json","isDirectory":false,"size":"1 KB","type":"json"}],` +
		`"hasMore":false,"totalCount":2}`
	if string(raw) != want {
		t.Fatalf("got  %s\nwant %s", raw, want)
	}
}
