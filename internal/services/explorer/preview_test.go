package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/config"
	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/mocks"
	"go.uber.org/mock/gomock"
	"gorm.io/datatypes"
)

var testPreviewCfg = config.PreviewConfig{
	JSONMaxBytes:     64,
	MarkdownMaxBytes: 16,
	VideoURLTTL:      time.Hour,
}

func newPreviewFixture(t *testing.T) (*mocks.MockObjectStore, *mocks.MockFileRepository, PreviewService) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockObjectStore(ctrl)
	repo := mocks.NewMockFileRepository(ctrl)
	return store, repo, NewPreviewService(store, repo, testPreviewCfg)
}

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestPreviewJSON(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantContent   string
		wantTruncated bool
		wantParseErr  bool
	}{
		{"pretty", `{"a":1}`, "{\n  \"a\": 1\n}", false, false},
		{"surrounding whitespace", "\n  [1,2]  \n", "[\n  1,\n  2\n]", false, false},
		{"invalid", `{"a":`, `{"a":`, false, true},
		{"truncated", `{"k":"` + strings.Repeat("x", 100) + `"}`, `{"k":"` + strings.Repeat("x", 58), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, svc := newPreviewFixture(t)
			store.EXPECT().
				GetObject(gomock.Any(), "datasets/ds/conf/a.json", testPreviewCfg.JSONMaxBytes+1).
				Return(body(tt.content), nil)

			p, err := svc.GetPreview(context.Background(), "ds", "conf/a.json")
			if err != nil {
				t.Fatalf("GetPreview: %v", err)
			}
			jp, ok := p.(*models.JSONPreview)
			if !ok {
				t.Fatalf("preview type %T", p)
			}
			if jp.Type != models.FileTypeJSON || jp.Content != tt.wantContent ||
				jp.Truncated != tt.wantTruncated || jp.ParseError != tt.wantParseErr {
				t.Fatalf("preview = %+v", jp)
			}
		})
	}
}

func TestPreviewMarkdown(t *testing.T) {
	store, _, svc := newPreviewFixture(t)
	store.EXPECT().
		GetObject(gomock.Any(), "datasets/ds/README.MD", testPreviewCfg.MarkdownMaxBytes+1).
		Return(body("# Title\n\nsome longer body"), nil)

	p, err := svc.GetPreview(context.Background(), "ds", "README.MD")
	if err != nil {
		t.Fatalf("GetPreview: %v", err)
	}
	mp := p.(*models.MarkdownPreview)
	if mp.Content != "# Title\n\nsome lo" || !mp.Truncated || mp.Type != models.FileTypeMarkdown {
		t.Fatalf("preview = %+v", mp)
	}
}

func TestPreviewVideo(t *testing.T) {
	store, _, svc := newPreviewFixture(t)
	store.EXPECT().
		PresignGetObject(gomock.Any(), "datasets/ds/clips/a.mp4", time.Hour).
		Return("https://cdn.example.com/a.mp4?sig=1", nil)

	p, err := svc.GetPreview(context.Background(), "ds", "clips/a.mp4")
	if err != nil {
		t.Fatalf("GetPreview: %v", err)
	}
	raw, _ := json.Marshal(p)
	if string(raw) != `{"type":"mp4","videoUrl":"https://cdn.example.com/a.mp4?sig=1"}` {
		t.Fatalf("json = %s", raw)
	}
}

func TestPreviewParquet(t *testing.T) {
	stored := `{"columns":["id"],"rows":[{"id":1}],"totalRows":1}`
	tests := []struct {
		name string
		data datatypes.JSON
		want string
	}{
		{"stored", datatypes.JSON(stored), `{"type":"parquet","parquetPreview":` + stored + `}`},
		{"missing", nil, `{"type":"parquet","error":"` + ParquetPreviewUnavailable + `"}`},
		{"json null", datatypes.JSON("null"), `{"type":"parquet","error":"` + ParquetPreviewUnavailable + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo, svc := newPreviewFixture(t)
			repo.EXPECT().FindPreviewData(gomock.Any(), "ds", "t/train.parquet").Return(tt.data, nil)

			p, err := svc.GetPreview(context.Background(), "ds", "t/train.parquet")
			if err != nil {
				t.Fatalf("GetPreview: %v", err)
			}
			raw, _ := json.Marshal(p)
			if string(raw) != tt.want {
				t.Fatalf("json = %s", raw)
			}
		})
	}
}

func TestPreviewUnsupported(t *testing.T) {
	_, _, svc := newPreviewFixture(t)
	p, err := svc.GetPreview(context.Background(), "ds", "weights.bin")
	if err != nil {
		t.Fatalf("GetPreview: %v", err)
	}
	raw, _ := json.Marshal(p)
	if string(raw) != `{"type":"other","error":"Preview not supported for this file type"}` {
		t.Fatalf("json = %s", raw)
	}
}

func TestPreviewErrors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, _, svc := newPreviewFixture(t)
		if _, err := svc.GetPreview(context.Background(), "ds", ""); !errors.Is(err, xerr.ErrFilePathRequired) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("traversal", func(t *testing.T) {
		_, _, svc := newPreviewFixture(t)
		if _, err := svc.GetPreview(context.Background(), "ds", "../other/a.json"); !errors.Is(err, xerr.ErrFilePathInvalid) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("storage failure", func(t *testing.T) {
		store, _, svc := newPreviewFixture(t)
		store.EXPECT().GetObject(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storage.ErrObjectNotFound)
		if _, err := svc.GetPreview(context.Background(), "ds", "a.json"); !errors.Is(err, xerr.ErrPreviewFailed) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("catalog failure", func(t *testing.T) {
		_, repo, svc := newPreviewFixture(t)
		repo.EXPECT().FindPreviewData(gomock.Any(), "ds", "a.parquet").Return(nil, errors.New("db down"))
		if _, err := svc.GetPreview(context.Background(), "ds", "a.parquet"); !errors.Is(err, xerr.ErrPreviewFailed) {
			t.Fatalf("err = %v", err)
		}
	})
}
