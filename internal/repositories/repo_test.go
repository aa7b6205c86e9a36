package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Dataset{}, &models.DatasetSplit{}, &models.DatasetFeature{}, &models.DatasetPreviewRow{}, &models.FileRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func seedFiles(t *testing.T, repo FileRepository, datasetID string, paths ...string) {
	t.Helper()
	records := make([]models.FileRecord, 0, len(paths))
	for _, p := range paths {
		name := p[strings.LastIndex(p, "/")+1:]
		records = append(records, models.FileRecord{
			DatasetID: datasetID, Path: p, Name: name, Type: models.Classify(p), Size: "1 KB",
		})
	}
	if err := repo.Upsert(context.Background(), records); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func paths(records []models.FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	sort.Strings(out)
	return out
}

func TestFindByPathPrefix(t *testing.T) {
	db := newTestDB(t)
	repo := NewFileRepository(db)
	ctx := context.Background()

	seedFiles(t, repo, "ds", "a/x.json", "a/b/y.json", "ab/z.json", "A/upper.json", "a_b/q.json", "root.md")
	seedFiles(t, repo, "other", "a/x.json")

	tests := []struct {
		prefix string
		want   []string
	}{
		{"", []string{"A/upper.json", "a/b/y.json", "a/x.json", "a_b/q.json", "ab/z.json", "root.md"}},
		{"a/", []string{"a/b/y.json", "a/x.json"}},
		{"a_", []string{"a_b/q.json"}},
		{"missing/", []string{}},
	}
	for _, tt := range tests {
		t.Run("prefix="+tt.prefix, func(t *testing.T) {
			got, err := repo.FindByPathPrefix(ctx, "ds", tt.prefix)
			if err != nil {
				t.Fatalf("FindByPathPrefix: %v", err)
			}
			if fmt.Sprint(paths(got)) != fmt.Sprint(tt.want) {
				t.Fatalf("got %v, want %v", paths(got), tt.want)
			}
		})
	}
}

func TestUpsertAndPreviewData(t *testing.T) {
	db := newTestDB(t)
	repo := NewFileRepository(db)
	ctx := context.Background()

	preview := datatypes.JSON(`{"columns":["x"],"rows":[{"x":1}],"totalRows":10}`)
	err := repo.Upsert(ctx, []models.FileRecord{
		{DatasetID: "ds", Path: "data/train.parquet", Name: "train.parquet", Type: models.FileTypeParquet, PreviewData: preview},
		{DatasetID: "ds", Path: "data/test.parquet", Name: "test.parquet", Type: models.FileTypeParquet},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.FindPreviewData(ctx, "ds", "data/train.parquet")
	if err != nil || got == nil {
		t.Fatalf("FindPreviewData: %v %s", err, got)
	}
	var decoded models.ParquetPreview
	if err := json.Unmarshal(got, &decoded); err != nil || decoded.TotalRows != 10 {
		t.Fatalf("unexpected preview %s (%v)", got, err)
	}

	for _, p := range []string{"data/test.parquet", "data/missing.parquet"} {
		got, err := repo.FindPreviewData(ctx, "ds", p)
		if err != nil || got != nil {
			t.Fatalf("%s: want nil preview, got %s (%v)", p, got, err)
		}
	}

	// 覆盖写入同一路径
	err = repo.Upsert(ctx, []models.FileRecord{
		{DatasetID: "ds", Path: "data/train.parquet", Name: "train.parquet", Type: models.FileTypeParquet, Size: "2 MB"},
	})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	n, err := repo.CountByDataset(ctx, "ds")
	if err != nil || n != 2 {
		t.Fatalf("count = %d (%v), want 2", n, err)
	}
	if got, _ := repo.FindPreviewData(ctx, "ds", "data/train.parquet"); got != nil {
		t.Fatalf("preview should be cleared by overwrite, got %s", got)
	}

	if err := repo.DeleteByDataset(ctx, nil, "ds"); err != nil {
		t.Fatalf("DeleteByDataset: %v", err)
	}
	if n, _ := repo.CountByDataset(ctx, "ds"); n != 0 {
		t.Fatalf("count after delete = %d", n)
	}
}

func newDataset(id, name string, updated string) *models.Dataset {
	d := &models.Dataset{ID: id, Name: name, Author: "lab", Description: name + " description", UpdatedAt: updated}
	d.ApplyDefaults(time.Now())
	return d
}

func TestDatasetRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewDatasetRepository(db)
	ctx := context.Background()

	d := newDataset("aloha-1", "ALOHA sim", "2024-05-01")
	d.Tags = datatypes.JSONSlice[string]{"manipulation", "bimanual"}
	d.Splits = []models.DatasetSplit{{Name: "train", Rows: 100}}
	d.Features = []models.DatasetFeature{{Name: "action", Type: "float32[14]"}}
	d.PreviewRows = []models.DatasetPreviewRow{{Data: datatypes.JSON(`{"step":0}`)}}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.FindByID(ctx, "aloha-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Format != "parquet" || got.License != "MIT" || got.Task != "Other" {
		t.Errorf("defaults not persisted: %+v", got)
	}
	if len(got.Tags) != 2 || len(got.Splits) != 1 || len(got.Features) != 1 || len(got.PreviewRows) != 1 {
		t.Fatalf("children not loaded: %+v", got)
	}

	splits := []models.DatasetSplit{{DatasetID: "aloha-1", Name: "train", Rows: 80}, {DatasetID: "aloha-1", Name: "test", Rows: 20}}
	err = repo.Update(ctx, "aloha-1", map[string]any{"likes": 7}, DatasetChildren{Splits: &splits})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.FindByID(ctx, "aloha-1")
	if got.Likes != 7 || len(got.Splits) != 2 || len(got.Features) != 1 {
		t.Fatalf("update not applied: likes=%d splits=%d features=%d", got.Likes, len(got.Splits), len(got.Features))
	}

	if err := repo.Update(ctx, "missing", map[string]any{"likes": 1}, DatasetChildren{}); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("Update missing: %v", err)
	}

	if err := repo.Delete(ctx, nil, "aloha-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, "aloha-1"); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("FindByID after delete: %v", err)
	}
	var orphans int64
	db.Model(&models.DatasetSplit{}).Where("dataset_id = ?", "aloha-1").Count(&orphans)
	if orphans != 0 {
		t.Fatalf("orphan splits: %d", orphans)
	}
	if err := repo.Delete(ctx, nil, "aloha-1"); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestDatasetRepositoryListAndFindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewDatasetRepository(db)
	ctx := context.Background()

	for _, d := range []*models.Dataset{
		newDataset("a", "Bridge V2", "2024-01-01"),
		newDataset("b", "RT-1 kitchen", "2024-03-01"),
		newDataset("c", "Bridge sim 100%", "2024-02-01"),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, total, err := repo.List(ctx, DatasetQuery{Limit: 10})
	if err != nil || total != 3 {
		t.Fatalf("List: total=%d err=%v", total, err)
	}
	if items[0].ID != "b" || items[1].ID != "c" || items[2].ID != "a" {
		t.Fatalf("order = %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}

	items, total, _ = repo.List(ctx, DatasetQuery{Query: "bridge", Limit: 1})
	if total != 2 || len(items) != 1 || items[0].ID != "c" {
		t.Fatalf("query page: total=%d items=%v", total, items)
	}

	_, total, _ = repo.List(ctx, DatasetQuery{Query: "100%", Limit: 10})
	if total != 1 {
		t.Fatalf("escaped percent matched %d rows", total)
	}

	found, err := repo.FindByIDs(ctx, []string{"c", "missing", "a"})
	if err != nil || len(found) != 2 || found[0].ID != "c" || found[1].ID != "a" {
		t.Fatalf("FindByIDs = %v (%v)", found, err)
	}

	ok, _ := repo.Exists(ctx, "b")
	if !ok {
		t.Fatal("Exists(b) = false")
	}
}
