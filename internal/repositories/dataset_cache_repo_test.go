package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/cache"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"gorm.io/datatypes"
)

// fakeCache 以 JSON 形式保存值, 行为与 RedisCache 一致
type fakeCache struct {
	values map[string][]byte
	sets   map[string]map[string]bool
	gets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string][]byte{}, sets: map[string]map[string]bool{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = b
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string, target any) error {
	f.gets++
	b, ok := f.values[key]
	if !ok {
		return xerr.ErrCacheMiss
	}
	return json.Unmarshal(b, target)
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
		delete(f.sets, k)
	}
	return nil
}

func (f *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.values[key]
	return ok, nil
}

func (f *fakeCache) SAdd(_ context.Context, key string, members ...string) error {
	if f.sets[key] == nil {
		f.sets[key] = map[string]bool{}
	}
	for _, m := range members {
		f.sets[key][m] = true
	}
	return nil
}

func (f *fakeCache) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func TestCachedDatasetRepository(t *testing.T) {
	db := newTestDB(t)
	fc := newFakeCache()
	repo := NewCachedDatasetRepository(NewDatasetRepository(db), fc, time.Minute)
	ctx := context.Background()

	d := newDataset("ds-1", "Open X", "2024-06-01")
	d.PreviewRows = []models.DatasetPreviewRow{{Data: datatypes.JSON(`{"k":"v"}`)}}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.FindByID(ctx, "ds-1"); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if _, ok := fc.values[cache.DatasetKey("ds-1")]; !ok {
		t.Fatal("detail not cached after first read")
	}

	// 直接改库, 缓存命中时仍返回旧值
	db.Model(&models.Dataset{}).Where("id = ?", "ds-1").Update("likes", 42)
	got, err := repo.FindByID(ctx, "ds-1")
	if err != nil {
		t.Fatalf("cached FindByID: %v", err)
	}
	if got.Likes != 0 || len(got.PreviewRows) != 1 {
		t.Fatalf("expected cached copy, got likes=%d preview=%d", got.Likes, len(got.PreviewRows))
	}

	if _, _, err := repo.List(ctx, DatasetQuery{Limit: 10}); err != nil {
		t.Fatalf("List: %v", err)
	}
	listKey := cache.DatasetListKey("", 10, 0)
	if _, ok := fc.values[listKey]; !ok {
		t.Fatal("list not cached")
	}

	// 更新后详情与列表缓存都失效
	if err := repo.Update(ctx, "ds-1", map[string]any{"likes": 43}, DatasetChildren{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := fc.values[listKey]; ok {
		t.Fatal("list cache survived update")
	}
	got, _ = repo.FindByID(ctx, "ds-1")
	if got.Likes != 43 {
		t.Fatalf("likes = %d after invalidation", got.Likes)
	}
}

func TestCachedDatasetRepositoryNegativeCache(t *testing.T) {
	db := newTestDB(t)
	fc := newFakeCache()
	repo := NewCachedDatasetRepository(NewDatasetRepository(db), fc, time.Minute)
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("err = %v", err)
	}
	var marker cachedDataset
	if err := fc.Get(ctx, cache.DatasetKey("nope"), &marker); err != nil || !marker.NotFound {
		t.Fatalf("negative cache not written: %+v %v", marker, err)
	}
	if _, err := repo.FindByID(ctx, "nope"); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("cached miss err = %v", err)
	}
}
