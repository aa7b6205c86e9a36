package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/3Eeeecho/go-datahub/internal/models"
	"github.com/3Eeeecho/go-datahub/internal/pkg/storage"
	"github.com/3Eeeecho/go-datahub/internal/pkg/xerr"
	"github.com/3Eeeecho/go-datahub/internal/repositories"
	"github.com/3Eeeecho/go-datahub/mocks"
	"go.uber.org/mock/gomock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

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
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type fakeIndex struct {
	docs      map[string]*models.Dataset
	searchIDs []string
	searchErr error
	deleted   []string
}

func (f *fakeIndex) Index(_ context.Context, d *models.Dataset) error {
	if f.docs == nil {
		f.docs = map[string]*models.Dataset{}
	}
	f.docs[d.ID] = d
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query string, limit, offset int) ([]string, int64, error) {
	return f.searchIDs, int64(len(f.searchIDs)), f.searchErr
}

type fakePublisher struct {
	queue string
	body  []byte
	err   error
}

func (f *fakePublisher) Publish(queue string, body []byte) error {
	f.queue, f.body = queue, body
	return f.err
}

type fixture struct {
	svc   Service
	files repositories.FileRepository
	repo  repositories.DatasetRepository
	store *mocks.MockObjectStore
	index *fakeIndex
}

func newFixture(t *testing.T, publisher *fakePublisher) *fixture {
	t.Helper()
	db := newTestDB(t)
	store := mocks.NewMockObjectStore(gomock.NewController(t))
	f := &fixture{
		files: repositories.NewFileRepository(db),
		repo:  repositories.NewDatasetRepository(db),
		store: store,
		index: &fakeIndex{},
	}
	deps := Deps{
		Datasets:   f.repo,
		Files:      f.files,
		TM:         repositories.NewTransactionManager(db),
		Store:      store,
		Index:      f.index,
		PurgeQueue: "dataset.purge",
		Now:        func() time.Time { return fixedNow },
	}
	if publisher != nil {
		deps.Publisher = publisher
	}
	f.svc = NewService(deps)
	return f
}

func createRequest(name string) *models.CreateDatasetRequest {
	return &models.CreateDatasetRequest{
		Name:        name,
		Author:      "stanford",
		Description: "# Movie reviews\n\nBinary **sentiment**.",
		Tags:        []string{"nlp"},
		Splits:      []models.SplitInput{{Name: "train", Rows: 25000}, {Name: "test", Rows: 25000}},
		Features:    []models.FeatureInput{{Name: "text", Type: "string"}},
		PreviewData: []map[string]any{{"text": "great", "label": 1}},
	}
}

func TestCreateAndGetDataset(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ds, err := f.svc.CreateDataset(ctx, createRequest("IMDB Reviews"))
	if err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	wantID := fmt.Sprintf("imdb-reviews-%d", fixedNow.UnixMilli())
	if ds.ID != wantID {
		t.Errorf("id = %q, want %q", ds.ID, wantID)
	}
	if ds.Format != models.DefaultFormat || ds.License != models.DefaultLicense || ds.Task != models.DefaultTask {
		t.Errorf("defaults not applied: %+v", ds)
	}
	if ds.UpdatedAt != "2024-05-01" {
		t.Errorf("updatedAt = %q", ds.UpdatedAt)
	}
	if _, ok := f.index.docs[ds.ID]; !ok {
		t.Error("dataset was not indexed")
	}

	if err := f.files.Upsert(ctx, []models.FileRecord{
		{DatasetID: ds.ID, Path: "train.parquet", Name: "train.parquet", Type: models.FileTypeParquet},
	}); err != nil {
		t.Fatal(err)
	}

	detail, err := f.svc.GetDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if detail.FileCount != 1 || len(detail.Splits) != 2 || len(detail.Features) != 1 {
		t.Errorf("detail = %+v", detail)
	}
	if len(detail.PreviewData) != 1 || detail.PreviewData[0]["text"] != "great" {
		t.Errorf("previewData = %v", detail.PreviewData)
	}
	if !strings.Contains(detail.DescriptionHTML, "<strong>sentiment</strong>") {
		t.Errorf("descriptionHtml = %q", detail.DescriptionHTML)
	}

	raw, _ := json.Marshal(detail)
	for _, key := range []string{`"id":"` + ds.ID + `"`, `"fileCount":1`, `"descriptionHtml"`, `"previewData":[{`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("detail json missing %s: %s", key, raw)
		}
	}
}

func TestCreateDatasetValidation(t *testing.T) {
	f := newFixture(t, nil)
	req := createRequest("x")
	req.Author = "  "
	if _, err := f.svc.CreateDataset(context.Background(), req); !errors.Is(err, xerr.ErrValidationFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.GetDataset(context.Background(), "missing"); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateDataset(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ds, err := f.svc.CreateDataset(ctx, createRequest("MNIST"))
	if err != nil {
		t.Fatal(err)
	}

	license := "Apache-2.0"
	emptySplits := []models.SplitInput{}
	updated, err := f.svc.UpdateDataset(ctx, ds.ID, &models.DatasetPatch{License: &license, Splits: &emptySplits})
	if err != nil {
		t.Fatalf("UpdateDataset: %v", err)
	}
	if updated.License != license || updated.Name != "MNIST" {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.Splits) != 0 || len(updated.Features) != 1 {
		t.Errorf("children = %+v %+v", updated.Splits, updated.Features)
	}

	blank := ""
	if _, err := f.svc.UpdateDataset(ctx, ds.ID, &models.DatasetPatch{Name: &blank}); !errors.Is(err, xerr.ErrValidationFailed) {
		t.Errorf("blank name err = %v", err)
	}
	if _, err := f.svc.UpdateDataset(ctx, "missing", &models.DatasetPatch{License: &license}); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestListDatasets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a, _ := f.svc.CreateDataset(ctx, createRequest("Alpha"))
	b, _ := f.svc.CreateDataset(ctx, createRequest("Beta"))

	t.Run("search index order", func(t *testing.T) {
		f.index.searchIDs = []string{b.ID, a.ID}
		list, err := f.svc.ListDatasets(ctx, "movie", 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(list.Items) != 2 || list.Items[0].ID != b.ID || list.Total != 2 {
			t.Fatalf("list = %+v", list)
		}
	})

	t.Run("falls back to database", func(t *testing.T) {
		f.index.searchErr = errors.New("es down")
		defer func() { f.index.searchErr = nil }()
		list, err := f.svc.ListDatasets(ctx, "alp", 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(list.Items) != 1 || list.Items[0].ID != a.ID {
			t.Fatalf("list = %+v", list)
		}
	})

	t.Run("empty result is not null", func(t *testing.T) {
		f.index.searchIDs = nil
		list, err := f.svc.ListDatasets(ctx, "nothing", 10, 0)
		if err != nil {
			t.Fatal(err)
		}
		raw, _ := json.Marshal(list)
		if string(raw) != `{"items":[],"total":0}` {
			t.Fatalf("json = %s", raw)
		}
	})
}

func TestDeleteDatasetInlinePurge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ds, _ := f.svc.CreateDataset(ctx, createRequest("Gone"))
	_ = f.files.Upsert(ctx, []models.FileRecord{{DatasetID: ds.ID, Path: "a.json", Name: "a.json", Type: models.FileTypeJSON}})

	prefix := storage.DatasetPrefix(ds.ID)
	f.store.EXPECT().ListObjects(gomock.Any(), prefix).Return([]storage.ObjectInfo{{Key: prefix + "a.json"}}, nil)
	f.store.EXPECT().RemoveObjects(gomock.Any(), []string{prefix + "a.json"}).Return(nil)

	if err := f.svc.DeleteDataset(ctx, ds.ID); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}
	if n, _ := f.files.CountByDataset(ctx, ds.ID); n != 0 {
		t.Errorf("file records left: %d", n)
	}
	if _, err := f.svc.GetDataset(ctx, ds.ID); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Errorf("get after delete err = %v", err)
	}
	if len(f.index.deleted) != 1 || f.index.deleted[0] != ds.ID {
		t.Errorf("index deletes = %v", f.index.deleted)
	}

	if err := f.svc.DeleteDataset(ctx, ds.ID); !errors.Is(err, xerr.ErrDatasetNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestDeleteDatasetPublishesPurge(t *testing.T) {
	pub := &fakePublisher{}
	f := newFixture(t, pub)
	ctx := context.Background()
	ds, _ := f.svc.CreateDataset(ctx, createRequest("Queued"))

	if err := f.svc.DeleteDataset(ctx, ds.ID); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}
	if pub.queue != "dataset.purge" || string(pub.body) != `{"datasetId":"`+ds.ID+`"}` {
		t.Fatalf("published %s to %s", pub.body, pub.queue)
	}
}

func TestDeleteDatasetPublishFailureFallsBack(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	f := newFixture(t, pub)
	ctx := context.Background()
	ds, _ := f.svc.CreateDataset(ctx, createRequest("Fallback"))

	f.store.EXPECT().ListObjects(gomock.Any(), storage.DatasetPrefix(ds.ID)).Return(nil, nil)
	if err := f.svc.DeleteDataset(ctx, ds.ID); err != nil {
		t.Fatalf("DeleteDataset: %v", err)
	}
}
