package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/3Eeeecho/go-datahub/internal/models"
)

func TestEnvelopeDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		switch r.URL.Path {
		case "/api/datasets":
			if r.URL.Query().Get("q") != "imdb" || r.URL.Query().Get("limit") != "5" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{"code":20000,"message":"ok","data":{"items":[{"id":"imdb-1","name":"IMDB"}],"total":1}}`))
		case "/api/datasets/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":40401,"message":"Dataset not found","data":null}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "tok")
	list, err := c.ListDatasets(context.Background(), "imdb", 5, 0)
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].ID != "imdb-1" {
		t.Errorf("list = %+v", list)
	}

	_, err = c.GetDataset(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 40401 || apiErr.Message != "Dataset not found" {
		t.Fatalf("err = %v", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound = false")
	}
}

func TestRawEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/datasets/d1/files":
			q := r.URL.Query()
			if q.Get("path") != "data" || q.Get("cursor") != "b" || q.Get("limit") != "2" {
				t.Errorf("query = %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(models.FolderListing{
				Items:      []models.FileTreeItem{{Name: "c.json", Path: "data/c.json"}},
				TotalCount: 3,
			})
		case "/api/datasets/d1/files/preview":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"Failed to fetch file preview"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	listing, err := c.ListFolder(context.Background(), "d1", "data", "b", 2)
	if err != nil {
		t.Fatalf("ListFolder: %v", err)
	}
	if listing.TotalCount != 3 || listing.Items[0].Path != "data/c.json" {
		t.Errorf("listing = %+v", listing)
	}

	_, err = c.GetPreview(context.Background(), "d1", "a.json")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.Message != "Failed to fetch file preview" {
		t.Fatalf("err = %v", err)
	}
}

func TestUploadObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Query().Get("path") != "data/a b.json" {
			t.Errorf("request = %s %s", r.Method, r.URL.String())
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "hello" || r.ContentLength != 5 {
			t.Errorf("body = %q length=%d", body, r.ContentLength)
		}
		w.Write([]byte(`{"code":20000,"message":"ok","data":{"path":"data/a b.json","url":"http://cdn/x","size":5}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	resp, err := c.UploadObject(context.Background(), "d1", "data/a b.json", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatalf("UploadObject: %v", err)
	}
	if resp.URL != "http://cdn/x" || resp.Size != 5 {
		t.Errorf("resp = %+v", resp)
	}
}
