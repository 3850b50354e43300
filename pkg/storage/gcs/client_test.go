package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := &Client{
		httpClient:    srv.Client(),
		endpoint:      srv.URL,
		bucket:        "greenbasket-media",
		accessToken:   "test-token",
		publicBaseURL: "https://cdn.example.com",
	}
	return client, srv
}

func TestUploadReturnsPublicURL(t *testing.T) {
	var gotAuth, gotPath, gotQuery, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"name":"categories/abc/image.png"}`)
	})

	url, err := client.Upload(context.Background(), "categories/abc/image.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if url != "https://cdn.example.com/categories/abc/image.png" {
		t.Fatalf("unexpected public url %s", url)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("missing bearer token, got %q", gotAuth)
	}
	if gotPath != "/upload/storage/v1/b/greenbasket-media/o" {
		t.Fatalf("unexpected upload path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "uploadType=media") {
		t.Fatalf("expected media upload query, got %s", gotQuery)
	}
	if gotBody != "png-bytes" {
		t.Fatalf("body not forwarded, got %q", gotBody)
	}
}

func TestDeleteTreatsNotFoundAsSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.Delete(context.Background(), "categories/gone.png"); err != nil {
		t.Fatalf("expected 404 to be tolerated, got %v", err)
	}
}

func TestDeleteFolderRemovesAllListedObjects(t *testing.T) {
	var deleted []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"items":[{"name":"vendors/v1/gst.pdf"},{"name":"vendors/v1/fssai.pdf"}]}`)
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	if err := client.DeleteFolder(context.Background(), "vendors/v1"); err != nil {
		t.Fatalf("delete folder failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deletes, got %d", len(deleted))
	}
}

func TestDeleteFolderContinuesPastFailures(t *testing.T) {
	var deletes int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"items":[{"name":"vendors/v1/a.pdf"},{"name":"vendors/v1/b.pdf"}]}`)
		case http.MethodDelete:
			deletes++
			if deletes == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}
	})

	err := client.DeleteFolder(context.Background(), "vendors/v1")
	if err == nil {
		t.Fatal("expected first delete failure to surface")
	}
	if deletes != 2 {
		t.Fatalf("expected both deletes attempted, got %d", deletes)
	}
}

func TestNewClientPingFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.StorageConfig{
		Endpoint:   srv.URL,
		BucketName: "greenbasket-media",
		Timeout:    2 * time.Second,
	}
	if _, err := NewClient(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected ping failure to surface")
	}
}
