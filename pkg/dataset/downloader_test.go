package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

const sampleJSON = `{"reviewerID":"A1","asin":"B1","reviewText":"good product. good value","overall":5}
`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func tgzBytes(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	if err := tw.WriteHeader(&tar.Header{Name: "README", Mode: 0644, Size: 2, Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	tw.Write([]byte("hi"))
	if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(data)), Typeflag: tar.TypeReg}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	tw.Write(data)
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return gzipBytes(t, tarBuf.Bytes())
}

func TestEnsureDataset_LocalCache(t *testing.T) {
	// The file just needs to exist; no url is configured, so any download
	// attempt would fail.
	path := filepath.Join(t.TempDir(), "reviews.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := EnsureDataset(context.Background(), path, ""); err != nil {
		t.Fatalf("EnsureDataset failed with local file: %v", err)
	}
}

func TestEnsureDataset_MissingWithoutURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.json")
	if err := EnsureDataset(context.Background(), path, ""); err == nil {
		t.Fatal("expected error when file is missing and no url is set")
	}
}

func TestEnsureDataset_DownloadsGzip(t *testing.T) {
	body := gzipBytes(t, []byte(sampleJSON))
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "data", "reviews.json")
	url := srv.URL + "/files/reviews_Sample_5.json.gz"

	if err := EnsureDataset(context.Background(), dest, url); err != nil {
		t.Fatalf("EnsureDataset: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(got) != sampleJSON {
		t.Fatalf("unexpected content: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "data", "reviews_Sample_5.json.gz")); err != nil {
		t.Fatalf("expected archive kept next to data file: %v", err)
	}

	// Removing the data file re-extracts from the kept archive without a new request.
	os.Remove(dest)
	if err := EnsureDataset(context.Background(), dest, url); err != nil {
		t.Fatalf("EnsureDataset (reuse): %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 download, got %d", n)
	}
}

func TestEnsureDataset_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "reviews.json")
	if err := EnsureDataset(context.Background(), dest, srv.URL+"/x.json.gz"); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := os.Stat(filepath.Join(dir, "x.json.gz")); !os.IsNotExist(err) {
		t.Fatalf("failed download must not leave an archive behind, stat err = %v", err)
	}
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "reviews.tgz")
	if err := os.WriteFile(archive, tgzBytes(t, "data/reviews.json", []byte(sampleJSON)), 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	dest := filepath.Join(dir, "out.json")
	if err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != sampleJSON {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestExtractTarGzWithoutJSON(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "reviews.tar.gz")
	if err := os.WriteFile(archive, tgzBytes(t, "notes.txt", []byte("x")), 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	if err := Extract(archive, filepath.Join(dir, "out.json")); err == nil {
		t.Fatal("expected error for archive without json entry")
	}
}
