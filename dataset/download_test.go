package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFetchRetriesTransientFailures(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.bin")
	if err := fetch(srv.URL, path); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
	if atomic.LoadInt64(&hits) != 3 {
		t.Fatalf("server saw %d requests, want 3", hits)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "out.bin")
	if err := fetch(srv.URL, path); err == nil {
		t.Fatal("expected error from 404 server")
	}
	if got := atomic.LoadInt64(&hits); got != 1 {
		t.Fatalf("server saw %d requests, want 1 (no retries on 404)", got)
	}
}

func TestFetchLeavesNoPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	if err := fetch(srv.URL, path); err == nil {
		t.Fatal("expected error from 404 server")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("target file exists after failed download: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("leftover files after failed download: %v", entries)
	}
}

func TestGunzip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.gz")
	dst := filepath.Join(dir, "out")

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	gz.Write([]byte("hello idx"))
	gz.Close()
	if err := os.WriteFile(src, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := gunzip(src, dst); err != nil {
		t.Fatalf("gunzip: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello idx" {
		t.Fatalf("got %q", got)
	}
}

func writeTarGz(t *testing.T, path string, names map[string][]byte) {
	t.Helper()
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)
	for name, content := range names {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if strings.HasSuffix(name, "/") {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write(content); err != nil {
				t.Fatal(err)
			}
		}
	}
	tw.Close()
	gz.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestUntarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "a.tar.gz")
	writeTarGz(t, archive, map[string][]byte{
		"batches/":         nil,
		"batches/one.bin":  []byte("one"),
		"batches/deep.bin": []byte("deep"),
	})

	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := untarGz(archive, out); err != nil {
		t.Fatalf("untarGz: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(out, "batches", "one.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one" {
		t.Fatalf("got %q", got)
	}
}

func TestUntarGzRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, archive, map[string][]byte{
		"../evil.bin": []byte("nope"),
	})

	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := untarGz(archive, out); err == nil {
		t.Fatal("expected error for entry escaping the target dir")
	}
}
