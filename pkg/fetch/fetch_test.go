package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// rangeServer serves content with bytes=N- range support and counts body
// requests, mirroring how image hosts behave.
func rangeServer(t *testing.T, content []byte) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		rng := r.Header.Get("Range")
		if rng == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(content)))
			w.Write(content)
			return
		}

		var start int64
		if _, err := fmt.Sscanf(rng, "bytes=%d-", &start); err != nil {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		if start >= int64(len(content)) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		rest := content[start:]
		w.Header().Set("Content-Length", strconv.Itoa(len(rest)))
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(rest)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func body(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte('a' + i%26)
	}
	return out
}

func TestFetchFullDownload(t *testing.T) {
	t.Parallel()

	content := body(300 * 1024)
	srv, _ := rangeServer(t, content)

	dest := filepath.Join(t.TempDir(), "images", "cheetah-1.0-factory.zip")
	f := &Fetcher{Client: srv.Client(), UserAgent: "pixelfirm/1.0"}

	got, err := f.Fetch(context.Background(), srv.URL, dest, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dest {
		t.Fatalf("returned path mismatch: %q", got)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("destination not published: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Fatalf("content mismatch: got %d bytes, want %d", len(data), len(content))
	}
	if _, err := os.Stat(dest + TempSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temporary file should be gone after success: %v", err)
	}
}

func TestFetchResumesPartialTransfer(t *testing.T) {
	t.Parallel()

	content := body(256 * 1024)
	srv, _ := rangeServer(t, content)

	dir := t.TempDir()
	dest := filepath.Join(dir, "image.zip")

	// A previous attempt left k bytes behind. Use marker bytes so an
	// accidental rewrite of the prefix is caught.
	k := 100 * 1024
	prefix := bytes.Repeat([]byte{'X'}, k)
	if err := os.WriteFile(dest+TempSuffix, prefix, 0644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{Client: srv.Client(), ChunkSize: 8 * 1024}
	if _, err := f.Fetch(context.Background(), srv.URL, dest, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != len(content) {
		t.Fatalf("final size = %d, want %d", len(data), len(content))
	}
	if !bytes.Equal(data[:k], prefix) {
		t.Fatal("first k bytes must be unchanged from the partial write")
	}
	if !bytes.Equal(data[k:], content[k:]) {
		t.Fatal("remainder must come from the ranged response")
	}
}

func TestFetchWithoutResumeRestartsFromZero(t *testing.T) {
	t.Parallel()

	content := body(64 * 1024)
	srv, _ := rangeServer(t, content)

	dir := t.TempDir()
	dest := filepath.Join(dir, "image.zip")
	if err := os.WriteFile(dest+TempSuffix, bytes.Repeat([]byte{'X'}, 1024), 0644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{Client: srv.Client()}
	if _, err := f.Fetch(context.Background(), srv.URL, dest, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("full request must truncate the stale partial file")
	}
}

func TestFetchRangeNotSatisfiablePublishesTemp(t *testing.T) {
	t.Parallel()

	content := body(32 * 1024)
	srv, requests := rangeServer(t, content)

	dir := t.TempDir()
	dest := filepath.Join(dir, "image.zip")
	// Temporary file already holds everything the server has.
	if err := os.WriteFile(dest+TempSuffix, content, 0644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{Client: srv.Client()}
	got, err := f.Fetch(context.Background(), srv.URL, dest, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dest {
		t.Fatalf("returned path mismatch: %q", got)
	}
	if *requests != 1 {
		t.Fatalf("expected a single request, got %d", *requests)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("published file must equal the pre-existing temporary file")
	}
}

func TestFetchStatusErrorLeavesTempUntouched(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	dest := filepath.Join(dir, "image.zip")
	partial := bytes.Repeat([]byte{'X'}, 5*1024)
	if err := os.WriteFile(dest+TempSuffix, partial, 0644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{Client: srv.Client()}
	_, err := f.Fetch(context.Background(), srv.URL, dest, true)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Fatalf("status code = %d, want 404", statusErr.Code)
	}

	st, err := os.Stat(dest + TempSuffix)
	if err != nil {
		t.Fatalf("temporary file must survive the failure: %v", err)
	}
	if st.Size() != int64(len(partial)) {
		t.Fatalf("temporary file size changed: %d != %d", st.Size(), len(partial))
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("destination must not be published on failure")
	}
}

func TestFetchReportsProgress(t *testing.T) {
	t.Parallel()

	content := body(96 * 1024)
	srv, _ := rangeServer(t, content)

	dest := filepath.Join(t.TempDir(), "image.zip")

	var written []int64
	var lastTotal int64
	f := &Fetcher{
		Client:    srv.Client(),
		ChunkSize: 16 * 1024,
		Progress: func(w, total int64) {
			written = append(written, w)
			lastTotal = total
		},
	}
	if _, err := f.Fetch(context.Background(), srv.URL, dest, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lastTotal != int64(len(content)) {
		t.Fatalf("total = %d, want %d", lastTotal, len(content))
	}
	if len(written) == 0 || written[len(written)-1] != int64(len(content)) {
		t.Fatalf("progress never reached the full size: %v", written)
	}
	for i := 1; i < len(written); i++ {
		if written[i] < written[i-1] {
			t.Fatalf("byte count went backwards: %v", written)
		}
	}
}

func TestFetchResumeProgressIncludesExistingBytes(t *testing.T) {
	t.Parallel()

	content := body(64 * 1024)
	srv, _ := rangeServer(t, content)

	dest := filepath.Join(t.TempDir(), "image.zip")
	k := 24 * 1024
	if err := os.WriteFile(dest+TempSuffix, content[:k], 0644); err != nil {
		t.Fatal(err)
	}

	var first, lastTotal int64 = -1, 0
	f := &Fetcher{
		Client: srv.Client(),
		Progress: func(w, total int64) {
			if first == -1 {
				first = w
			}
			lastTotal = total
		},
	}
	if _, err := f.Fetch(context.Background(), srv.URL, dest, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != int64(k) {
		t.Fatalf("initial progress = %d, want existing byte count %d", first, k)
	}
	// The ranged response only declares the remainder; the fetcher adds the
	// bytes already on disk back in.
	if lastTotal != int64(len(content)) {
		t.Fatalf("total = %d, want %d", lastTotal, len(content))
	}
}

func TestFetchUnknownContentLength(t *testing.T) {
	t.Parallel()

	content := body(48 * 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the body forces chunked encoding, so no
		// Content-Length reaches the client.
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		w.Write(content)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "image.zip")

	var lastTotal int64
	f := &Fetcher{
		Client: srv.Client(),
		Progress: func(w, total int64) {
			lastTotal = total
		},
	}
	if _, err := f.Fetch(context.Background(), srv.URL, dest, false); err != nil {
		t.Fatalf("transfer must proceed without a content length: %v", err)
	}
	if lastTotal != UnknownTotal {
		t.Fatalf("total = %d, want UnknownTotal", lastTotal)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("content mismatch")
	}
}
