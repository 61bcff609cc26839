// Package fetch downloads a single resource to disk, resuming partial
// transfers across retries and publishing the final file atomically.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// TempSuffix marks a transfer in progress. The temporary file sits next to
// the destination and survives failed attempts so a retry can resume it.
const TempSuffix = ".part"

// DefaultChunkSize bounds how much of the body is held in memory per write.
const DefaultChunkSize = 128 * 1024

// UnknownTotal is reported to the progress callback when the server did not
// declare a usable content length.
const UnknownTotal int64 = -1

// StatusError reports a non-success HTTP status during a transfer.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("transfer failed: %s", e.Status)
	}
	return fmt.Sprintf("transfer failed: HTTP %d", e.Code)
}

// ProgressFunc observes transfer progress. written counts all bytes durably
// in the temporary file, including those from previous attempts; total is the
// expected final size or UnknownTotal.
type ProgressFunc func(written, total int64)

// Fetcher downloads URLs to local files. The zero value is usable.
type Fetcher struct {
	// Client issues the requests. http.DefaultClient when nil; per-request
	// timeouts belong on the client or the context.
	Client *http.Client
	// ChunkSize is the streaming buffer size. DefaultChunkSize when <= 0.
	ChunkSize int
	// UserAgent is sent with every request when non-empty.
	UserAgent string
	// Progress, when set, is called as bytes land in the temporary file.
	Progress ProgressFunc
}

// Fetch downloads url to dest. Parent directories are created as needed. The
// body streams into dest+TempSuffix, which is renamed over dest only when the
// whole body arrived. When resume is set and a temporary file already holds
// bytes, the request asks the server for the remainder and the file is opened
// for append; otherwise the temporary file is truncated and the full body is
// requested.
//
// On failure the temporary file keeps whatever bytes were written, so calling
// Fetch again with resume=true continues from the last durable byte. Fetch
// never retries internally.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string, resume bool) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}
	temp := dest + TempSuffix

	var existing int64
	if st, err := os.Stat(temp); err == nil {
		existing = st.Size()
	}
	resuming := resume && existing > 0

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if resuming {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existing))
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// 416 means the temporary file already covers everything the server
	// has: publish it as-is.
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		if err := os.Rename(temp, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	total := declaredTotal(resp, existing, resuming)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if resuming {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	} else {
		existing = 0
	}
	out, err := os.OpenFile(temp, flags, 0644)
	if err != nil {
		return "", err
	}

	if err := f.copyBody(out, resp.Body, existing, total); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(temp, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// copyBody streams body into out in ChunkSize chunks. Empty reads are
// skipped; only an error (or io.EOF) ends the transfer.
func (f *Fetcher) copyBody(out *os.File, body io.Reader, existing, total int64) error {
	chunkSize := f.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	written := existing
	if f.Progress != nil {
		f.Progress(written, total)
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if f.Progress != nil {
				f.Progress(written, total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// declaredTotal derives the expected final size for progress reporting. When
// resuming, the content length only covers the remainder, so the bytes
// already on disk are added back. Missing or malformed lengths degrade to
// UnknownTotal without failing the transfer.
func declaredTotal(resp *http.Response, existing int64, resuming bool) int64 {
	cl := resp.Header.Get("Content-Length")
	if cl == "" {
		return UnknownTotal
	}
	length, err := strconv.ParseInt(cl, 10, 64)
	if err != nil || length < 0 {
		return UnknownTotal
	}
	if resuming {
		return length + existing
	}
	return length
}
