package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

// Resolver obtains the manifest, preferring the remote copy and falling back
// to the local file the updater maintains. A successful remote fetch fully
// replaces local contents, it is never merged with them.
type Resolver struct {
	// RemoteURL is the published manifest location. Empty disables the
	// remote attempt.
	RemoteURL string
	// LocalPath is the fallback manifest file. Empty disables the fallback.
	LocalPath string
	// Client is used for the remote fetch. http.DefaultClient when nil.
	Client *http.Client
}

// Resolve returns the manifest from the first source that yields a valid
// document, or ErrUnavailable when both remote and local fail.
func (r *Resolver) Resolve(ctx context.Context) (Manifest, error) {
	m, remoteErr := r.fetchRemote(ctx)
	if remoteErr == nil {
		return m, nil
	}
	slog.Debug("remote manifest fetch failed, trying local copy", "url", r.RemoteURL, "error", remoteErr)

	m, localErr := r.readLocal()
	if localErr == nil {
		return m, nil
	}

	return nil, fmt.Errorf("%w: remote: %v; local: %v", ErrUnavailable, remoteErr, localErr)
}

func (r *Resolver) fetchRemote(ctx context.Context) (Manifest, error) {
	if r.RemoteURL == "" {
		return nil, fmt.Errorf("no remote manifest URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.RemoteURL, nil)
	if err != nil {
		return nil, err
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (r *Resolver) readLocal() (Manifest, error) {
	if r.LocalPath == "" {
		return nil, fmt.Errorf("no local manifest path configured")
	}
	if _, err := os.Stat(r.LocalPath); err != nil {
		return nil, err
	}
	return Load(r.LocalPath)
}
