// Package firmware ties manifest resolution and the resumable fetcher into
// the one operation users care about: get the latest factory image for a
// device.
package firmware

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"

	"pixelfirm/pkg/fetch"
	"pixelfirm/pkg/manifest"
)

type Service struct {
	Resolver *manifest.Resolver
	Fetcher  *fetch.Fetcher
}

// LocateAndFetch resolves the manifest, looks up the entry for codename and
// downloads its image into outDir. Manifest and transfer errors propagate
// unchanged from the collaborators.
func (s *Service) LocateAndFetch(ctx context.Context, codename, outDir string, resume bool) (string, error) {
	m, err := s.Resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}

	entry, err := m.EntryFor(codename)
	if err != nil {
		return "", err
	}
	slog.Info("selected image", "codename", codename, "version", entry.Version)

	return s.FetchEntry(ctx, entry, outDir, resume)
}

// FetchEntry downloads the image behind a manifest entry into outDir, named
// after the final URL path segment.
func (s *Service) FetchEntry(ctx context.Context, entry manifest.Entry, outDir string, resume bool) (string, error) {
	filename, err := FilenameFromURL(entry.URL)
	if err != nil {
		return "", err
	}
	return s.Fetcher.Fetch(ctx, entry.URL, filepath.Join(outDir, filename), resume)
}

// FilenameFromURL derives the destination filename from the final path
// segment of an image URL.
func FilenameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid image url %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("image url %q has no filename", rawURL)
	}
	return name, nil
}
