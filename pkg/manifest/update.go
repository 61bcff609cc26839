package manifest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var factoryFilenamePattern = regexp.MustCompile(`^([a-z0-9]+)-([a-z0-9.]+)-factory`)

// ParseFactoryFilename extracts the codename and version from a factory image
// URL like https://host/path/<codename>-<version>-factory-<hash>.zip.
// ok is false when the final path segment does not look like a factory image.
func ParseFactoryFilename(rawURL string) (codename, version string, ok bool) {
	if rawURL == "" {
		return "", "", false
	}
	fname := rawURL[strings.LastIndex(rawURL, "/")+1:]
	m := factoryFilenamePattern.FindStringSubmatch(fname)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Verification holds what a HEAD check learned about an image URL.
type Verification struct {
	Status      int
	ContentType string
	Size        *int64
	OK          bool
}

// VerifyURL HEAD-checks an image URL. It never fails: any transport error
// yields a zero Verification with OK=false, so the updater can still record
// an unverified entry.
func VerifyURL(ctx context.Context, client *http.Client, url string) Verification {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Verification{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Verification{}
	}
	defer resp.Body.Close()

	v := Verification{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if size, err := strconv.ParseInt(cl, 10, 64); err == nil {
			v.Size = &size
		}
	}
	v.OK = v.Status >= 200 && v.Status < 400 &&
		(strings.Contains(v.ContentType, "zip") || v.Size != nil)
	return v
}

// UpdateEntry adds or replaces the manifest entry for the image at url,
// backing up the previous manifest file before writing. When verify is set
// the URL is HEAD-checked and the entry records the reported size and whether
// the check passed.
func UpdateEntry(ctx context.Context, client *http.Client, path, url string, verify bool) (Entry, error) {
	codename, version, ok := ParseFactoryFilename(url)
	if !ok {
		return Entry{}, fmt.Errorf("could not parse codename from url %q", url)
	}
	if version == "" {
		version = "unknown"
	}

	entry := Entry{URL: url, Version: version}
	if verify {
		v := VerifyURL(ctx, client, url)
		entry.Size = v.Size
		verified := v.OK
		entry.Verified = &verified
	} else {
		verified := false
		entry.Verified = &verified
	}

	m, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("existing manifest unreadable, starting fresh", "path", path, "error", err)
		}
		m = Manifest{}
	}
	m[codename] = entry

	if err := Save(path, m); err != nil {
		return Entry{}, err
	}
	return entry, nil
}
