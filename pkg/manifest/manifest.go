// Package manifest reads, resolves and maintains the mapping from device
// codename to published factory image.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnavailable means neither the remote nor the local manifest source
	// yielded a usable document.
	ErrUnavailable = errors.New("manifest unavailable")

	// ErrUnknownDevice means the manifest has no entry for the requested
	// codename.
	ErrUnknownDevice = errors.New("unknown device")
)

// Entry describes one published factory image. Size and Verified are filled
// by the updater when it HEAD-checks the URL and stay nil otherwise.
type Entry struct {
	URL      string `json:"url"`
	Version  string `json:"version"`
	Size     *int64 `json:"size,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
}

// Manifest maps device codenames to their latest factory image entry.
type Manifest map[string]Entry

// EntryFor looks up the entry for a codename. An entry with an empty URL is
// treated the same as a missing one: the fetcher has nothing to act on.
func (m Manifest) EntryFor(codename string) (Entry, error) {
	entry, ok := m[codename]
	if !ok || entry.URL == "" {
		return Entry{}, fmt.Errorf("%w: no manifest entry for codename %q", ErrUnknownDevice, codename)
	}
	return entry, nil
}

// Codenames returns the manifest keys sorted for stable listings.
func (m Manifest) Codenames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const schemaJSON = `{
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"url": {"type": "string", "minLength": 1},
			"version": {"type": "string"},
			"size": {"type": ["integer", "null"]},
			"verified": {"type": ["boolean", "null"]}
		},
		"required": ["url"]
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// Decode parses and validates a manifest document. Documents that parse as
// JSON but do not match the expected shape are rejected the same way as
// malformed ones.
func Decode(data []byte) (Manifest, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if !result.Valid() {
		var errs strings.Builder
		for _, desc := range result.Errors() {
			fmt.Fprintf(&errs, "- %s\n", desc)
		}
		return nil, fmt.Errorf("manifest validation failed:\n%s", errs.String())
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

// Load reads and validates the manifest file at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save writes the manifest at path, keeping a timestamped backup of the
// previous version. The backup lands next to the manifest as
// <path>.bak.<unix-seconds>.
func Save(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		backup := fmt.Sprintf("%s.bak.%d", path, time.Now().Unix())
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to back up previous manifest: %w", err)
		}
	}

	return os.WriteFile(path, data, 0644)
}
