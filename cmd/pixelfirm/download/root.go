package download

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"pixelfirm/pkg/config"
	"pixelfirm/pkg/db"
	"pixelfirm/pkg/fetch"
	"pixelfirm/pkg/firmware"
	"pixelfirm/pkg/manifest"
)

func GetCommand() *cobra.Command {
	var outDir string
	var noResume bool
	var timeoutSeconds int

	cmd := &cobra.Command{
		Use:   "download [codename]",
		Short: "Download the latest factory image for a device",
		Long: `Download the latest factory image for a device.

The manifest is fetched from its published location, falling back to the
local copy kept by 'pixelfirm manifest update'. Interrupted downloads leave
a .part file next to the destination and are resumed on the next run unless
--no-resume is given. Without a codename, a fuzzy picker over the manifest
entries is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runDownload(c, args, outDir, !noResume, timeoutSeconds)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config, else current dir)")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "Restart the transfer instead of resuming a partial file")
	cmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Per-request timeout in seconds (default from config)")

	return cmd
}

func runDownload(cmd *cobra.Command, args []string, outDir string, resume bool, timeoutSeconds int) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		if cfg == nil {
			return err
		}
		slog.Debug("failed to load config, using defaults", "error", err)
	}
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	timeout := cfg.Timeout()
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	resolver := &manifest.Resolver{
		RemoteURL: cfg.RemoteManifestURL,
		LocalPath: cfg.LocalManifestPath,
		Client:    &http.Client{Timeout: timeout},
	}

	m, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	var codename string
	if len(args) > 0 {
		codename = args[0]
	} else {
		codename, err = pickCodename(m)
		if err != nil {
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil
			}
			return err
		}
	}

	entry, err := m.EntryFor(codename)
	if err != nil {
		return err
	}
	slog.Info("selected image", "codename", codename, "version", entry.Version, "url", entry.URL)

	var bar *progressbar.ProgressBar
	svc := &firmware.Service{
		Resolver: resolver,
		Fetcher: &fetch.Fetcher{
			Client:    fetch.NewClient(timeout),
			ChunkSize: cfg.ChunkSize(),
			UserAgent: cfg.UserAgent,
			Progress: func(written, total int64) {
				if bar == nil {
					bar = newBar(codename, total)
				}
				_ = bar.Set64(written)
			},
		},
	}

	dest, err := svc.FetchEntry(ctx, entry, outDir, resume)
	if err != nil {
		return err
	}

	fmt.Println(dest)
	recordDownload(cmd, codename, entry, dest)
	return nil
}

func newBar(description string, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription(description),
		progressbar.OptionThrottle(80*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

func pickCodename(m manifest.Manifest) (string, error) {
	names := m.Codenames()
	if len(names) == 0 {
		return "", fmt.Errorf("manifest has no entries")
	}

	idx, err := fuzzyfinder.Find(
		names,
		func(i int) string {
			return fmt.Sprintf("%s (%s)", names[i], m[names[i]].Version)
		},
		fuzzyfinder.WithPreviewWindow(func(i int, width int, height int) string {
			if i == -1 {
				return ""
			}
			entry := m[names[i]]
			size := "unknown"
			if entry.Size != nil {
				size = fmt.Sprintf("%d bytes", *entry.Size)
			}
			return fmt.Sprintf("Codename: %s\nVersion:  %s\nSize:     %s\n\nURL:\n%s",
				names[i], entry.Version, size, entry.URL)
		}),
	)
	if err != nil {
		return "", err
	}
	return names[idx], nil
}

// recordDownload is best-effort: a broken history database never fails a
// finished download.
func recordDownload(cmd *cobra.Command, codename string, entry manifest.Entry, dest string) {
	database, err := db.Open()
	if err != nil {
		slog.Warn("failed to open history database", "error", err)
		return
	}
	defer database.Close()

	var bytes int64
	if st, err := os.Stat(dest); err == nil {
		bytes = st.Size()
	}

	err = database.RecordDownload(cmd.Context(), db.DownloadRecord{
		Codename:   codename,
		Version:    entry.Version,
		URL:        entry.URL,
		Path:       dest,
		Bytes:      bytes,
		FinishedAt: time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("failed to record download history", "error", err)
	}
}
