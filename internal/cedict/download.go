package cedict

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"subcards/internal/fileutil"
	"subcards/internal/logging"
	"subcards/internal/services"
)

// DefaultURL is the MDBG gzip export of CC-CEDICT.
const DefaultURL = "https://www.mdbg.net/chinese/export/cedict/cedict_1_0_ts_utf-8_mdbg.txt.gz"

const lockRetryDelay = 200 * time.Millisecond

// Fetcher downloads the dictionary file.
type Fetcher struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// Ensure downloads the dictionary to path unless it already exists. Returns
// true when a download happened.
func (f Fetcher) Ensure(ctx context.Context, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, services.Wrap(services.ErrValidation, "dictionary", "stat", "Failed to inspect dictionary path", err)
	}
	return f.fetch(ctx, path, false)
}

// Refresh downloads the dictionary even if path exists.
func (f Fetcher) Refresh(ctx context.Context, path string) error {
	_, err := f.fetch(ctx, path, true)
	return err
}

func (f Fetcher) fetch(ctx context.Context, path string, force bool) (bool, error) {
	logger := f.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, services.Wrap(services.ErrConfiguration, "dictionary", "mkdir", "Failed to create dictionary directory", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "dictionary", "lock", "Failed to acquire dictionary lock", err)
	}
	if !locked {
		return false, services.Wrap(services.ErrTransient, "dictionary", "lock", "Dictionary lock unavailable", nil)
	}
	defer func() { _ = lock.Unlock() }()

	// Another process may have finished the download while we waited.
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}

	url := strings.TrimSpace(f.URL)
	if url == "" {
		url = DefaultURL
	}
	logger.Info("downloading CC-CEDICT", logging.String("url", url), logging.String("path", path))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, services.Wrap(services.ErrConfiguration, "dictionary", "build request", "Invalid dictionary download URL", err)
	}
	req.Header.Set("User-Agent", "subcards")
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrExternal, "dictionary", "download", "Dictionary download failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, services.Wrap(services.ErrExternal, "dictionary", "download",
			fmt.Sprintf("Dictionary download returned %s", resp.Status), nil)
	}

	digest, err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return decompress(w, resp.Body, url)
	})
	if err != nil {
		return false, services.Wrap(services.ErrExternal, "dictionary", "write", "Failed to store dictionary", err)
	}
	logger.Info("CC-CEDICT ready",
		logging.String("path", path),
		logging.String("sha256", digest),
		logging.Duration("elapsed", time.Since(start)),
	)
	return true, nil
}

// decompress copies body to w, gunzipping when the payload is gzip.
func decompress(w io.Writer, body io.Reader, url string) error {
	if !strings.HasSuffix(strings.ToLower(url), ".gz") {
		_, err := io.Copy(w, body)
		return err
	}
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()
	_, err = io.Copy(w, gz)
	return err
}

// Open ensures the dictionary exists at path and parses it.
func Open(ctx context.Context, path string, f Fetcher) (*Dictionary, error) {
	if _, err := f.Ensure(ctx, path); err != nil {
		return nil, err
	}
	d, err := Load(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "dictionary", "parse", "Failed to load dictionary", err)
	}
	f.logger().Info("CC-CEDICT loaded",
		logging.Int("headwords", d.Len()),
		logging.Int("entries", d.Total()),
	)
	return d, nil
}

func (f Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return logging.NewNop()
	}
	return f.Logger
}
