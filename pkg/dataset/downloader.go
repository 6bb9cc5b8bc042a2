package dataset

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDownloadTimeout bounds a single archive download.
const DefaultDownloadTimeout = 10 * time.Minute

// Downloader provisions the review data file.
type Downloader struct {
	Client *http.Client
	// Logger is used for progress messages. nil means no logging.
	Logger *log.Logger
}

// EnsureDataset checks if the data file exists at path.
// If not, it downloads the archive at rawURL and decompresses it to path.
func EnsureDataset(ctx context.Context, path, rawURL string) error {
	d := &Downloader{Client: &http.Client{Timeout: DefaultDownloadTimeout}}
	return d.Ensure(ctx, path, rawURL)
}

// Ensure checks if the data file exists at dest.
// An archive already present next to dest (named after the last path segment
// of rawURL) is reused instead of being downloaded again.
func (d *Downloader) Ensure(ctx context.Context, dest, rawURL string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if rawURL == "" {
		return fmt.Errorf("data file %s missing and no download url configured", dest)
	}

	archiveName, err := archiveName(rawURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	archivePath := filepath.Join(filepath.Dir(dest), archiveName)

	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		d.logf("Data file not found at %s. Downloading %s...", dest, rawURL)
		if err := d.download(ctx, rawURL, archivePath); err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else {
		d.logf("Reusing downloaded archive %s", archivePath)
	}

	d.logf("Decompressing %s to %s", archivePath, dest)
	return Extract(archivePath, dest)
}

func (d *Downloader) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

func archiveName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid download url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("download url %q has no file name", rawURL)
	}
	return name, nil
}

func (d *Downloader) download(ctx context.Context, rawURL, archivePath string) error {
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "reviewgen-cli")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	// Write to a temp file first so an interrupted download is never reused.
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), archivePath)
}

// Extract decompresses archivePath into dest. Plain gzip (".gz") is written
// through as-is; ".tgz" and ".tar.gz" archives yield their first ".json" entry.
func Extract(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gzReader, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	var src io.Reader = gzReader
	if strings.HasSuffix(archivePath, ".tgz") || strings.HasSuffix(archivePath, ".tar.gz") {
		entry, err := firstJSONEntry(tar.NewReader(gzReader))
		if err != nil {
			return err
		}
		src = entry
	}

	tmp := dest + ".tmp"
	outFile, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(outFile, src); err != nil {
		outFile.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

func firstJSONEntry(tr *tar.Reader) (io.Reader, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("no json file found in downloaded archive")
		}
		if err != nil {
			return nil, fmt.Errorf("error reading tar archive: %w", err)
		}
		if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
			return tr, nil
		}
	}
}
