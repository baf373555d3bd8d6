package web

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/guidekit/internal/core/ports/driven"
	"github.com/custodia-labs/guidekit/internal/logger"
)

// Ensure Downloader implements the interface.
var _ driven.Downloader = (*Downloader)(nil)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 200 << 20

// unsafeName matches characters replaced in derived filenames.
var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// contentTypeExt maps common document types to extensions for URLs without one.
var contentTypeExt = map[string]string{
	"application/pdf": ".pdf",
	"text/html":       ".html",
	"text/markdown":   ".md",
	"text/plain":      ".txt",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Downloader fetches documents over HTTP.
type Downloader struct {
	client   *http.Client
	maxBytes int64
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

// WithMaxBytes sets the size cap.
func WithMaxBytes(n int64) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// NewDownloader creates a downloader.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{client: http.DefaultClient, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download saves rawURL into dir and returns the file path. The file is
// written to a temp name and renamed once complete. An existing file with
// the same name gets a numeric suffix.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "guidekit")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}
	if resp.ContentLength > d.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if n > d.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.maxBytes)
	}

	target := availablePath(dir, fileName(u, resp.Header))
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("saving %s: %w", filepath.Base(target), err)
	}
	logger.Info("Downloaded %s (%d bytes) to %s", rawURL, n, target)
	return target, nil
}

// fileName derives a safe local name from the response or URL.
func fileName(u *url.URL, header http.Header) string {
	name := ""
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	if name == "" {
		name = path.Base(u.Path)
	}
	name = strings.Trim(unsafeName.ReplaceAllString(filepath.Base(name), "_"), "._")
	if name == "" {
		name = "download"
	}

	if filepath.Ext(name) == "" {
		if mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
			if ext, ok := contentTypeExt[mediaType]; ok {
				name += ext
			}
		}
	}
	return name
}

// availablePath returns dir/name, or dir/name-N.ext if taken.
func availablePath(dir, name string) string {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
