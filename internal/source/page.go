package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ReadPage reads an HTML page from an http(s) URL or a local path and
// returns its bytes along with the URL the page was served at. For local
// files that is a file:// URL of the absolute path.
func ReadPage(ctx context.Context, client *http.Client, target string) ([]byte, *url.URL, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return fetchPage(ctx, client, target)
	}

	p := strings.TrimPrefix(target, "file://")
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, nil, err
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("read page: %w", err)
	}
	return b, FileURL(abs), nil
}

// FileURL converts an absolute filesystem path into a file:// URL.
func FileURL(abs string) *url.URL {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return &url.URL{Scheme: "file", Path: p}
}

func fetchPage(ctx context.Context, client *http.Client, rawURL string) ([]byte, *url.URL, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	// the final URL after redirects is the base for relative lookups
	return b, resp.Request.URL, nil
}
