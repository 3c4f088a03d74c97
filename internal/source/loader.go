package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/poku-e/partyloader/internal/record"
)

// Loader reads and decodes the party data file at a location.
type Loader interface {
	Load(ctx context.Context, loc *url.URL) (*record.Dataset, error)
}

// FetchError reports an unreachable, failing or malformed data source.
type FetchError struct {
	Location string
	Status   int // HTTP status; 0 when no response was received
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.Location, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ---------- HTTP ----------

// HTTPLoader issues a single GET per load. It never retries and relies on
// ctx for cancellation.
type HTTPLoader struct {
	Client *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, loc *url.URL) (*record.Dataset, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	where := loc.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, where, nil)
	if err != nil {
		return nil, &FetchError{Location: where, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Location: where, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			Location: where,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("bad status %s: %s", resp.Status, strings.TrimSpace(string(b))),
		}
	}

	ds, err := record.Decode(resp.Body)
	if err != nil {
		return nil, &FetchError{Location: where, Status: resp.StatusCode, Err: err}
	}
	return ds, nil
}

// ---------- Local files ----------

// FileLoader reads file:// locations from the local filesystem.
type FileLoader struct{}

func (FileLoader) Load(_ context.Context, loc *url.URL) (*record.Dataset, error) {
	p := filepath.FromSlash(loc.Path)
	return decodeFile(loc.String(), func() (io.ReadCloser, error) { return os.Open(p) })
}

// FSLoader reads the URL path of a location from a filesystem rooted at the
// site root, ignoring scheme and host.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(_ context.Context, loc *url.URL) (*record.Dataset, error) {
	name := strings.TrimPrefix(loc.Path, "/")
	if name == "" || !fs.ValidPath(name) {
		return nil, &FetchError{Location: loc.String(), Err: fs.ErrInvalid}
	}
	return decodeFile(loc.String(), func() (io.ReadCloser, error) { return l.FS.Open(name) })
}

func decodeFile(where string, open func() (io.ReadCloser, error)) (*record.Dataset, error) {
	f, err := open()
	if err != nil {
		return nil, &FetchError{Location: where, Err: err}
	}
	defer f.Close()

	ds, err := record.Decode(f)
	if err != nil {
		return nil, &FetchError{Location: where, Err: err}
	}
	return ds, nil
}

// ---------- Dispatch ----------

// SchemeLoader picks HTTP for http/https locations and the local filesystem
// for file locations.
type SchemeLoader struct {
	HTTP HTTPLoader
	File FileLoader
}

func (l SchemeLoader) Load(ctx context.Context, loc *url.URL) (*record.Dataset, error) {
	if loc == nil {
		return nil, &FetchError{Err: errors.New("no location")}
	}
	switch strings.ToLower(loc.Scheme) {
	case "http", "https":
		return l.HTTP.Load(ctx, loc)
	case "file", "":
		return l.File.Load(ctx, loc)
	default:
		return nil, &FetchError{Location: loc.String(), Err: fmt.Errorf("unsupported scheme %q", loc.Scheme)}
	}
}
