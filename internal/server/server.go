// Package server serves a static character site, running one rendering pass
// for every HTML page it returns.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/poku-e/partyloader/internal/binding"
	"github.com/poku-e/partyloader/internal/record"
	"github.com/poku-e/partyloader/internal/source"
)

//go:embed templates/*.html
var tmplFS embed.FS

var indexTmpl = template.Must(template.ParseFS(tmplFS, "templates/index.html"))

// Options configures the handler.
type Options struct {
	// FS is the site root.
	FS     fs.FS
	Source source.Options
	Client *http.Client
	Logger *log.Logger
}

type server struct {
	opts   Options
	files  http.Handler
	logger *log.Logger
}

// New returns the site handler.
func New(opts Options) http.Handler {
	lg := opts.Logger
	if lg == nil {
		lg = log.New(io.Discard, "", 0)
	}
	s := &server{opts: opts, files: http.FileServer(http.FS(opts.FS)), logger: lg}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/characters", s.handleCharacters)
	mux.HandleFunc("/", s.handlePage)
	return withCommonHeaders(mux)
}

type charactersResp struct {
	Source     string   `json:"source"`
	Characters []string `json:"characters"`
}

// GET /api/characters?page=/dnd/x.html lists the keys of the data set that
// page would read. page defaults to the namespace root.
func (s *server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds, loc, err := s.dataset(r, r.URL.Query().Get("page"))
	if err != nil {
		var fe *source.FetchError
		if errors.As(err, &fe) {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, charactersResp{Source: loc.String(), Characters: ds.Keys()})
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = "."
	}
	if fi, err := fs.Stat(s.opts.FS, name); err == nil && fi.IsDir() {
		index := path.Join(name, "index.html")
		if _, err := fs.Stat(s.opts.FS, index); err != nil {
			if name == "." {
				s.handleIndex(w, r)
				return
			}
			s.files.ServeHTTP(w, r)
			return
		}
		name = index
	}

	ext := strings.ToLower(path.Ext(name))
	if ext != ".html" && ext != ".htm" {
		s.files.ServeHTTP(w, r)
		return
	}

	b, err := fs.ReadFile(s.opts.FS, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	u := pageURL(r)
	u.Path = "/" + name
	out, err := s.render(r.Context(), b, u)
	if err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(out); err != nil {
		s.logger.Printf("[ERROR] writing response: %v", err)
	}
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Source     string
		Characters []string
		Err        string
	}{}
	ds, loc, err := s.dataset(r, "")
	if loc != nil {
		data.Source = loc.String()
	}
	if err != nil {
		data.Err = err.Error()
	} else {
		data.Characters = ds.Keys()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Printf("[ERROR] writing response: %v", err)
	}
}

// render runs one pass over a page. Binding failures are logged by the
// engine and leave the page as authored.
func (s *server) render(ctx context.Context, page []byte, u *url.URL) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	e := &binding.Engine{Loader: s.loader(u), Options: s.opts.Source, Logger: s.logger}
	e.Run(ctx, binding.Page{Doc: doc, URL: u})

	out, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (s *server) dataset(r *http.Request, page string) (*record.Dataset, *url.URL, error) {
	u := pageURL(r)
	if page == "" {
		page = "/" + s.namespace() + "/"
	}
	ref, err := url.Parse(page)
	if err != nil {
		return nil, nil, err
	}
	u = u.ResolveReference(ref)

	loc, err := source.Locate(u, s.opts.Source)
	if err != nil {
		return nil, nil, err
	}
	ds, err := s.loader(u).Load(r.Context(), loc)
	return ds, loc, err
}

// loader reads same-host locations from the site root and anything else
// over HTTP.
func (s *server) loader(page *url.URL) source.Loader {
	return siteLoader{
		host:   page.Host,
		local:  source.FSLoader{FS: s.opts.FS},
		remote: source.SchemeLoader{HTTP: source.HTTPLoader{Client: s.opts.Client}},
	}
}

func (s *server) namespace() string {
	if s.opts.Source.Namespace == "" {
		return source.DefaultNamespace
	}
	return s.opts.Source.Namespace
}

type siteLoader struct {
	host   string
	local  source.Loader
	remote source.Loader
}

func (l siteLoader) Load(ctx context.Context, loc *url.URL) (*record.Dataset, error) {
	if loc.Host == "" || loc.Host == l.host {
		return l.local.Load(ctx, loc)
	}
	return l.remote.Load(ctx, loc)
}

func pageURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}

func withCommonHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
