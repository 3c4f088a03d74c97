// Package binding injects character data into marked elements of a parsed
// HTML page.
//
// A page load is one call to Engine.Run: the character is resolved, the
// party data file is located and loaded, and the six binding passes
// (text, html, class, attr, toggle, list) write into the document. Any
// failure before the passes leaves the document exactly as authored.
package binding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/poku-e/partyloader/internal/character"
	"github.com/poku-e/partyloader/internal/record"
	"github.com/poku-e/partyloader/internal/source"
)

// ErrNoCharacter means neither the page markup nor its file name names a
// character.
var ErrNoCharacter = errors.New("could not detect character name; add a data-character attribute")

// CharacterNotFoundError means the data set has no record for the key.
type CharacterNotFoundError struct {
	Key      string
	Location string
}

func (e *CharacterNotFoundError) Error() string {
	return fmt.Sprintf("character %q not found in %s", e.Key, e.Location)
}

// Page is a parsed document and the URL it is served at.
type Page struct {
	Doc *goquery.Document
	URL *url.URL
}

// Engine runs rendering passes. The zero value loads http(s) and file
// locations with default options and discards log output.
type Engine struct {
	Loader  source.Loader
	Options source.Options
	Logger  *log.Logger

	// OnLoad, when set, sees the loaded record before the binding passes.
	OnLoad func(key string, rec *record.Record)
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return e.Logger
}

func (e *Engine) loader() source.Loader {
	if e.Loader == nil {
		return source.SchemeLoader{}
	}
	return e.Loader
}

// Load resolves the character for page and returns its record and key.
// Errors are ErrNoCharacter, *source.FetchError or *CharacterNotFoundError.
func (e *Engine) Load(ctx context.Context, page Page) (*record.Record, string, error) {
	key, ok := character.Resolve(page.Doc, page.URL)
	if !ok {
		return nil, "", ErrNoCharacter
	}

	loc, err := source.Locate(page.URL, e.Options)
	if err != nil {
		return nil, key, &source.FetchError{Location: e.Options.Override, Err: err}
	}

	ds, err := e.loader().Load(ctx, loc)
	if err != nil {
		return nil, key, err
	}

	rec, ok := ds.Character(key)
	if !ok {
		return nil, key, &CharacterNotFoundError{Key: key, Location: loc.String()}
	}
	return rec, key, nil
}

// Run performs one rendering pass over page. It never returns an error:
// failures are logged and leave the document untouched. The returned
// outcomes are empty when the pass was aborted.
func (e *Engine) Run(ctx context.Context, page Page) (outcomes []Outcome) {
	lg := e.logger()
	defer func() {
		if r := recover(); r != nil {
			lg.Printf("[WARN] rendering pass aborted: %v", r)
			outcomes = nil
		}
	}()

	if page.Doc == nil {
		lg.Printf("[WARN] no document to render")
		return nil
	}

	rec, key, err := e.Load(ctx, page)
	if err != nil {
		var fe *source.FetchError
		var nf *CharacterNotFoundError
		switch {
		case errors.Is(err, ErrNoCharacter):
			lg.Printf("[WARN] %v", err)
		case errors.As(err, &fe):
			lg.Printf("[WARN] could not load party data for %q, using hardcoded values: %v", key, fe)
		case errors.As(err, &nf):
			lg.Printf("[WARN] %v", nf)
		default:
			lg.Printf("[WARN] %v", err)
		}
		return nil
	}

	if e.OnLoad != nil {
		e.OnLoad(key, rec)
	}
	outcomes = Apply(page.Doc, rec)

	name, ok := rec.Name()
	if !ok {
		name = key
	}
	lg.Printf("[INFO] injected data for %q (%d bindings)", name, len(outcomes))
	return outcomes
}
