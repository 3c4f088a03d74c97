// Package source locates and loads the party data file for a page.
package source

import (
	"net/url"
	"strings"
)

const (
	DefaultNamespace = "dnd"
	DefaultFile      = "party.json"
)

// Options controls where the data file is looked for.
type Options struct {
	// Override replaces the derived location. An absolute URL is used as
	// is; anything else is resolved against the page URL.
	Override string
	// Namespace is the directory name that marks the site root.
	Namespace string
	// File is the data file name.
	File string
}

func (o Options) withDefaults() Options {
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.File == "" {
		o.File = DefaultFile
	}
	return o
}

// Locate derives the data file URL for a page. Pages under /<namespace>/
// read <namespace root>/<file>; other pages read the file next to them.
func Locate(page *url.URL, opts Options) (*url.URL, error) {
	opts = opts.withDefaults()
	if page == nil {
		page = &url.URL{Path: "/"}
	}

	if opts.Override != "" {
		ref, err := url.Parse(opts.Override)
		if err != nil {
			return nil, err
		}
		return page.ResolveReference(ref), nil
	}

	marker := "/" + opts.Namespace + "/"
	if i := strings.Index(page.Path, marker); i >= 0 {
		root := page.Path[:i+len(marker)]
		return page.ResolveReference(&url.URL{Path: root + opts.File}), nil
	}
	return page.ResolveReference(&url.URL{Path: "./" + opts.File}), nil
}
