package catalog

import (
	"context"
	"errors"
	"io/fs"

	"github.com/vvyiloff/post-install/internal/logging"
)

// Origin names where a catalog came from.
type Origin string

const (
	OriginFile    Origin = "file"
	OriginURL     Origin = "url"
	OriginDefault Origin = "default"
)

// Loaded is the catalog chosen by Source.Load.
type Loaded struct {
	Entries []Entry
	Origin  Origin
	// Errors holds the reasons earlier sources were skipped.
	Errors []error
}

// Source resolves the catalog: local file first, then URL, then the
// built-in list. Empty File or URL skips that step.
type Source struct {
	File    string
	URL     string
	Fetcher *Fetcher
}

// Load never fails; the built-in catalog is the last resort.
func (s Source) Load(ctx context.Context) Loaded {
	var skipped []error

	if s.File != "" {
		entries, err := LoadFile(s.File)
		if err == nil {
			return Loaded{Entries: entries, Origin: OriginFile}
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("local catalog unusable", "path", s.File, logging.KeyError, err.Error())
			skipped = append(skipped, err)
		}
	}

	if s.URL != "" {
		f := s.Fetcher
		if f == nil {
			f = defaultFetcher
		}
		entries, err := f.Fetch(ctx, s.URL)
		if err == nil {
			return Loaded{Entries: entries, Origin: OriginURL, Errors: skipped}
		}
		log.Warn("remote catalog unavailable", "url", s.URL, logging.KeyError, err.Error())
		skipped = append(skipped, err)
	}

	return Loaded{Entries: Default(), Origin: OriginDefault, Errors: skipped}
}
