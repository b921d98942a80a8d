package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvyiloff/post-install/internal/httputil"
	"github.com/vvyiloff/post-install/internal/logging"
)

var log = logging.L("catalog")

const (
	fetchTimeout   = 10 * time.Second
	maxCatalogSize = 1 << 20
)

// Format is a catalog encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension. Unknown extensions are JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a catalog.
func Parse(data []byte, format Format) ([]Entry, error) {
	var entries []Entry
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode json catalog: %w", err)
		}
	}
	if len(entries) == 0 {
		return nil, errors.New("catalog is empty")
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadFile reads a JSON or YAML catalog from disk.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Save writes entries to path in the format its extension selects.
func Save(path string, entries []Entry) error {
	if err := Validate(entries); err != nil {
		return err
	}

	var data []byte
	switch FormatFor(path) {
	case FormatYAML:
		out, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		data = out
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

// Fetcher downloads catalogs over HTTP.
type Fetcher struct {
	Client *http.Client
}

var (
	defaultFetcher = &Fetcher{Client: &http.Client{Timeout: fetchTimeout}}
	fetchRetry     = httputil.DefaultRetryConfig()
)

// Fetch downloads a catalog with the default client.
func Fetch(ctx context.Context, url string) ([]Entry, error) {
	return defaultFetcher.Fetch(ctx, url)
}

// Fetch downloads and parses the catalog at url, retrying once on network
// errors and 5xx responses.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Entry, error) {
	client := f.Client
	if client == nil {
		client = defaultFetcher.Client
	}

	resp, err := httputil.Get(ctx, client, url, http.Header{"User-Agent": {"post-install"}}, fetchRetry)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, FormatFor(resp.Request.URL.Path))
}
