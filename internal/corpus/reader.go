package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickcrawford/defaultvocab/internal/cache"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// ErrSourceTooLarge is returned when a source decodes to more than
// Options.MaxBodySize bytes.
var ErrSourceTooLarge = errors.New("source exceeds max body size")

// Options configures a Reader.
type Options struct {
	// Format applies to every source; FormatAuto detects per source.
	Format Format
	// Concurrency caps how many sources are read at once.
	Concurrency int
	// Timeout bounds each HTTP fetch. Ignored when Client is set.
	Timeout time.Duration
	// MaxBodySize caps the decoded size of a source in bytes. 0 = unlimited.
	MaxBodySize int64

	Client *http.Client
	Cache  *cache.DiskCache
	// Allow restricts URL sources. Nil allows all.
	Allow *SourceFilter
	// Stdin is read for the "-" source. Defaults to os.Stdin.
	Stdin io.Reader
}

// Reader loads records from sources.
type Reader struct {
	opts Options
}

// NewReader fills in defaults and returns a Reader.
func NewReader(opts Options) *Reader {
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &Reader{opts: opts}
}

// ReadAll reads every source concurrently and concatenates the records in
// argument order, so training over the result is deterministic.
func (r *Reader) ReadAll(ctx context.Context, sources []string) ([]vocab.Record, error) {
	results := make([][]vocab.Record, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			recs, err := r.Read(ctx, src)
			if err != nil {
				return fmt.Errorf("reading %s: %w", src, err)
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []vocab.Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	return all, nil
}

// Read loads the records of a single source: "-" for stdin, an http(s) URL,
// or a local path.
func (r *Reader) Read(ctx context.Context, src string) ([]vocab.Record, error) {
	var (
		data        []byte
		contentType string
		name        = src
		err         error
	)

	switch {
	case src == "-":
		data, err = r.readStream(r.opts.Stdin, "", src)
	case IsURL(src):
		if !r.opts.Allow.Allowed(src) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotAllowed, src)
		}
		data, contentType, err = r.fetch(ctx, src)
		if u, perr := url.Parse(src); perr == nil {
			name = u.Path
		}
	default:
		data, err = r.readFile(src)
	}
	if err != nil {
		return nil, err
	}

	format := r.opts.Format
	if format == FormatAuto {
		format = detect(name, contentType, data)
	}
	recs, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	log.Printf("read %d records from %s (%s)", len(recs), src, format)
	return recs, nil
}

// IsURL reports whether src should be fetched over HTTP.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func (r *Reader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.readStream(f, EncodingForPath(path), path)
}

// readStream decodes body and reads it whole. A body larger than
// MaxBodySize is an error, never a truncated corpus.
func (r *Reader) readStream(body io.Reader, encoding, src string) ([]byte, error) {
	dec, err := Decompress(body, encoding)
	if err != nil {
		return nil, err
	}
	if c, ok := dec.(io.Closer); ok {
		defer c.Close()
	}
	limit := r.opts.MaxBodySize
	if limit <= 0 {
		return io.ReadAll(dec)
	}
	data, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrSourceTooLarge, src, limit)
	}
	return data, nil
}

func (r *Reader) fetch(ctx context.Context, src string) ([]byte, string, error) {
	if body, contentType, ok := r.opts.Cache.Get(src); ok {
		log.Printf("corpus cache hit: %s", src)
		return body, contentType, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := r.opts.Client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	encoding := resp.Header.Get("Content-Encoding")
	data, err := r.readStream(resp.Body, encoding, src)
	if err != nil {
		return nil, "", err
	}
	// A .gz object served without Content-Encoding still needs decoding.
	if encoding == "" && EncodingForPath(src) == "gzip" && isGzip(data) {
		if data, err = r.readStream(bytes.NewReader(data), "gzip", src); err != nil {
			return nil, "", err
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if r.opts.Cache != nil && cache.IsCacheable(resp) {
		if err := r.opts.Cache.Put(src, data, contentType, r.opts.Cache.TTL(resp)); err != nil {
			log.Printf("cache put error: %v", err)
		}
	}
	return data, contentType, nil
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
