package corpus

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Decompress returns a reader that decodes body according to a
// Content-Encoding value. The caller is responsible for closing the returned
// reader if it implements io.Closer.
func Decompress(body io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(body)
	case "deflate":
		return flate.NewReader(body), nil
	case "identity", "":
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported content-encoding: %s", encoding)
	}
}

// EncodingForPath infers a Content-Encoding from a file extension, so local
// ".gz" corpora go through the same decoding as fetched ones.
func EncodingForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return "gzip"
	case ".zz", ".deflate":
		return "deflate"
	default:
		return ""
	}
}

// TrimEncodingExt drops a compression extension, leaving the extension that
// names the corpus format (data.jsonl.gz -> data.jsonl).
func TrimEncodingExt(path string) string {
	if EncodingForPath(path) == "" {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}
