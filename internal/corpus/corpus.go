// Package corpus reads training records from local files, stdin and HTTP
// sources in JSONL, plain text or HTML form.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/rickcrawford/defaultvocab/internal/converter"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// Format names how a source's bytes map to records.
type Format string

const (
	// FormatAuto picks a format from the extension, the content type or the
	// first byte of the data.
	FormatAuto Format = "auto"
	// FormatJSONL holds one record per line, either [x, y, {aux}] or
	// {"x": .., "y": .., "fields": {..}}.
	FormatJSONL Format = "jsonl"
	// FormatText turns every non-blank line into a record's x field.
	FormatText Format = "text"
	// FormatHTML converts the document to Markdown and then reads it as text.
	FormatHTML Format = "html"
)

// ParseFormat validates a format name. An empty name means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSONL, FormatText, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown corpus format %q (want auto, jsonl, text or html)", s)
	}
}

// detect resolves FormatAuto for one source.
func detect(name, contentType string, data []byte) Format {
	switch strings.ToLower(path.Ext(TrimEncodingExt(name))) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	case ".html", ".htm", ".xhtml":
		return FormatHTML
	case ".txt", ".text":
		return FormatText
	}
	if converter.IsHTMLContentType(contentType) {
		return FormatHTML
	}
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "json") {
		return FormatJSONL
	}
	if strings.HasPrefix(ct, "text/") {
		return FormatText
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatText
	}
	switch trimmed[0] {
	case '[', '{':
		return FormatJSONL
	case '<':
		return FormatHTML
	}
	return FormatText
}

// Parse converts data into records according to format. FormatAuto falls
// back to sniffing the data.
func Parse(data []byte, format Format) ([]vocab.Record, error) {
	if format == FormatAuto || format == "" {
		format = detect("", "", data)
	}
	switch format {
	case FormatJSONL:
		return parseJSONL(data)
	case FormatText:
		return textRecords(converter.SplitLines(string(data))), nil
	case FormatHTML:
		lines, err := converter.HTMLToLines(string(data))
		if err != nil {
			return nil, fmt.Errorf("converting html: %w", err)
		}
		return textRecords(lines), nil
	default:
		return nil, fmt.Errorf("unknown corpus format %q", format)
	}
}

func textRecords(lines []string) []vocab.Record {
	recs := make([]vocab.Record, len(lines))
	for i, ln := range lines {
		recs[i] = vocab.Record{X: ln}
	}
	return recs
}

func parseJSONL(data []byte) ([]vocab.Record, error) {
	var recs []vocab.Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning jsonl: %w", err)
	}
	return recs, nil
}

// parseRecord decodes a positional [x, y, {aux}] array or a keyed object.
func parseRecord(line []byte) (vocab.Record, error) {
	var rec vocab.Record
	if line[0] == '{' {
		if err := json.Unmarshal(line, &rec); err != nil {
			return rec, fmt.Errorf("decoding record object: %w", err)
		}
		return rec, nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(line, &parts); err != nil {
		return rec, fmt.Errorf("decoding record array: %w", err)
	}
	if len(parts) == 0 || len(parts) > 3 {
		return rec, fmt.Errorf("record array must have 1 to 3 elements, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &rec.X); err != nil {
		return rec, fmt.Errorf("decoding x: %w", err)
	}
	if len(parts) > 1 {
		if err := json.Unmarshal(parts[1], &rec.Y); err != nil {
			return rec, fmt.Errorf("decoding y: %w", err)
		}
	}
	if len(parts) > 2 {
		if err := json.Unmarshal(parts[2], &rec.Fields); err != nil {
			return rec, fmt.Errorf("decoding auxiliary fields: %w", err)
		}
	}
	return rec, nil
}
