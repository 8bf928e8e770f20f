package vocab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// Save overwrites the backing file with one "token\tcount\n" line per entry,
// most common first.
func (v *Vocabulary) Save() (err error) {
	w, err := v.backend.Create()
	if err != nil {
		return fmt.Errorf("creating vocabulary file: %w", err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing vocabulary file: %w", cerr)
		}
	}()

	if err := WriteEntries(w, v.Items()); err != nil {
		return fmt.Errorf("writing vocabulary file: %w", err)
	}
	return nil
}

// Load reads the backing file and merges its entries into the vocabulary in
// file order. It does not reset first: call Reset beforehand for a clean
// load, otherwise counts accumulate on top of the current state.
func (v *Vocabulary) Load() error {
	if !v.backend.Exists() {
		return fmt.Errorf("%w: %s", ErrFileNotFound, v.backend.Path())
	}
	log.Printf("loading vocabulary from %s", v.backend.Path())

	r, err := v.backend.Open()
	if err != nil {
		return fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer r.Close()

	tokens, counts, err := ReadEntries(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", v.backend.Path(), err)
	}
	return v.Update(tokens, counts, true)
}

// WriteEntries writes entries in the persisted text format.
func WriteEntries(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", e.Token, e.Count); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadEntries parses the persisted text format into parallel token and count
// slices, preserving line order. Each line is split on its first tab.
func ReadEntries(r io.Reader) (tokens []string, counts []int, err error) {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, rerr := br.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, nil, rerr
		}
		if line == "" && rerr != nil {
			break
		}

		tok, cnt, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %d has no tab separator", ErrMalformedLine, lineNo)
		}
		n, perr := strconv.Atoi(strings.TrimSpace(cnt))
		if perr != nil || n < 0 {
			return nil, nil, fmt.Errorf("%w: line %d has invalid count %q", ErrMalformedLine, lineNo, strings.TrimSpace(cnt))
		}
		tokens = append(tokens, tok)
		counts = append(counts, n)

		if rerr != nil {
			break
		}
	}
	return tokens, counts, nil
}
