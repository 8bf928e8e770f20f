package vocab

import (
	"fmt"
	"strings"
)

// Level is the granularity units are extracted at.
type Level string

const (
	LevelToken     Level = "token"
	LevelCharacter Level = "character"
)

// ParseLevel validates a level name. "char" is accepted as a short form of
// "character".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "token":
		return LevelToken, nil
	case "character", "char":
		return LevelCharacter, nil
	default:
		return "", fmt.Errorf("%w: level must be %q or %q, got %q", ErrConfiguration, LevelToken, LevelCharacter, s)
	}
}

// Record is one raw data sample: an x field, a y field and named auxiliary
// fields.
type Record struct {
	X      string            `json:"x"`
	Y      string            `json:"y,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Extractor turns records into units according to the configured inputs and
// level.
type Extractor struct {
	inputs []string
	level  Level
}

// NewExtractor validates level and returns an Extractor reading the given
// field selectors in order. "x" and "y" select the record's X and Y fields;
// any other name selects an auxiliary field.
func NewExtractor(inputs []string, level Level) (*Extractor, error) {
	lvl, err := ParseLevel(string(level))
	if err != nil {
		return nil, err
	}
	return &Extractor{
		inputs: append([]string(nil), inputs...),
		level:  lvl,
	}, nil
}

// Level returns the extraction granularity.
func (e *Extractor) Level() Level { return e.level }

// Inputs returns a copy of the field selectors.
func (e *Extractor) Inputs() []string { return append([]string(nil), e.inputs...) }

// Extract returns the units of every selected field of rec, in selector order.
// Token level splits on single spaces, so consecutive spaces yield empty units.
func (e *Extractor) Extract(rec Record) ([]string, error) {
	var units []string
	for _, f := range e.inputs {
		var s string
		switch f {
		case "x":
			s = rec.X
		case "y":
			s = rec.Y
		default:
			v, ok := rec.Fields[f]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, f)
			}
			s = v
		}
		units = e.split(units, s)
	}
	return units, nil
}

// ExtractAll concatenates Extract over records.
func (e *Extractor) ExtractAll(records []Record) ([]string, error) {
	var units []string
	for i, rec := range records {
		u, err := e.Extract(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		units = append(units, u...)
	}
	return units, nil
}

func (e *Extractor) split(dst []string, s string) []string {
	if e.level == LevelCharacter {
		for _, r := range s {
			dst = append(dst, string(r))
		}
		return dst
	}
	return append(dst, strings.Split(s, " ")...)
}
