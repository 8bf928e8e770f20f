package vocab

import "errors"

var (
	// ErrConfiguration is returned for options that can never produce a
	// usable vocabulary (unknown level, default token not special, ...).
	ErrConfiguration = errors.New("invalid vocabulary configuration")
	// ErrIndexNotFound is returned when decoding an index that was never assigned.
	ErrIndexNotFound = errors.New("index not assigned")
	// ErrUnsupportedKey is returned by Lookup for keys that are neither
	// strings nor integers.
	ErrUnsupportedKey = errors.New("unsupported lookup key type")
	// ErrFileNotFound is returned by Load when the backing file does not exist.
	ErrFileNotFound = errors.New("vocabulary file not found")
	// ErrMalformedLine is returned by Load for lines without a tab or with a
	// count that is not a non-negative integer.
	ErrMalformedLine = errors.New("malformed vocabulary line")
	// ErrMissingField is returned when a record lacks a configured auxiliary field.
	ErrMissingField = errors.New("record field missing")
)
