// Package wire renders fixture documents and values in the JSON wire format
// exchanged with the evaluator under test.
//
// Two renderings are supported for the document written to the child's
// stdin: compact (whitespace stripped, source key order preserved) and
// canonical (RFC 8785 / JCS, for corpora that require a fully deterministic
// byte rendering regardless of how the fixture was written).
package wire

import (
	"bytes"
	"encoding/json"

	jcs "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Encoding selects how a document is rendered onto the child's stdin.
type Encoding int

const (
	// Compact strips insignificant whitespace and keeps the fixture's own
	// key order byte-for-byte.
	Compact Encoding = iota
	// Canonical renders the RFC 8785 canonical form.
	Canonical
)

// Render serializes a raw fixture document with the given encoding.
func Render(raw json.RawMessage, enc Encoding) ([]byte, error) {
	if enc == Canonical {
		return jcs.Transform(raw)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses b as exactly one JSON value. ok is false when b is not a
// single parseable value; classification treats that as a value mismatch,
// not an error.
func Decode(b []byte) (value any, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	// Trailing non-whitespace means stdout held more than one value.
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return nil, false
	}
	return value, true
}

// MustRender is Render for values already known to be valid JSON, such as
// expectations that survived fixture loading. It falls back to the raw
// bytes if compaction fails.
func MustRender(raw json.RawMessage) []byte {
	out, err := Render(raw, Compact)
	if err != nil {
		return raw
	}
	return out
}
