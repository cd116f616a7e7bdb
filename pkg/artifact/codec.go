// Package artifact provides the serialization contract shared by structured
// model outputs: lossless JSON and YAML encodings, canonical-form equality,
// a lenient decoder for drifting model-generated field names, and a typed
// cache binding.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	fenceRe   = regexp.MustCompile("(?s)```[a-zA-Z]*\n(.*?)\n```")
	commentRe = regexp.MustCompile(`\s+//\s+[^\n]*`)
)

// CleanJSON strips Markdown code fences and trailing // comments that
// generative models habitually wrap around JSON output.
func CleanJSON(data string) string {
	return commentRe.ReplaceAllString(stripFences(data), "")
}

// CleanYAML strips Markdown code fences around YAML output.
func CleanYAML(data string) string {
	return stripFences(data)
}

func stripFences(data string) string {
	if m := fenceRe.FindStringSubmatch(data); m != nil {
		return m[1]
	}
	return data
}

// Options controls lenient decoding.
type Options struct {
	// Fuzzy enables best-match field alignment when the strict decode
	// rejects the incoming field names.
	Fuzzy bool
	// Cutoff is the minimum similarity score (0-100) an incoming key must
	// reach to be matched to an expected field.
	Cutoff float64
}

// FromJSON decodes a JSON artifact, in fenced or plain form, into T.
func FromJSON[T any](data string, opts Options) (*T, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(CleanJSON(data)), &raw); err != nil {
		return nil, fmt.Errorf("parse json artifact: %w", err)
	}
	return fromMap[T](raw, opts)
}

// FromYAML decodes a YAML artifact, in fenced or plain form, into T.
func FromYAML[T any](data string, opts Options) (*T, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(CleanYAML(data)), &raw); err != nil {
		return nil, fmt.Errorf("parse yaml artifact: %w", err)
	}
	return fromMap[T](raw, opts)
}

// FromMap decodes an already-parsed payload into T under the same
// strict-then-fuzzy rules as FromJSON.
func FromMap[T any](raw map[string]any, opts Options) (*T, error) {
	return fromMap[T](raw, opts)
}

// fromMap is the two-phase decoder: a strict decode that rejects unknown
// fields, then, if enabled, a best-match field aligner over the top-level
// keys.
func fromMap[T any](raw map[string]any, opts Options) (*T, error) {
	out := new(T)
	strictErr := decodeStrict(raw, out)
	if strictErr == nil {
		return out, nil
	}
	if !opts.Fuzzy {
		return nil, strictErr
	}

	aligned, unmatched := AlignFields(expectedFields(out), raw, opts.Cutoff)
	if len(unmatched) > 0 {
		// Unmatched expected fields stay zero-valued; surfaced for
		// diagnostics only.
		logUnmatched(unmatched)
	}
	out = new(T)
	if err := decodeLenient(aligned, out); err != nil {
		return nil, fmt.Errorf("aligned decode: %w", err)
	}
	return out, nil
}

func decodeStrict(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func decodeLenient(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// ToJSON encodes v in the machine round-trip form.
func ToJSON(v any) (string, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json artifact: %w", err)
	}
	return string(buf), nil
}

// ToYAML encodes v in the human-editable block form.
func ToYAML(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode yaml artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml artifact: %w", err)
	}
	return buf.String(), nil
}

// Canonical returns the canonical encoding of v: compact JSON of the value
// after a JSON round trip, which sorts object keys and normalizes numeric
// representation once. Two artifacts are equal iff their canonical
// encodings are byte-identical.
func Canonical(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize artifact: %w", err)
	}
	var norm any
	if err := json.Unmarshal(buf, &norm); err != nil {
		return "", fmt.Errorf("canonicalize artifact: %w", err)
	}
	out, err := json.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("canonicalize artifact: %w", err)
	}
	return string(out), nil
}

// Equal reports structural equality by canonical encoding.
func Equal(a, b any) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return ca == cb
}

// Hash returns the SHA-256 hex digest of the canonical encoding.
func Hash(v any) (string, error) {
	c, err := Canonical(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(c))
	return fmt.Sprintf("%x", sum), nil
}

// ToDocument converts v to the map form the cache persists.
func ToDocument(v any) (map[string]any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode artifact document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("encode artifact document: %w", err)
	}
	return doc, nil
}

func logUnmatched(fields []string) {
	if len(fields) == 0 {
		return
	}
	loggerf("artifact: no acceptable match for fields: %s", strings.Join(fields, ", "))
}
