// SPDX-License-Identifier: MPL-2.0

// Package jsonfmt reformats JSON documents: whole-input parse and
// re-serialize with indentation. No streaming, no schema awareness.
// Reformatting is idempotent: formatting already-formatted output
// yields identical bytes.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrInvalidJSON is the sentinel error wrapped by parse failures.
var ErrInvalidJSON = errors.New("invalid JSON")

// Options controls the output shape.
type Options struct {
	// Indent is the indent width in spaces. Ignored when Compact is set.
	Indent int

	// Compact emits minified output with no whitespace.
	Compact bool

	// SortKeys re-orders object keys lexicographically at every level.
	// Without it, input key order is preserved.
	SortKeys bool
}

// Format parses input and re-serializes it according to opts. Number
// precision is preserved exactly; 1e100 round-trips as written.
func Format(input []byte, opts Options) ([]byte, error) {
	if opts.SortKeys {
		return formatSorted(input, opts)
	}
	return formatPreserving(input, opts)
}

// formatPreserving keeps the input's key order by re-indenting the raw
// token stream instead of decoding into Go maps (which would lose
// order).
func formatPreserving(input []byte, opts Options) ([]byte, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if opts.Compact {
		if err := json.Compact(&out, input); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	} else {
		if err := json.Indent(&out, bytes.TrimSpace(input), "", strings.Repeat(" ", opts.Indent)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// formatSorted decodes into an order-free representation and marshals
// with sorted keys. json.Number keeps numeric literals intact.
func formatSorted(input []byte, opts Options) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := writeSorted(&out, doc, opts, 0); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// writeSorted serializes doc with lexicographically ordered object
// keys. encoding/json's Marshal already sorts map keys, but it also
// HTML-escapes and cannot indent nested levels incrementally without a
// second Indent pass, so the writer is explicit here.
func writeSorted(out *bytes.Buffer, doc any, opts Options, depth int) error {
	indent := func(n int) {
		if opts.Compact || opts.Indent == 0 {
			return
		}
		out.WriteByte('\n')
		out.WriteString(strings.Repeat(" ", opts.Indent*n))
	}

	switch v := doc.(type) {
	case map[string]any:
		if len(v) == 0 {
			out.WriteString("{}")
			return nil
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				out.WriteByte(',')
			}
			indent(depth + 1)
			if err := writeString(out, k); err != nil {
				return err
			}
			out.WriteByte(':')
			if !opts.Compact && opts.Indent > 0 {
				out.WriteByte(' ')
			}
			if err := writeSorted(out, v[k], opts, depth+1); err != nil {
				return err
			}
		}
		indent(depth)
		out.WriteByte('}')

	case []any:
		if len(v) == 0 {
			out.WriteString("[]")
			return nil
		}
		out.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				out.WriteByte(',')
			}
			indent(depth + 1)
			if err := writeSorted(out, elem, opts, depth+1); err != nil {
				return err
			}
		}
		indent(depth)
		out.WriteByte(']')

	case json.Number:
		out.WriteString(v.String())

	case string:
		return writeString(out, v)

	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}

	case nil:
		out.WriteString("null")

	default:
		return fmt.Errorf("%w: unexpected value of type %T", ErrInvalidJSON, doc)
	}
	return nil
}

// writeString marshals a single string without HTML escaping, matching
// the preserve-order path's output.
func writeString(out *bytes.Buffer, s string) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	// Encoder appends a newline; strip it.
	out.Truncate(out.Len() - 1)
	return nil
}

// validate checks input is one complete JSON document and reports the
// byte offset of the first syntax error.
func validate(input []byte) error {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("%w at offset %d: %v", ErrInvalidJSON, syntaxErr.Offset, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return expectEOF(dec)
}

// expectEOF rejects trailing content after the first document.
func expectEOF(dec *json.Decoder) error {
	var trailing any
	err := dec.Decode(&trailing)
	if err == nil {
		return fmt.Errorf("%w: trailing content after document", ErrInvalidJSON)
	}
	if !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing content after document: %v", ErrInvalidJSON, err)
	}
	return nil
}
