// Package prettyjson renders JSON in a stable, width-aware layout: a value
// stays on one line when it fits the print width, otherwise its members are
// broken onto indented lines. Key order is preserved from the input.
//
// The layout follows prettier's JSON style: 80 columns, two-space indent,
// "{ "k": v }" spacing for inline objects, and arrays with several
// multi-member objects (or arrays) always broken along with every value
// that contains them.
package prettyjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// DefaultWidth is the print width used by Format and Marshal.
const DefaultWidth = 80

// Options controls the layout.
type Options struct {
	Width  int
	Indent string
}

var defaultOptions = Options{Width: DefaultWidth, Indent: "  "}

// Marshal encodes v without HTML escaping and formats the result.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return Format(buf.Bytes())
}

// Format re-lays out a single JSON document with the default options.
func Format(data []byte) ([]byte, error) {
	return FormatWith(data, defaultOptions)
}

// FormatWith re-lays out a single JSON document. The output ends in a newline.
func FormatWith(data []byte, opts Options) ([]byte, error) {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Indent == "" {
		opts.Indent = defaultOptions.Indent
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := parse(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("prettyjson: trailing data after document")
	}

	p := printer{opts: opts}
	p.print(root, 0, 0, 0)
	p.buf.WriteByte('\n')
	return p.buf.Bytes(), nil
}

type kind int

const (
	scalarKind kind = iota
	objectKind
	arrayKind
)

type node struct {
	kind  kind
	raw   string   // encoded scalar
	keys  []string // encoded object keys
	items []*node
	flat  string // cached single-line form
	split *bool  // cached forcedBreak result
}

func parse(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("prettyjson: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &node{kind: objectKind}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("prettyjson: %w", err)
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("prettyjson: unexpected object key %v", kt)
				}
				v, err := parse(dec)
				if err != nil {
					return nil, err
				}
				n.keys = append(n.keys, encodeString(key))
				n.items = append(n.items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("prettyjson: %w", err)
			}
			return n, nil
		case '[':
			n := &node{kind: arrayKind}
			for dec.More() {
				v, err := parse(dec)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("prettyjson: %w", err)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("prettyjson: unexpected delimiter %q", t)
		}
	case string:
		return &node{kind: scalarKind, raw: encodeString(t)}, nil
	case json.Number:
		return &node{kind: scalarKind, raw: t.String()}, nil
	case bool:
		if t {
			return &node{kind: scalarKind, raw: "true"}, nil
		}
		return &node{kind: scalarKind, raw: "false"}, nil
	case nil:
		return &node{kind: scalarKind, raw: "null"}, nil
	default:
		return nil, fmt.Errorf("prettyjson: unexpected token %v", tok)
	}
}

func encodeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func (n *node) flatString() string {
	if n.flat != "" {
		return n.flat
	}
	switch n.kind {
	case objectKind:
		if len(n.items) == 0 {
			n.flat = "{}"
			break
		}
		parts := make([]string, len(n.items))
		for i, v := range n.items {
			parts[i] = n.keys[i] + ": " + v.flatString()
		}
		n.flat = "{ " + strings.Join(parts, ", ") + " }"
	case arrayKind:
		parts := make([]string, len(n.items))
		for i, v := range n.items {
			parts[i] = v.flatString()
		}
		n.flat = "[" + strings.Join(parts, ", ") + "]"
	default:
		n.flat = n.raw
	}
	return n.flat
}

// mustBreak reports arrays of two or more objects (or arrays) that all share
// the first element's kind and all have more than one member.
func (n *node) mustBreak() bool {
	if n.kind != arrayKind || len(n.items) < 2 {
		return false
	}
	first := n.items[0].kind
	if first == scalarKind {
		return false
	}
	for _, v := range n.items {
		if v.kind != first || len(v.items) < 2 {
			return false
		}
	}
	return true
}

// forcedBreak reports whether n or any value nested in it must break. A
// forced break inside a value breaks every value enclosing it.
func (n *node) forcedBreak() bool {
	if n.split != nil {
		return *n.split
	}
	forced := n.mustBreak()
	for _, v := range n.items {
		if forced {
			break
		}
		forced = v.forcedBreak()
	}
	n.split = &forced
	return forced
}

type printer struct {
	opts Options
	buf  bytes.Buffer
}

// print writes n at the given depth. lead is the width already used on the
// current line, trail the width that must follow n on the same line.
func (p *printer) print(n *node, depth, lead, trail int) {
	flat := n.flatString()
	if n.kind == scalarKind || len(n.items) == 0 {
		p.buf.WriteString(flat)
		return
	}
	if !n.forcedBreak() && lead+stringWidth(flat)+trail <= p.opts.Width {
		p.buf.WriteString(flat)
		return
	}

	openTok, closeTok := "[", "]"
	if n.kind == objectKind {
		openTok, closeTok = "{", "}"
	}
	inner := strings.Repeat(p.opts.Indent, depth+1)
	p.buf.WriteString(openTok)
	p.buf.WriteByte('\n')
	for i, v := range n.items {
		p.buf.WriteString(inner)
		used := stringWidth(inner)
		if n.kind == objectKind {
			p.buf.WriteString(n.keys[i])
			p.buf.WriteString(": ")
			used += stringWidth(n.keys[i]) + 2
		}
		comma := 0
		if i < len(n.items)-1 {
			comma = 1
		}
		p.print(v, depth+1, used, comma)
		if comma == 1 {
			p.buf.WriteByte(',')
		}
		p.buf.WriteByte('\n')
	}
	p.buf.WriteString(strings.Repeat(p.opts.Indent, depth))
	p.buf.WriteString(closeTok)
}

// stringWidth counts display columns: East Asian wide and fullwidth runes
// take two, combining marks none.
func stringWidth(s string) int {
	w := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
		case isWide(r):
			w += 2
		default:
			w++
		}
	}
	return w
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
