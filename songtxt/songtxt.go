// Package songtxt reads and writes the header block of UltraStar song
// txt files. The header is the leading run of "#KEY:VALUE" lines; the
// note body after it is opaque and passes through with only line
// endings normalized.
package songtxt

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
)

var ErrBadLine = errors.New("invalid header line")

type File struct {
	Header Header
	Body   string
}

// Parse splits decoded file text into a header and a body. Every line
// of the leading comment block must be a well-formed "#KEY:VALUE" pair
// with both parts non-empty. CRLF and bare CR line endings are
// normalized to LF, so files written back always use LF.
func Parse(text string) (*File, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var f File
	var n int
	for n = 0; n < len(lines); n++ {
		line := lines[n]
		if !strings.HasPrefix(line, "#") {
			break
		}
		key, value, ok := strings.Cut(line[1:], ":")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadLine, line)
		}
		// a repeated key keeps the last value, the earlier one is lost
		// on write-back
		f.Header.Set(key, value)
	}
	f.Body = strings.Join(lines[n:], "\n")
	return &f, nil
}

// String serializes the header lines in their current order, joined to
// the body by a single newline.
func (f *File) String() string {
	var sb strings.Builder
	for key, value := range f.Header.Fields() {
		fmt.Fprintf(&sb, "#%s:%s\n", key, value)
	}
	sb.WriteString(f.Body)
	return sb.String()
}

// WriteFile overwrites the song txt file at path.
func (f *File) WriteFile(path string) error {
	if err := os.WriteFile(path, []byte(f.String()), 0o640); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Header is an insertion-ordered mapping of field names to values.
// Field names are case-sensitive.
type Header struct {
	keys   []string
	values map[string]string
}

func (h *Header) Get(key string) string {
	return h.values[key]
}

func (h *Header) Lookup(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Set replaces the value of key in place, or appends key when new.
func (h *Header) Set(key, value string) {
	if h.values == nil {
		h.values = map[string]string{}
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

func (h *Header) Del(key string) {
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	h.keys = slices.DeleteFunc(h.keys, func(k string) bool { return k == key })
}

func (h *Header) Len() int {
	return len(h.keys)
}

// Fields iterates the header in insertion order.
func (h *Header) Fields() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, key := range h.keys {
			if !yield(key, h.values[key]) {
				return
			}
		}
	}
}
