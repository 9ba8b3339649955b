// Package textenc converts raw song file bytes to UTF-8, tolerating the
// legacy single-byte encoding many older files in the wild still use.
package textenc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var ErrInvalidEncoding = errors.New("invalid encoding")

// Decode returns file contents as UTF-8. Valid UTF-8 passes through
// unchanged; anything else is decoded as Windows-1252. Bytes that not
// even Windows-1252 defines make the file unrecoverable.
func Decode(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	// the decoder substitutes U+FFFD for the few bytes Windows-1252
	// leaves undefined
	if strings.ContainsRune(string(decoded), utf8.RuneError) {
		return "", fmt.Errorf("%w: byte sequence outside Windows-1252", ErrInvalidEncoding)
	}
	return string(decoded), nil
}
