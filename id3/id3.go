// Package id3 embeds song metadata into downloaded mp3 files.
package id3

import (
	"fmt"

	"github.com/sentriz/audiotags"
)

// Fixed album fields so players group the whole library as one album.
const (
	album       = "USDX library"
	albumArtist = "Various Artists"
)

type Writer struct{}

// WriteSongTags (re)writes the tag fields this tool owns. Date and
// track number are cleared, they carry no meaning per song here.
func (Writer) WriteSongTags(path, title, artist string) error {
	f, err := audiotags.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	raw := f.ReadTags()
	raw["title"] = []string{title}
	raw["artist"] = []string{artist}
	raw["albumartist"] = []string{albumArtist}
	raw["album"] = []string{album}
	delete(raw, "date")
	delete(raw, "tracknumber")

	if !f.WriteTags(raw) {
		return fmt.Errorf("write tags to %q", path)
	}
	return nil
}
