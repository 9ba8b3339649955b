package usdxdl

import (
	"fmt"

	"github.com/sanderr/usdx-yt-dl/sourcetag"
)

// Metadata is the normalized view of a song's header fields. Values are
// replaced wholesale with the With* helpers, never mutated in place.
//
// MP3, Cover, Background and Video are bare basenames relative to the
// song folder. Empty means not yet known or fetched.
type Metadata struct {
	Title  string
	Artist string

	MP3        string
	Cover      string
	Background string
	Video      string

	// Comment is the source tag expression, without CommentPrefix.
	Comment string

	VideoTag string
	AudioTag string
}

// Source says where a song's tag expression comes from. A header either
// carries a comment this tool wrote on a previous run, or is a raw
// usdb-style file whose VIDEO field holds the expression. The
// distinction is resolved here, exactly once.
type Source interface{ isSource() }

// Processed holds a prior tool-authored comment, CommentPrefix already
// stripped by the caller.
type Processed struct{ Comment string }

// Fresh holds the legacy VIDEO field of a file this tool hasn't touched
// yet. It is reinterpreted as the tag expression, not a filename.
type Fresh struct{ Video string }

func (Processed) isSource() {}
func (Fresh) isSource()     {}

// Files carries the filename fields read from a header.
type Files struct {
	MP3        string
	Cover      string
	Background string
	Video      string
}

// NewMetadata builds a Metadata from header fields. At least one source
// id must be extractable from the tag expression, and a video filename
// is only ever recorded when a video source id exists.
func NewMetadata(title, artist string, src Source, files Files) (Metadata, error) {
	if title == "" || artist == "" {
		return Metadata{}, fmt.Errorf("%w: empty title or artist", ErrInsufficientData)
	}

	m := Metadata{
		Title:      title,
		Artist:     artist,
		MP3:        files.MP3,
		Cover:      files.Cover,
		Background: files.Background,
	}

	switch src := src.(type) {
	case Processed:
		m.Video = files.Video
		m.Comment = src.Comment
	case Fresh:
		// the raw VIDEO field becomes the comment, the file reference
		// starts empty pending a fetch
		m.Comment = src.Video
	default:
		panic(fmt.Errorf("unknown metadata source %T", src))
	}

	tags := sourcetag.Parse(m.Comment)
	if tags.Zero() {
		switch src.(type) {
		case Processed:
			// we wrote this comment, it should still parse
			return Metadata{}, fmt.Errorf("%w: no source tags in tool-authored comment %q", ErrFileCorrupt, m.Comment)
		default:
			return Metadata{}, fmt.Errorf("%w: no usdb-formatted video or audio tags", ErrInsufficientData)
		}
	}
	m.VideoTag = tags.Video
	m.AudioTag = tags.Audio

	if m.VideoTag == "" {
		m.Video = ""
	}
	return m, nil
}

// WithCover returns a copy with both cover and background set to name,
// or cleared when name is empty.
func (m Metadata) WithCover(name string) Metadata {
	m.Cover = name
	m.Background = name
	return m
}

// WithFiles returns a copy with the media filenames replaced.
func (m Metadata) WithFiles(mp3, video string) Metadata {
	m.MP3 = mp3
	m.Video = video
	return m
}
