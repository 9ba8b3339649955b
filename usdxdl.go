// Package usdxdl reconciles a library of UltraStar Deluxe song folders
// against their media files, downloading missing audio and video from
// the source ids recorded in each song's txt header.
package usdxdl

import (
	"context"
	"errors"
)

const Name = "usdx-yt-dl"

var Version = "dev" // set with ldflags

// CommentPrefix marks a COMMENT header field as authored by this tool.
// Anything after it is the normalized source tag expression.
const CommentPrefix = Name + ":"

// Every reason to give up on a single song maps to one of these. They
// are caught at the per-song boundary so one bad folder never takes the
// batch down. Anything outside this set indicates an environment
// problem and is allowed to propagate.
var (
	ErrInsufficientData   = errors.New("insufficient data")
	ErrFileCorrupt        = errors.New("file corrupt")
	ErrUnexpectedState    = errors.New("unexpected state")
	ErrEncoding           = errors.New("encoding error")
	ErrConservativeSkip   = errors.New("conservative skip")
	ErrUnknownMediaFormat = errors.New("unknown media format")
	ErrDownloadFailed     = errors.New("download failed")
)

var skipErrs = []error{
	ErrInsufficientData,
	ErrFileCorrupt,
	ErrUnexpectedState,
	ErrEncoding,
	ErrConservativeSkip,
	ErrUnknownMediaFormat,
	ErrDownloadFailed,
}

// IsSkip reports whether err means "skip this song and move on".
func IsSkip(err error) bool {
	for _, skip := range skipErrs {
		if errors.Is(err, skip) {
			return true
		}
	}
	return false
}

// Fetcher obtains media for the given source ids, depositing them in
// dir. It returns the path of the downloaded mp3 and, when videoTag was
// set, the path of the downloaded video.
type Fetcher interface {
	Fetch(ctx context.Context, dir, videoTag, audioTag string) (mp3, video string, err error)
}

// Tagger embeds metadata into a downloaded audio file.
type Tagger interface {
	WriteSongTags(path, title, artist string) error
}

// Normalizer applies loudness gain metadata to an audio file in place.
type Normalizer interface {
	Normalize(ctx context.Context, path string) error
}

// Config carries the collaborators resolved once at process start.
// Tagger and Gain are optional, nil disables them.
type Config struct {
	Fetcher Fetcher
	Tagger  Tagger
	Gain    Normalizer
}
