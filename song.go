package usdxdl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sanderr/usdx-yt-dl/fileutil"
	"github.com/sanderr/usdx-yt-dl/songtxt"
	"github.com/sanderr/usdx-yt-dl/textenc"
	"github.com/sanderr/usdx-yt-dl/ytdlp"
)

// Song owns one song folder for the duration of a run.
type Song struct {
	Dir     string
	TxtPath string
	Meta    Metadata

	file *songtxt.File
}

// LoadSong reads and parses the single txt file of a song folder.
func LoadSong(dir string) (*Song, error) {
	txts, err := fileutil.GlobBase(dir, "*.txt")
	if err != nil {
		return nil, fmt.Errorf("glob txt files: %w", err)
	}
	if len(txts) != 1 {
		return nil, fmt.Errorf("%w: found %d txt files in %q", ErrUnexpectedState, len(txts), dir)
	}
	txtPath := txts[0]

	raw, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, fmt.Errorf("read txt file: %w", err)
	}
	text, err := textenc.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrEncoding, txtPath, err)
	}
	file, err := songtxt.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrFileCorrupt, txtPath, err)
	}

	meta, err := metadataFromHeader(&file.Header)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", txtPath, err)
	}

	return &Song{Dir: dir, TxtPath: txtPath, Meta: meta, file: file}, nil
}

// see https://wiki.usdb.eu/txt_files/format
func metadataFromHeader(h *songtxt.Header) (Metadata, error) {
	required := func(field string) (string, error) {
		v, ok := h.Lookup(field)
		if !ok {
			return "", fmt.Errorf("%w: missing required field %s", ErrInsufficientData, field)
		}
		return v, nil
	}
	title, err := required("TITLE")
	if err != nil {
		return Metadata{}, err
	}
	artist, err := required("ARTIST")
	if err != nil {
		return Metadata{}, err
	}

	var src Source
	if comment, ok := h.Lookup("COMMENT"); ok && strings.HasPrefix(comment, CommentPrefix) {
		src = Processed{Comment: strings.TrimPrefix(comment, CommentPrefix)}
	} else if video, ok := h.Lookup("VIDEO"); ok {
		src = Fresh{Video: video}
	} else {
		return Metadata{}, fmt.Errorf("%w: no VIDEO field to take source tags from", ErrInsufficientData)
	}

	return NewMetadata(title, artist, src, Files{
		MP3:        h.Get("MP3"),
		Cover:      h.Get("COVER"),
		Background: h.Get("BACKGROUND"),
		Video:      h.Get("VIDEO"),
	})
}

type state uint8

const (
	stateClean state = iota
	stateStale
	statePartialMP3
	statePartialVideo
	stateMissing
)

// Process classifies the folder's on-disk state and brings it up to
// date: nothing for a clean folder, a skip for an ambiguous one, and a
// (re)fetch plus header write-back otherwise.
func (s *Song) Process(ctx context.Context, cfg *Config) error {
	switch st := s.classify(); st {
	case stateClean:
		// media is current, just re-apply post-processing. no fetch, no
		// header write, so untouched songs keep their mtime.
		if err := s.embedTags(cfg); err != nil {
			return err
		}
		return fileutil.HardenPermissions(s.Dir)

	case statePartialMP3:
		return fmt.Errorf("%w: found mp3 file but no video in %q", ErrConservativeSkip, s.Dir)
	case statePartialVideo:
		return fmt.Errorf("%w: found video file but no mp3 in %q", ErrConservativeSkip, s.Dir)

	case stateStale:
		slog.Info("cleaning up outdated media", "dir", s.Dir)
		for _, name := range []string{s.Meta.MP3, s.Meta.Video} {
			if name == "" {
				continue
			}
			if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove outdated file: %w", err)
			}
		}

	case stateMissing:
	}

	if err := s.discoverCover(); err != nil {
		return err
	}
	if err := s.download(ctx, cfg); err != nil {
		return err
	}
	if err := s.embedTags(cfg); err != nil {
		return err
	}
	if err := fileutil.HardenPermissions(s.Dir); err != nil {
		return err
	}
	return s.write()
}

func (s *Song) classify() state {
	mp3Tag := s.Meta.AudioTag
	if mp3Tag == "" {
		mp3Tag = s.Meta.VideoTag
	}
	if stale(s.Meta.MP3, mp3Tag) || stale(s.Meta.Video, s.Meta.VideoTag) {
		return stateStale
	}

	mp3Found := s.Meta.MP3 != "" && exists(filepath.Join(s.Dir, s.Meta.MP3))
	videoFound := s.Meta.Video != "" && exists(filepath.Join(s.Dir, s.Meta.Video))
	switch {
	case mp3Found && (videoFound || s.Meta.Video == ""):
		return stateClean
	case mp3Found:
		return statePartialMP3
	case videoFound:
		return statePartialVideo
	}
	return stateMissing
}

// stale reports whether a recorded filename no longer embeds the source
// id it governs. Downloaded files are named "<title> [<id>].<ext>", so
// an id change upstream shows up as a missing substring without any
// separate "last downloaded" bookkeeping.
func stale(name, tag string) bool {
	return name != "" && !strings.Contains(name, " ["+tag+"].")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// discoverCover records the folder's cover image. A folder may hold at
// most one; ambiguity is never auto-resolved.
func (s *Song) discoverCover() error {
	jpegs, err := fileutil.GlobBase(s.Dir, "*.jpg")
	if err != nil {
		return fmt.Errorf("glob jpeg files: %w", err)
	}
	switch len(jpegs) {
	case 0:
		s.Meta = s.Meta.WithCover("")
	case 1:
		s.Meta = s.Meta.WithCover(filepath.Base(jpegs[0]))
	default:
		return fmt.Errorf("%w: found %d jpeg files in %q", ErrUnexpectedState, len(jpegs), s.Dir)
	}
	return nil
}

func (s *Song) download(ctx context.Context, cfg *Config) error {
	if s.Meta.VideoTag == "" && s.Meta.AudioTag == "" {
		return fmt.Errorf("%w: no video or audio source", ErrInsufficientData)
	}

	// media lands in a scratch dir first so a crash mid-download never
	// leaves partial files inside the library
	scratch, err := os.MkdirTemp("", Name+"-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	mp3Path, videoPath, err := cfg.Fetcher.Fetch(ctx, scratch, s.Meta.VideoTag, s.Meta.AudioTag)
	switch {
	case errors.Is(err, ytdlp.ErrMediaCount):
		return fmt.Errorf("%w: %w", ErrUnknownMediaFormat, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	if cfg.Gain != nil {
		if err := cfg.Gain.Normalize(ctx, mp3Path); err != nil {
			return fmt.Errorf("normalize loudness: %w", err)
		}
	}

	if err := fileutil.MoveInto(s.Dir, mp3Path); err != nil {
		return fmt.Errorf("move mp3 into song dir: %w", err)
	}
	var videoName string
	if videoPath != "" {
		if err := fileutil.MoveInto(s.Dir, videoPath); err != nil {
			return fmt.Errorf("move video into song dir: %w", err)
		}
		videoName = filepath.Base(videoPath)
	}

	s.Meta = s.Meta.WithFiles(filepath.Base(mp3Path), videoName)
	return nil
}

func (s *Song) embedTags(cfg *Config) error {
	if cfg.Tagger == nil {
		return nil
	}
	if s.Meta.MP3 == "" {
		return fmt.Errorf("no mp3 file recorded for %q", s.Dir)
	}
	path := filepath.Join(s.Dir, s.Meta.MP3)
	if !exists(path) {
		return fmt.Errorf("no mp3 file at %q", path)
	}
	if err := cfg.Tagger.WriteSongTags(path, s.Meta.Title, s.Meta.Artist); err != nil {
		return fmt.Errorf("write id3 tags: %w", err)
	}
	return nil
}

// write re-serializes the header with the fields this tool owns brought
// up to date. Fields it doesn't own, and the body, pass through exactly
// as parsed.
func (s *Song) write() error {
	h := &s.file.Header

	set := func(field, value string) {
		if value == "" {
			h.Del(field)
			return
		}
		h.Set(field, value)
	}
	set("TITLE", s.Meta.Title)
	set("ARTIST", s.Meta.Artist)
	set("MP3", s.Meta.MP3)
	set("COVER", s.Meta.Cover)
	set("BACKGROUND", s.Meta.Background)
	set("VIDEO", s.Meta.Video)
	set("COMMENT", CommentPrefix+s.Meta.Comment)

	if err := s.file.WriteFile(s.TxtPath); err != nil {
		return fmt.Errorf("write txt file: %w", err)
	}
	return nil
}
