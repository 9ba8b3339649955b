// Package ytdlp wraps the external downloader that fetches media for a
// song's source ids. It deposits files into a caller-provided scratch
// dir and validates exactly what landed there.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"

	"github.com/google/shlex"

	"github.com/sanderr/usdx-yt-dl/fileutil"
)

const Command = "yt-dlp"

var (
	ErrNotInstalled = fmt.Errorf("%s not found in PATH", Command)
	ErrMediaCount   = errors.New("unexpected media file count")
)

type Downloader struct {
	command string
	args    []string
}

// New returns a Downloader invoking yt-dlp from PATH.
func New() *Downloader {
	return &Downloader{command: Command}
}

// NewCommand builds a Downloader from a user-supplied command line, eg
// "yt-dlp --no-progress".
func NewCommand(conf string) (*Downloader, error) {
	parts, err := shlex.Split(conf)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	return &Downloader{command: parts[0], args: parts[1:]}, nil
}

func (d *Downloader) Detect() error {
	if _, err := exec.LookPath(d.command); err != nil {
		return fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return nil
}

func (d *Downloader) String() string {
	return d.command
}

// Fetch downloads into dir, returning the mp3 path and, when videoTag
// was set, the video path. When the audio source is the video itself
// one invocation extracts both, otherwise the audio comes from a second
// invocation against audioTag.
func (d *Downloader) Fetch(ctx context.Context, dir, videoTag, audioTag string) (string, string, error) {
	sameAudio := audioTag == "" || audioTag == videoTag
	if videoTag != "" {
		args := slices.Clone(d.args)
		if sameAudio {
			args = append(args, "--extract-audio", "--keep-video", "--audio-format", "mp3")
		}
		args = append(args, "--", videoTag)
		if err := d.run(ctx, dir, args); err != nil {
			return "", "", err
		}
	}
	if !sameAudio {
		args := slices.Clone(d.args)
		args = append(args, "--extract-audio", "--audio-format", "mp3", "--", audioTag)
		if err := d.run(ctx, dir, args); err != nil {
			return "", "", err
		}
	}
	return FindMedia(dir, videoTag != "")
}

func (d *Downloader) run(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, d.command, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("run %s: %w: stderr: %q", d.command, err, stderr.String())
		}
		return fmt.Errorf("run %s: %w", d.command, err)
	}
	return nil
}

// FindMedia locates the downloader's deposit in dir: exactly one mp3,
// and when a video was requested exactly one video container. The "]."
// in the video patterns skips intermediate "*.f<format>.webm" artifacts
// left next to the merged result.
func FindMedia(dir string, wantVideo bool) (string, string, error) {
	var videos []string
	for _, pattern := range []string{"*].webm", "*].mp4"} {
		matches, err := fileutil.GlobBase(dir, pattern)
		if err != nil {
			return "", "", fmt.Errorf("glob video files: %w", err)
		}
		videos = append(videos, matches...)
	}
	if wantVideo && len(videos) != 1 {
		return "", "", fmt.Errorf("%w: expected 1 video file after download, got %d", ErrMediaCount, len(videos))
	}

	mp3s, err := fileutil.GlobBase(dir, "*.mp3")
	if err != nil {
		return "", "", fmt.Errorf("glob mp3 files: %w", err)
	}
	if len(mp3s) != 1 {
		return "", "", fmt.Errorf("%w: expected 1 mp3 file after download, got %d", ErrMediaCount, len(mp3s))
	}

	var video string
	if wantVideo {
		video = videos[0]
	}
	return mp3s[0], video, nil
}
