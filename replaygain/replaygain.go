// Package replaygain applies loudness gain metadata to downloaded audio
// with rsgain. The tool is optional, callers check Detect once at
// startup and leave the Normalizer out when it's not around.
package replaygain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const Command = "rsgain"

var ErrNotInstalled = fmt.Errorf("%s not found in PATH", Command)

func Detect() error {
	if _, err := exec.LookPath(Command); err != nil {
		return fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	return nil
}

type Normalizer struct{}

// Normalize writes replaygain tags in place, with clipping protection.
// The audio stream itself is untouched.
func (Normalizer) Normalize(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, Command, "custom", "--tagmode=i", "--clip-mode=p", path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("run %s: %w: stderr: %q", Command, err, stderr.String())
		}
		return fmt.Errorf("run %s: %w", Command, err)
	}
	return nil
}
