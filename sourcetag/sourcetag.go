// Package sourcetag extracts media source ids from the compact tag
// expressions stored in song headers. An expression is a comma
// separated list where "v=<id>" names a video source and "a=<id>" an
// audio source, eg "v=dQw4w9WgXcQ" or "a=xyz,v=abc". Entries in any
// other form are ignored.
package sourcetag

import "regexp"

var (
	videoExpr = regexp.MustCompile(`^(?:.*,)?v=([^,\s]+)(?:,.*)?$`)
	audioExpr = regexp.MustCompile(`^(?:.*,)?a=([^,\s]+)(?:,.*)?$`)
)

type Tags struct {
	Video string
	Audio string
}

// Zero reports whether no source id was found at all.
func (t Tags) Zero() bool {
	return t == Tags{}
}

// Parse extracts the video and audio source ids from a tag expression.
// Expressions in some other format simply come back empty.
func Parse(s string) Tags {
	var t Tags
	if m := videoExpr.FindStringSubmatch(s); m != nil {
		t.Video = m[1]
	}
	if m := audioExpr.FindStringSubmatch(s); m != nil {
		t.Audio = m[1]
	}
	return t
}
