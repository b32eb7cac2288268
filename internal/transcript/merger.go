// Package transcript reconciles overlapping transcription windows into a
// single growing conversation transcript.
//
// Consecutive audio windows share their tail audio, so the speech-to-text
// service re-emits near-duplicate segments at every window boundary. Merging
// trims those duplicates by segment timestamps rather than string similarity:
// timestamps are exact, cheap, and immune to wording drift between
// transcription runs of the same audio.
package transcript

import (
	"strings"

	"github.com/stewardlabs/steward/internal/stt"
)

// Merge combines the previous window's segments with the current window's,
// dropping current segments already covered by the previous window.
//
// The boundary rule is conservative at segment resolution: a segment starting
// exactly at the previous window's last end time is kept (nothing is lost at
// the join point), while a segment starting even fractionally earlier is
// dropped whole. No sub-segment trimming is attempted.
//
// The returned string is the full merged text for this window pair, not a
// delta; callers replace their working text with it.
func Merge(previous, current []stt.TimedSegment) string {
	if len(previous) == 0 {
		return joinSegments(current)
	}

	lastEnd := previous[len(previous)-1].End

	merged := make([]string, 0, len(previous)+len(current))
	for _, seg := range previous {
		merged = append(merged, strings.TrimSpace(seg.Text))
	}
	for _, seg := range current {
		if seg.Start >= lastEnd {
			merged = append(merged, strings.TrimSpace(seg.Text))
		}
	}
	return strings.TrimSpace(strings.Join(merged, " "))
}

func joinSegments(segments []stt.TimedSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
