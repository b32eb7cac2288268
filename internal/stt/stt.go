package stt

import "context"

// TimedSegment is a transcribed phrase with start/end offsets in seconds,
// relative to the beginning of the submitted audio window. Segments arrive
// ordered by start time and are immutable once returned.
type TimedSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is a transcription of one audio window.
type Result struct {
	Text     string
	Segments []TimedSegment
}

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Transcribe converts one window of raw 16-bit mono PCM audio into text
	// with timestamped segments. A failure applies to this window only; the
	// caller should skip the window and keep the connection alive.
	Transcribe(ctx context.Context, pcm []byte) (*Result, error)
}

// TranscriptionError reports a failed transcription call: transport failure,
// a non-success response, or an unparseable body.
type TranscriptionError struct {
	Msg string
	Err error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return "transcription: " + e.Msg + ": " + e.Err.Error()
	}
	return "transcription: " + e.Msg
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
