package llm

import "context"

// AnalysisResult contains the structured fields derived from the full
// accumulated transcript. Every analysis call produces a fresh result from
// the whole transcript, so a later result supersedes an earlier one entirely;
// results are never merged across calls.
//
// All fields are nullable. A field is null when the transcript does not
// support it unambiguously: a partial or multi-candidate issue match yields a
// null IssueTypeDesc, and compensation is reported only when an offer was
// both stated and explicitly accepted.
type AnalysisResult struct {
	Cabin                *string `json:"cabin"`
	FirstName            *string `json:"firstName"`
	LastName             *string `json:"lastName"`
	Emotion              *string `json:"emotion"`
	IssueTypeDesc        *string `json:"issueTypeDesc"`
	PriorityDesc         *string `json:"priorityDesc"`
	Level1DepartmentDesc *string `json:"level1DepartmentDesc"`
	Compensation         *string `json:"compensation"`
	Summary              *string `json:"summary"`
}

// guestEmotions is the closed set of sentiment labels the analysis may
// return. Anything else is discarded as null.
var guestEmotions = map[string]bool{
	"angry":      true,
	"sad":        true,
	"neutral":    true,
	"satisfied":  true,
	"very-happy": true,
}

// ValidEmotion reports whether label is one of the allowed sentiment values.
func ValidEmotion(label string) bool {
	return guestEmotions[label]
}

// Client defines the interface for transcript analysis providers.
type Client interface {
	// Analyze derives structured state from the full accumulated transcript,
	// matching against the supplied list of known issue descriptions. On
	// failure the caller substitutes an all-null result rather than aborting
	// the connection.
	Analyze(ctx context.Context, transcript string, knownIssues []string) (*AnalysisResult, error)

	// Diarize labels the speakers in a transcript. On failure the caller
	// falls back to the unlabeled transcript.
	Diarize(ctx context.Context, transcript string) (string, error)
}

// AnalysisError reports a failed analysis call: transport failure, a
// non-success response, or content that did not parse as the expected JSON.
type AnalysisError struct {
	Msg string
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return "analysis: " + e.Msg + ": " + e.Err.Error()
	}
	return "analysis: " + e.Msg
}

func (e *AnalysisError) Unwrap() error { return e.Err }
