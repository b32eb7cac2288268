package llm

import (
	"fmt"
	"strings"
)

// analysisSystemPrompt frames the model as a structured-data extractor for
// guest services conversations.
const analysisSystemPrompt = `You extract structured data from guest conversation transcripts.`

// diarizationSystemPrompt frames the model as a speaker labeler.
const diarizationSystemPrompt = `You identify speakers in transcripts.`

// buildAnalysisPrompt produces the analysis request for one transcript. The
// model must answer with a single JSON object; fields it cannot support
// unambiguously from the transcript are null. Issue matching is strict: only
// an explicit, complete match against exactly one known issue counts.
func buildAnalysisPrompt(transcript string, knownIssues []string) string {
	return fmt.Sprintf(`You will receive a conversation transcript between a Guest Services Officer and a guest.

Analyze the transcript and return the following details in a single valid JSON response:

1. Name and cabin:
   - Extract the guest's cabin number. If cabin 11542 is spoken as "eleven thousand five hundred forty two", return 11542.
   - Extract the guest's first and last name if mentioned; otherwise null.

2. Guest emotion:
   - The primary emotion expressed by the guest.
   - Choose only from: angry, sad, neutral, satisfied, very-happy.

3. Issue matching:
   - Known issues: [%s].
   - If the transcript explicitly and unambiguously matches exactly ONE issue, return it.
   - If incomplete, unclear, ambiguous, or multiple matches are possible, issueTypeDesc MUST be null. Do not guess.
   - Return priorityDesc and level1DepartmentDesc only when an issue matched.

4. Compensation:
   - If compensation (e.g. a bottle of champagne) was offered AND explicitly accepted by the guest, return it.
   - If denied, retracted, unconfirmed, or never offered, return null.

5. Summary:
   - A short summary (max 10 lines) covering what both the guest and the Guest Services Officer said.

Return strictly this JSON structure and nothing else:

{
    "cabin": "<cabin number or null>",
    "firstName": "<guest first name or null>",
    "lastName": "<guest last name or null>",
    "emotion": "<one of: angry, sad, neutral, satisfied, very-happy>",
    "issueTypeDesc": "<matched issue from the list or null>",
    "priorityDesc": "<priority if matched or null>",
    "level1DepartmentDesc": "<department if matched or null>",
    "compensation": "<confirmed compensation or null>",
    "summary": "<summary>"
}

Now analyze the following transcript:
"""
%s
"""`, strings.Join(knownIssues, ", "), transcript)
}

// buildDiarizationPrompt asks the model to label speaker turns. The
// conversation is between a Guest Services Officer and a guest; either name
// may appear in the transcript itself.
func buildDiarizationPrompt(transcript string) string {
	return fmt.Sprintf("Given the transcript text: '%s', add speaker diarization to the transcript. "+
		"The conversation is taking place between a Guest Services Officer and a guest "+
		"(names might be provided in the transcript).", transcript)
}
