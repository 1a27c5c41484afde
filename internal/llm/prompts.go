package llm

import "fmt"

// systemPrompt anchors every feedback completion.
const systemPrompt = "You are an expert interview analyst."

const jsonShape = `Respond ONLY with a JSON object of this exact shape:
{
  "overallRating": <number between 0 and 10>,
  "strengths": [<strings>],
  "improvements": [<strings>],
  "detailedFeedback": <string>,
  "recommendations": [<strings>]
}`

// BuildPrompt renders the feedback request for one interview transcript.
// The perspective selects the coaching voice; anything unrecognized gets a
// neutral assistant framing rather than an error, so a stored chat with a
// stale perspective value still produces feedback.
func BuildPrompt(transcript, perspective, notes string) string {
	if notes == "" {
		notes = "None"
	}
	switch perspective {
	case "candidate":
		return fmt.Sprintf(`You are an interview coach. Analyze the following interview transcript from the candidate's point of view and assess how well they performed.

Transcript:
%s

Additional context from the candidate:
%s

%s`, transcript, notes, jsonShape)
	case "recruiter":
		return fmt.Sprintf(`You are a hiring expert. Analyze the following interview transcript from the recruiter's point of view and assess the candidate's suitability.

Transcript:
%s

Additional context from the recruiter:
%s

%s`, transcript, notes, jsonShape)
	default:
		return fmt.Sprintf(`You are an AI assistant. Analyze the following interview transcript and provide balanced feedback.

Transcript:
%s

Additional context:
%s

%s`, transcript, notes, jsonShape)
	}
}
