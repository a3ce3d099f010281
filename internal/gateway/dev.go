// ABOUTME: Canned model replies for running the gateway without an inference endpoint
// ABOUTME: Classification follows simple text heuristics so every pipeline can be exercised locally

package gateway

import (
	"strings"

	"github.com/2389/scribe-gateway/internal/llm"
	"github.com/2389/scribe-gateway/internal/prompts"
)

// devSubmissionWords is the length at which dev mode treats text as a submission.
const devSubmissionWords = 12

const devAnswer = "This is a development reply. Configure llm.provider to get real answers."

const devJSONReview = `Here is my detailed analysis of the submission...
1) "Achievement": the accomplishment is stated.
2) "Impact": the impact on the customer is stated.
3) "Quantitative Data": figures are present.
4) "Customer Name": the customer is not named.

This submission does not follow all the guidelines.

To improve the submission name the team or department that benefited.

<JSON>
{"Achievement":"TRUE","Impact":"TRUE","Quantitative Data":"TRUE","Customer Name":"FALSE","ALL":"FALSE"}
</JSON>`

const devYAMLReview = `---
validation:
  challenge: true
  impact: true
  quantitative_data: true
  customer_name: false
  all: false
---

Here is my analysis of your submission:

## Guidelines
 - **Customer Name**: the customer is not named.

## Conclusion
This submission does not follow all the guidelines.`

const devRecommendation = `{
    "submission_nos": [1],
    "preamble": "The following submission stands out this month.",
    "explanations": ["Submission 1 states its impact with figures."]
}`

const devSummary = "This is a development summary of the selected submissions."

func devReply(p llm.Prompt, _ llm.ModelConfig) (string, error) {
	last := p.LastHuman()

	if text, ok := prompts.ClassifiedText(last); ok {
		switch {
		case strings.HasSuffix(text, "?"):
			return prompts.MarkerQuestion, nil
		case len(strings.Fields(text)) >= devSubmissionWords:
			return prompts.MarkerSubmission, nil
		default:
			return prompts.MarkerOther, nil
		}
	}

	switch {
	case strings.Contains(last, `"submission_nos"`):
		return devRecommendation, nil
	case strings.Contains(last, "into a single paragraph"):
		return devSummary, nil
	case strings.Contains(last, "<submission>") && strings.Contains(last, "validation:"):
		return devYAMLReview, nil
	case strings.Contains(last, "<submission>"):
		return devJSONReview, nil
	case strings.Contains(last, "customer name"):
		return "<Enter customer name>", nil
	case strings.Contains(last, "<text>"):
		text := strings.TrimSpace(between(last, "<text>", "</text>"))
		return "---\nrephrased: |\n  " + strings.ReplaceAll(text, "\n", "\n  ") + "\n---\n", nil
	default:
		return devAnswer, nil
	}
}

func between(s, start, end string) string {
	_, after, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	inner, _, _ := strings.Cut(after, end)
	return inner
}
