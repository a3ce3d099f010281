// ABOUTME: Prompts that work over a set of saved submissions instead of a single draft
// ABOUTME: Recommend ranks the top three; combine merges them into one paragraph

package prompts

import (
	"fmt"
	"text/template"

	"github.com/2389/scribe-gateway/internal/llm"
)

// ReportItem is one saved submission handed to a report task. Number is the
// caller's row number and is how the recommendation refers back to it.
type ReportItem struct {
	Number   int    `json:"number"`
	Category string `json:"category,omitempty"`
	Text     string `json:"submission"`
}

var recommendTmpl = template.Must(template.New("recommend").Parse(`
<background>
Enterprise Report is a monthly reporting tool for the business regarding updates on their projects with their internal customer.
The customer is an internal entity within the business.
</background>

<instructions>
You are provided with the following Enterprise Report submissions, your job is to provide the top 3 submissions on how insightful and impactful (financially or otherwise) the Enterprise Report submission is.
    <criteria>
        <financial impact>
        Financial impact in the hundreds of thousands is low and anything in the tens of millions is high.
        </financial impact>
        <operational impact>
        Impact on how much the solution benefited the customer. Making process improvements or reducing turn around time are examples.
        </operational impact>
        <quantitativeness>
        Submission with one quantitative data point in terms of dimension of impact to customer is bad and having 3 or more is best.
        </quantitativeness>
    </criteria>
    <explanation>
    You must also explain why you chose the submission relative to other submissions. Do not mention the deliverable and having multiple data points.
    </explanation>
</instructions>

<output_format>
Your output must be in JSON format. You must have three keys, one for "submission_nos", one for "preamble", and another for "explanations". Ensure "submission_nos" is correct.
Only include submissions that were included in the input.
</output_format>

<output_example>
{
    "submission_nos": [1,2,3],
    "preamble": "The following submissions...",
    "explanations": ["Submission 1...", "Submission 2...", "Submission 3..."]
}
</output_example>

<submission>
{{range .}}
Submission {{.Number}}{{if .Category}} ({{.Category}}){{end}}:
{{.Text}}
{{end}}
</submission>
`))

var combineTmpl = template.Must(template.New("combine").Parse(`
Enterprise Report is a monthly reporting tool for the business regarding updates on their projects with their internal customer.
The customer is an internal entity within the business.

You are provided with the following Enterprise Report submissions, your job is to summarize them into a single paragraph.
You must strictly only use the information found in the submission, do not assume or make anything up.
Only write the summary and nothing else, do not write a preamble.
{{range .}}
{{.Text}}
{{end}}
`))

// Recommend renders the top-three ranking task over items.
func Recommend(items []ReportItem) (llm.Prompt, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("recommend needs at least one submission")
	}
	body, err := render(recommendTmpl, items)
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.Human(body)}, nil
}

// Combine renders the single-paragraph summary task over items.
func Combine(items []ReportItem) (llm.Prompt, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("combine needs at least one submission")
	}
	body, err := render(combineTmpl, items)
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.Human(body)}, nil
}
