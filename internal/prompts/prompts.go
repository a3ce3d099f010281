// ABOUTME: Prompt templates and renderers for classification, feedback, QA, and direct tasks
// ABOUTME: Output contracts (markers, validation blocks) are parsed downstream and must stay stable

package prompts

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/2389/scribe-gateway/internal/llm"
)

// Classification markers the classifier prompt asks the model to emit.
const (
	MarkerSubmission = "<1>"
	MarkerQuestion   = "<2>"
	MarkerOther      = "<3>"
)

// Deflection is returned verbatim for turns that are neither submissions nor questions.
const Deflection = "Sorry, I can only answer writing related questions"

// SystemPrompt frames every submission review.
const SystemPrompt = `
You are Enterprise Report writing assistant. You help you write, validate for completeness and rephrase Enterprise Report submissions. All of your responses are long and verbose.
Enterprise Report is a monthly reporting tool for the business regarding updates on their projects with their internal customer.
The customer is an internal entity within the business.
`

// DefaultQuestionPreamble is used when a guideline set carries none.
const DefaultQuestionPreamble = `
Below is a conversation between human and an assistant who is helpful and provides verbose answers to questions regarding the submission process.
You will be provided with information and a question on the submission process.
Your job is to provide an answer based on the below information
Do not make anything up, only use the information provided below.

Context:
Below are the required parts of a business submission:
Impact: Focus on impact to the customer first and then impact on the business.

In addition, the submission should include the following:
Quantitative data: The submission contain quantitative data like numbers and figures.

Chat History:
`

var classificationTmpl = template.Must(template.New("classification").Parse(`
You are provided a prompt that you must classify in only one of three ways:

CLASS 1:
    A. The prompt is a Enterprise Report submission which is a achievement or challenge regarding an internal project.

    Your Response:
    Respond to the prompt only with "` + MarkerSubmission + `"

CLASS 2:
    A. The prompt is a question regarding the Enterprise Report writing process or Enterprise Report in general
    B. The prompt is a follow up question based on a previous question

    Your Response:
    Respond to the prompt only with "` + MarkerQuestion + `"

CLASS 3:
    A. Greetings and salutations
    B. Arbitrary question on an topic not related to Enterprise Report submission writing.
    C. Prompts that contain profanity or inappropriate content
    D. Anything that is not a part of CLASS 2 and CLASS 1

    Your Response:
    Respond to the prompt only with "` + MarkerOther + `"

Prompt: {{.}}
`))

var questionTmpl = template.Must(template.New("question").Parse(`
Question: {{.}}

`))

var rephraseTmpl = template.Must(template.New("rephrase").Parse(`
You are writer who is provided with text and your job is to rephrase the it in such a way that it is grammatically correct, cohesive and the follows the guidelines without changing its idea.

<instructions>
    - Rephrase the text such that it is cohesive and easier to understand.
    - Do not include additional details in the text.
    - Do not add figures that does not exist.
    - Do not infer nor merge any information.
    - Keep it in paragraph form.
    - Break up long sentences into shorter ones
    - Use active voice
    - Return your response with YAML front matter followed by Markdown content.
    - Include the rephrased text in the YAML front matter.
</instructions>

<template>
---
rephrased: |
  Your rephrased text goes here...
---

## How I Rephrased Your Text

Here's how and why I rephrased your text step by step:

- **Change 1**: Explanation of what was changed and why
- **Change 2**: Explanation of what was changed and why
- ... additional changes as needed

</template>

Rewrite parts of it such that it follows the guidelines:
<guidelines>
 - Spell out all acronyms on first use.
     Examples:
        - "Machine Learning" can be later used as "ML"

 - Format dollar amounts into the following: thousands use "K", Millions use "M", Billions use "B".
     Examples:
        - "600000" -> "600k",
        - "10,100,000" -> "10.1M",
        - "One billion" -> "1B",

 - Look for all dates and if its the current year of {{.Year}} or it has no year replace it with the format "MMM-DD" and remove the year.
     Examples:
        - "July 10 {{.Year}}" -> "Jul-10"
        - "2/20/{{.Year}}" -> "Feb-20"
        - "May 6" -> "May-06"

 - Look for all dates and if the date is not the current year replace it to the format "MMM-YYYY".
     Examples:
        - "July 10 {{.PriorYear}}" -> "Jul-{{.PriorYear}}"
        - "2/20/{{.PriorYear}}" -> "Feb-{{.PriorYear}}"
</guidelines>

<text>
{{.Text}}
</text>
`))

var extractCustomerTmpl = template.Must(template.New("extract_customer").Parse(`
Below is a Enterprise Report submission regarding a customer engagement. You job is to extract the customer name of the customer from the submission.
It is possible that the customer is an internal team. Only return the customer name in this format <CUSTOMER NAME>. Dont include any preamble, dont explain anything just return the customer name.
If you dont know who the customer is, return "<Enter customer name>"


Below are examples:
Submission:
HR and IT achieves 80% cost reduction for operations department retirement strategy recommendation initiative. HR and IT are developing and deploying AI/ML-based Financial Advisor for recommending retirement strategies. IT led delivery promoted three models to production for use by the operations department. This solution allowed retirement recommendation cost reduction by 80%, reduced data processing time by 85% (from 14 days to 2 days).
You:
<operations department>

Submission:
Marketing & IT achieves 65% efficiency gain for Sales Department campaign targeting system. Marketing and IT collaborated on an AI-powered Customer Segmentation Engine for optimizing marketing campaigns. IT successfully deployed two predictive models for the Sales Department's use. This solution increased campaign conversion rates by 65% and reduced campaign planning time by 70% (from 21 days to 6 days).
You:
<Sales>


Now its your turn to do it:
Submission:
{{.}}

You:
`))

// PeriodLabel formats the reporting period the way the rubric expects, e.g. "March 2024".
func PeriodLabel(t time.Time) string {
	return t.Format("January 2006")
}

// Classification renders the single-message intent classification prompt.
func Classification(text string) (llm.Prompt, error) {
	body, err := render(classificationTmpl, text)
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.Human(body)}, nil
}

// ClassifiedText recovers the user text embedded in a classification prompt.
// ok is false when content is not a classification prompt.
func ClassifiedText(content string) (text string, ok bool) {
	if !strings.Contains(content, `Respond to the prompt only with "`+MarkerOther+`"`) {
		return "", false
	}
	i := strings.LastIndex(content, "\nPrompt: ")
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(content[i+len("\nPrompt: "):]), true
}

// Submission renders the feedback prompt for one submission.
func Submission(set GuidelineSet, period, text string) (llm.Prompt, error) {
	if set.rubric == nil {
		return nil, fmt.Errorf("guideline set %q has no rubric", set.Name)
	}
	body, err := render(set.rubric, rubricData{
		Period:     period,
		Submission: text,
		Guidelines: set.Guidelines,
	})
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.System(SystemPrompt), llm.Human(body)}, nil
}

// Question renders a QA prompt: preamble, prior exchanges in order, then the question.
func Question(preamble string, history []llm.Message, question string) (llm.Prompt, error) {
	if preamble == "" {
		preamble = DefaultQuestionPreamble
	}
	body, err := render(questionTmpl, question)
	if err != nil {
		return nil, err
	}

	p := make(llm.Prompt, 0, len(history)+2)
	p = append(p, llm.System(preamble))
	p = append(p, history...)
	p = append(p, llm.Human(body))
	return p, nil
}

// Rephrase renders the rephrasing task for text written in the given year.
func Rephrase(text string, now time.Time) (llm.Prompt, error) {
	body, err := render(rephraseTmpl, struct {
		Text      string
		Year      int
		PriorYear int
	}{text, now.Year(), now.Year() - 1})
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.Human(body)}, nil
}

// ExtractCustomer renders the customer-name extraction task.
func ExtractCustomer(text string) (llm.Prompt, error) {
	body, err := render(extractCustomerTmpl, text)
	if err != nil {
		return nil, err
	}
	return llm.Prompt{llm.Human(body)}, nil
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return b.String(), nil
}
