// ABOUTME: Built-in guideline sets for achievement and challenge submissions
// ABOUTME: Each set bundles its rules, feedback rubric, QA preamble, and validation keys

package prompts

import (
	"sort"
	"text/template"
)

// GuidelineSet is the business-rule text a submission is reviewed against.
type GuidelineSet struct {
	Name             string
	Guidelines       string
	QuestionPreamble string
	// ValidationKeys lists the keys the rubric asks for in its validation block,
	// summary key last.
	ValidationKeys []string

	rubric *template.Template
}

type rubricData struct {
	Period     string
	Submission string
	Guidelines string
}

// Achievement reviews accomplishment write-ups. Its rubric ends in a <JSON> block.
var Achievement = GuidelineSet{
	Name: "achievement",
	Guidelines: `
Submission must contain the following mutually exclusive parts:
1) "Achievement" (required): State the accomplishment or business outcome and explain what it being done.

2) "Impact" (required): Focus on impact to the business.
   This must be solely on information in the prompt rather than inferring impact.

It should also contain the following:
1) "Quantitative Data" (required): It contains specific numerical or quantitative benefit to the business.
2) "Customer Name" (required): The prompt explicitly contains the name of the customer which is a team or department and not a person. The customer is the entity whom the service was rendered to. Any description of the customer does not suffice. This is the "Who".
`,
	QuestionPreamble: `
Below is a conversation between human and an assistant who is helpful and provides verbose answers to questions regarding the submission process.
You will be provided with information and a question on the submission process.
Your job is to provide an answer based on the below information
Do not make anything up, only use the information provided below.

Context:
Below are the required parts of a business submission:
Achievement: State the accomplishment/customer business outcome succinctly.
Impact: Focus on impact to the customer first and then impact on the business.

In addition, the submission should include the following:
Quantitative data: The submission contain quantitative data like numbers and figures.

Chat History:
`,
	ValidationKeys: []string{"Achievement", "Impact", "Quantitative Data", "Customer Name", "ALL"},
	rubric: template.Must(template.New("achievement_rubric").Parse(`
You are provided with a submission for this month of {{.Period}}.

<instructions>
    - Only explain why for each guideline step by step.
    - Do not make any assumptions on what is implied by the text only take it in face value.
    - After going through all guidelines, conclude whether it follows all of them. Dont do this in the beginning.
    - Provide feedback on how to improve the submission.
    - At the very end, log the results for each guideline in JSON format where the key is the only the guideline name and the values can only be "TRUE" or "FALSE" on whether the submission follows it.
    - Add another key to the JSON for "ALL" whose value is "TRUE" if all guidelines are met and "FALSE" if otherwise.
    - Wrap the JSON with <JSON> in the beginning and </JSON> in the end. Dont talk about the JSON.
    - Strictly follow the template below.
</instructions>

<template>
    "Here is my detailed analysis of the submission..."
    1) "Guideline X": explanation...
    2) "Guideline Y": explanation...
    ...

    "This submission follows all the guidelines." OR "This submission does not follow all the guidelines."

    "To improve the submission do the following..."

    <JSON>
    {
        "Guideline X":"TRUE" or "FALSE"
        "Guideline Y":"TRUE" or "FALSE"
        ...
        "ALL":"TRUE" or "FALSE"
    }
    </JSON>
</template>

<submission>
{{.Submission}}
</submission>

<guidelines>
{{.Guidelines}}
</guidelines>

Follow the instructions step by step and think about what you're going to say before doing so.
`)),
}

// Challenge reviews write-ups of problems and missteps. Its rubric leads with
// YAML front matter.
var Challenge = GuidelineSet{
	Name: "challenge",
	Guidelines: `
Submission must contain the following mutually exclusive parts:
1) "Challenge" (required): State the challenge/issue/problem/misstep succinctly. This is the "What."

2) "Impact" (required): Focus on impact to the customer first and/or then impact on the business if there are any. This is the "So what?".
   This must be solely on information in the prompt rather than inferring impact.

It should also contain the following:
1) "Quantitative Data" (required): It contains specific numerical or quantitative benefit to the customer OR the business. Either one works.
2) "Customer Name" (required): The prompt explicitly contains the name of the customer which is a team or department and not a person. The customer is the entity whom the service was rendered to. Any description of the customer does not suffice. This is the "Who".
`,
	QuestionPreamble: `
Below is a conversation between human and an assistant who is helpful and provides verbose answers to questions regarding the submission process.
You will be provided with information and a question on the submission process.
Your job is to provide an answer based on the below information
Do not make anything up, only use the information provided below.

Context:
Below are the required parts of a business submission:
Challenge: State the challenge/issue/problem/misstep succinctly.
Impact: Focus on impact to the customer first and then impact on the business.

In addition, the submission should include the following:
Quantitative data: The submission contain quantitative data like numbers and figures.

Chat History:
`,
	ValidationKeys: []string{"challenge", "impact", "quantitative_data", "customer_name", "all"},
	rubric: template.Must(template.New("challenge_rubric").Parse(`
You are provided with a submission for this month of {{.Period}}.

<instructions>
    - Only explain why for each guideline step by step.
    - Do not make any assumptions on what is implied by the text only take it in face value.
    - After going through all guidelines, conclude whether it follows all of them. Dont do this in the beginning.
    - Provide feedback on how to improve the submission.
    - Return your response in Markdown format with the following structure:
        - Brief introductory message
        - Guidelines section with detailed explanations for each guideline
        - Improvements section with specific feedback
        - Conclusion section with your final assessment
    - You may only use **bold text**, *italic text*, bullet lists (-), and numbered lists (1.) in Markdown format. Do not use nested lists.
    - Return your response with YAML front matter followed by Markdown content.
    - Include validation results as YAML front matter at the top.
</instructions>

<template>
---
validation:
  challenge: true    # Replace with actual result
  impact: false      # Replace with actual result
  quantitative_data: true  # Replace with actual result
  customer_name: false     # Replace with actual result
  all: false
---

Here is my analysis of your submission:

## Guidelines
 - **Challenge**: explanation...
 - **Impact**: explanation...
 - **Quantitative Data**: explanation...
 - **Customer Name**: explanation...

## Suggestions for Improvement

To improve the submission do the following...

## Conclusion

This submission follows/does not follow all the guidelines.
</template>

<submission>
{{.Submission}}
</submission>

<guidelines>
{{.Guidelines}}
</guidelines>

Follow the instructions step by step and think about what you're going to say before doing so.
`)),
}

var guidelineSets = map[string]GuidelineSet{
	Achievement.Name: Achievement,
	Challenge.Name:   Challenge,
}

// LookupGuidelineSet returns the built-in set with the given name.
func LookupGuidelineSet(name string) (GuidelineSet, bool) {
	set, ok := guidelineSets[name]
	return set, ok
}

// GuidelineSetNames lists the built-in set names in sorted order.
func GuidelineSetNames() []string {
	names := make([]string, 0, len(guidelineSets))
	for name := range guidelineSets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
