// ABOUTME: Parses a submission review into its validation results and readable prose
// ABOUTME: Handles the trailing <JSON> block and the YAML front matter review formats

package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

const (
	jsonOpen  = "<JSON>"
	jsonClose = "</JSON>"
	fence     = "---"
)

// Feedback is a review split into per-guideline results and prose.
type Feedback struct {
	// Validation maps each guideline to whether the submission met it. The
	// overall verdict is reported in All, not in this map.
	Validation map[string]bool `json:"validation,omitempty"`
	All        bool            `json:"all"`
	// Found is false when the review carried no validation block.
	Found bool `json:"found"`
	// Missing and Unexpected are only filled when Parse is given the expected
	// keys. Unexpected keys are left out of Validation.
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
	Markdown   string   `json:"markdown"`
	HTML       string   `json:"html"`

	expected map[string]string
}

// Parse splits a review. A review without a recognizable validation block is
// returned as prose with Found unset. When expected keys are given, keys are
// matched case-insensitively and reported under the expected spelling.
func Parse(review string, expected ...string) (*Feedback, error) {
	fb := &Feedback{Validation: map[string]bool{}}
	if len(expected) > 0 {
		fb.expected = make(map[string]string, len(expected))
		for _, k := range expected {
			fb.expected[strings.ToLower(k)] = k
		}
	}

	prose := review
	switch {
	case strings.HasPrefix(strings.TrimSpace(review), fence):
		body, rest, ok := splitFrontMatter(review)
		if ok {
			if err := fb.parseFrontMatter(body); err != nil {
				return nil, err
			}
			prose = rest
		}
	case strings.Contains(review, jsonOpen):
		body, rest, ok := splitJSONBlock(review)
		if ok {
			fb.parseJSONBlock(body)
			prose = rest
		}
	}

	if fb.Found {
		fb.checkKeys(expected)
	}

	fb.Markdown = strings.TrimSpace(prose)
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(fb.Markdown), &html); err != nil {
		return nil, fmt.Errorf("rendering review: %w", err)
	}
	fb.HTML = html.String()
	return fb, nil
}

// Failed returns the guidelines the submission did not meet, in no particular order.
func (f *Feedback) Failed() []string {
	var out []string
	for k, ok := range f.Validation {
		if !ok {
			out = append(out, k)
		}
	}
	return out
}

func (f *Feedback) set(key string, met bool) {
	f.Found = true
	if strings.EqualFold(key, "all") {
		f.All = met
		return
	}
	if f.expected != nil {
		canonical, ok := f.expected[strings.ToLower(key)]
		if !ok {
			f.Unexpected = append(f.Unexpected, key)
			return
		}
		key = canonical
	}
	f.Validation[key] = met
}

func (f *Feedback) checkKeys(expected []string) {
	for _, k := range expected {
		if strings.EqualFold(k, "all") {
			continue
		}
		if _, ok := f.Validation[k]; !ok {
			f.Missing = append(f.Missing, k)
		}
	}
	sort.Strings(f.Unexpected)
}

func splitFrontMatter(review string) (body, rest string, ok bool) {
	s := strings.TrimLeft(review, " \t\r\n")
	s = strings.TrimPrefix(s, fence)
	end := strings.Index(s, "\n"+fence)
	if end < 0 {
		return "", "", false
	}
	rest = s[end+len("\n"+fence):]
	return s[:end], rest, true
}

func (f *Feedback) parseFrontMatter(body string) error {
	var fm struct {
		Validation map[string]any `yaml:"validation"`
	}
	if err := yaml.Unmarshal([]byte(body), &fm); err != nil {
		return fmt.Errorf("parsing review front matter: %w", err)
	}
	for k, v := range fm.Validation {
		if met, ok := truthy(v); ok {
			f.set(k, met)
		}
	}
	return nil
}

// splitJSONBlock cuts out the last <JSON>...</JSON> block. A missing close tag
// takes the rest of the review.
func splitJSONBlock(review string) (body, rest string, ok bool) {
	start := strings.LastIndex(review, jsonOpen)
	if start < 0 {
		return "", "", false
	}
	after := review[start+len(jsonOpen):]
	end := strings.Index(after, jsonClose)
	if end < 0 {
		return after, review[:start], true
	}
	return after[:end], review[:start] + after[end+len(jsonClose):], true
}

var pairPattern = regexp.MustCompile(`"([^"]+)"\s*:\s*"?(?i:(true|false))"?`)

func (f *Feedback) parseJSONBlock(body string) {
	var values map[string]any
	if err := json.Unmarshal([]byte(body), &values); err == nil {
		for k, v := range values {
			if met, ok := truthy(v); ok {
				f.set(k, met)
			}
		}
		return
	}

	// Models often drop the commas between pairs.
	for _, m := range pairPattern.FindAllStringSubmatch(body, -1) {
		f.set(m[1], strings.EqualFold(m[2], "true"))
	}
}

func truthy(v any) (met, ok bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToUpper(strings.TrimSpace(x)) {
		case "TRUE":
			return true, true
		case "FALSE":
			return false, true
		}
	}
	return false, false
}
