// ABOUTME: Parses the ranking returned by the recommend task
// ABOUTME: The model is asked for bare JSON but often wraps it in prose

package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoRecommendation is returned when the output holds no JSON object.
var ErrNoRecommendation = errors.New("no recommendation object in output")

// Recommendation is the top submissions picked by the model. Numbers refer to
// the row numbers the caller sent.
type Recommendation struct {
	Numbers      []int    `json:"submission_nos"`
	Preamble     string   `json:"preamble"`
	Explanations []string `json:"explanations"`
}

// ParseRecommendation reads the JSON object between the first '{' and the last
// '}'. When allowed is non-empty, numbers outside it are dropped together with
// their explanation.
func ParseRecommendation(output string, allowed ...int) (*Recommendation, error) {
	start := strings.Index(output, "{")
	end := strings.LastIndex(output, "}")
	if start < 0 || end < start {
		return nil, ErrNoRecommendation
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(output[start:end+1]), &rec); err != nil {
		return nil, fmt.Errorf("parsing recommendation: %w", err)
	}
	if len(allowed) == 0 {
		return &rec, nil
	}

	ok := make(map[int]bool, len(allowed))
	for _, n := range allowed {
		ok[n] = true
	}
	kept := Recommendation{Preamble: rec.Preamble}
	for i, n := range rec.Numbers {
		if !ok[n] {
			continue
		}
		kept.Numbers = append(kept.Numbers, n)
		if i < len(rec.Explanations) {
			kept.Explanations = append(kept.Explanations, rec.Explanations[i])
		}
	}
	return &kept, nil
}
