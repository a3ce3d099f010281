// Package pipeline produces responses for classified turns.
//
// Each intent has one pipeline:
//
//   - Submission: stateless review against a guideline set
//   - Question: answers using the session's history (read only)
//   - Deflection: fixed refusal, no model call
//
// Direct runs the single-prompt tasks (rephrase, extract_customer) that skip
// classification entirely. A pipeline returns a Generation whose Stream is set
// in Streaming mode; the caller owns delivery and persistence.
package pipeline
