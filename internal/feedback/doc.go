// Package feedback turns a submission review into structured results for
// display: the per-guideline validation block is parsed out and the rest is
// rendered from Markdown to HTML.
package feedback
