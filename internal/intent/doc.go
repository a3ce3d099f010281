// Package intent classifies user turns as Submission, Question, or Other.
package intent
