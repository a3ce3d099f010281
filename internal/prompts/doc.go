// Package prompts holds every prompt scribe-gateway sends to a model.
//
// The texts are data: classification asks for one of the markers <1>, <2>, <3>;
// the achievement rubric asks for a trailing <JSON> validation block and the
// challenge rubric for YAML front matter. The intent and feedback packages parse
// those contracts, so wording changes here must keep them intact.
package prompts
