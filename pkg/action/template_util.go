package action

import "strings"

// hasTemplateSyntax reports whether s contains Go template delimiters,
// mirroring prompts.has_template_syntax's cheap pre-check before paying
// for a full template parse.
func hasTemplateSyntax(s string) bool {
	return strings.Contains(s, "{{")
}
