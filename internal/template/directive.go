// Package template resolves repoprompt templates into aggregated file content.
//
// A template is plain text. Each line is one directive:
//
//	# comment        reproduced verbatim
//	                 blank lines are reproduced verbatim
//	-path/spec       excludes whatever path/spec resolves to
//	path/spec        includes whatever path/spec resolves to
//
// A path specification is relative to the workspace. A trailing "*" on a
// directory requests a recursive walk; without it only the files directly
// inside the directory are used.
package template

import "strings"

const (
	commentPrefix   = "#"
	exclusionPrefix = "-"
	recursiveMarker = "*"
	lineSeparator   = "\n"
)

// DirectiveKind classifies a single template line.
type DirectiveKind int

const (
	// DirectiveBlank is a line that is empty after trimming.
	DirectiveBlank DirectiveKind = iota
	// DirectiveComment is a line starting with "#".
	DirectiveComment
	// DirectiveExclude is a line starting with "-".
	DirectiveExclude
	// DirectiveInclude is any other non-empty line.
	DirectiveInclude
)

// String returns the lower-case name of the directive kind.
func (kind DirectiveKind) String() string {
	switch kind {
	case DirectiveBlank:
		return "blank"
	case DirectiveComment:
		return "comment"
	case DirectiveExclude:
		return "exclude"
	case DirectiveInclude:
		return "include"
	default:
		return "unknown"
	}
}

// Directive is the parsed form of one template line.
type Directive struct {
	Kind DirectiveKind
	// Line is the verbatim line text without its terminator.
	Line string
	// Spec is the path specification for include and exclude directives.
	Spec string
	// Number is the 1-based line number within the template.
	Number int
}

// ParseLine classifies a single template line. Trimming only affects
// classification; Line keeps the original text.
func ParseLine(line string) Directive {
	trimmedLine := strings.TrimSpace(line)
	directive := Directive{Line: line}
	switch {
	case trimmedLine == "":
		directive.Kind = DirectiveBlank
	case strings.HasPrefix(trimmedLine, commentPrefix):
		directive.Kind = DirectiveComment
	case strings.HasPrefix(trimmedLine, exclusionPrefix):
		directive.Kind = DirectiveExclude
		directive.Spec = strings.TrimSpace(strings.TrimPrefix(trimmedLine, exclusionPrefix))
	default:
		directive.Kind = DirectiveInclude
		directive.Spec = trimmedLine
	}
	return directive
}

// ParseLines splits template text on newlines and classifies every line in order.
func ParseLines(templateText string) []Directive {
	rawLines := strings.Split(templateText, lineSeparator)
	directives := make([]Directive, 0, len(rawLines))
	for lineIndex, rawLine := range rawLines {
		directive := ParseLine(rawLine)
		directive.Number = lineIndex + 1
		directives = append(directives, directive)
	}
	return directives
}
