package cli

import "strings"

// indentation is the indentation used for example lines in help text.
const indentation = `  `

// longDesc trims the surrounding whitespace of a command's long description.
func longDesc(s string) string {
	return strings.TrimSpace(s)
}

// examples trims a command's examples and indents every line.
func examples(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	lines := make([]string, 0, strings.Count(s, "\n")+1)
	for line := range strings.SplitSeq(s, "\n") {
		lines = append(lines, indentation+strings.TrimSpace(line))
	}

	return strings.Join(lines, "\n")
}
