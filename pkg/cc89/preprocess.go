package cc89

import "strings"

// Preprocess is the narrow, optional pass spec.md section 1 allows for:
// "An optional internal preprocessor may exist but is not specified here."
// It does not expand macros or resolve #include -- those remain external
// collaborators (spec.md section 1) -- it only strips the GNU-style line
// markers ("# <num> \"<file>\" [flags]") that a real preprocessor leaves
// behind in its output, so that a file run straight through `cpp` can still
// be handed to Lex without a stray leading '#' tripping the punctuator
// scanner. Grounded on the teacher's line-oriented preprocessor.go, cut
// down to the one directive this front end still needs to recognize.
func Preprocess(src string) string {
	lines := strings.Split(src, "\n")
	var out strings.Builder
	for i, line := range lines {
		if isLineMarker(line) {
			out.WriteString("\n")
		} else {
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}

// isLineMarker recognizes "# <digits> \"<file>\"" possibly followed by
// trailing flag digits, the form emitted by cpp with -P disabled.
func isLineMarker(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) == 0 || t[0] != '#' {
		return false
	}
	rest := strings.TrimSpace(t[1:])
	if rest == "" {
		return false
	}
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 0
}
