package pipeline

import "strings"

// lineBreaks maps every line separator, including the Unicode ones, to \n.
var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// SplitLines decomposes text into its TextUnit. Blank lines are kept so that
// translations stay index-aligned. A trailing line break does not produce a
// final empty line, and empty text has no lines at all.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = lineBreaks.Replace(text)
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// IsBlank reports whether a line carries no translatable content.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// CountWords counts whitespace-delimited tokens over non-blank lines.
func CountWords(lines []string) int {
	n := 0
	for _, line := range lines {
		if IsBlank(line) {
			continue
		}
		n += len(strings.Fields(line))
	}
	return n
}
